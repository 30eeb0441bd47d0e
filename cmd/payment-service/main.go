package main

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/car-detailing-platform/payment-pipeline/internal/config"
	"github.com/car-detailing-platform/payment-pipeline/internal/httpx"
	"github.com/car-detailing-platform/payment-pipeline/internal/messaging"
	"github.com/car-detailing-platform/payment-pipeline/internal/payment/gateway"
	"github.com/car-detailing-platform/payment-pipeline/internal/payment/handlers"
	"github.com/car-detailing-platform/payment-pipeline/internal/payment/repository"
	"github.com/car-detailing-platform/payment-pipeline/internal/payment/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.Info("🚀 Payment Service starting...")

	cfg, err := config.New()
	if err != nil {
		logrus.Fatalf("Config error: %v", err)
	}

	paymentRepo, dbCloser, err := initPaymentRepository(cfg)
	if err != nil {
		logrus.Fatalf("Payment storage error: %v", err)
	}
	if dbCloser != nil {
		defer dbCloser.Close()
	}

	rabbitClient := messaging.NewClient(messaging.Config{
		URL:            cfg.AMQP.URL,
		Queue:          cfg.AMQP.PaymentQueue,
		RetryCount:     cfg.AMQP.RetryCount,
		RetryDelay:     cfg.AMQP.RetryDelay,
		ReconnectDelay: cfg.AMQP.ReconnectDelay,
	})
	// The publish path is fire-and-forget, so a dead broker does not keep the
	// service from accepting payments; events published meanwhile are lost.
	// Redialing continues in the background until the broker appears.
	if err := rabbitClient.Connect(); err != nil {
		logrus.Errorf("RabbitMQ connection failed, retrying in background: %v", err)
		go rabbitClient.Redial()
	}
	defer rabbitClient.Close()

	settlementGateway := gateway.NewMockSettlementGateway(cfg.Payment.FailureRate)
	publisher := messaging.NewPublisher(rabbitClient)

	paymentService := service.NewPaymentService(
		paymentRepo,
		settlementGateway,
		publisher,
		cfg.Payment.SettlementDelay,
		cfg.Payment.Currency,
	)
	defer paymentService.Close()

	paymentHandler := handlers.NewPaymentHandler(paymentService, rabbitClient, cfg.Payment.DefaultAmount)

	app := setupFiberApp()
	setupRoutes(app, paymentHandler)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logrus.Info("🛑 Payment Service shutting down...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("Shutdown error: %v", err)
		}
	}()

	logrus.Infof("🌍 Payment Service listening on :%s (settlement delay %s)",
		cfg.APP.PaymentPort, cfg.Payment.SettlementDelay)

	if err := app.Listen(":" + cfg.APP.PaymentPort); err != nil {
		logrus.Fatalf("Server error: %v", err)
	}
}

func initPaymentRepository(cfg *config.Config) (repository.PaymentRepository, *sql.DB, error) {
	if cfg.DB.PaymentStorage != "postgres" {
		logrus.Info("Using in-memory payment storage")
		return repository.NewMemoryPaymentRepository(), nil, nil
	}

	connectionString := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)

	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, nil, fmt.Errorf("database open error: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("database ping error: %v", err)
	}

	repo := repository.NewPostgresPaymentRepository(db)
	if err := repo.EnsureSchema(); err != nil {
		db.Close()
		return nil, nil, err
	}

	logrus.Infof("✅ Connected to database %s", cfg.DB.Name)
	return repo, db, nil
}

func setupFiberApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Payment Service v1.0",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} - ${latency} | IP: ${ip}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	return app
}

func setupRoutes(app *fiber.App, paymentHandler *handlers.PaymentHandler) {
	app.Get("/health", paymentHandler.HealthCheck)

	api := app.Group("/api")
	payments := api.Group("/payments")
	payments.Post("", paymentHandler.CreatePayment)
	payments.Get("/:payment_id", paymentHandler.GetPaymentStatus)

	app.Use("*", func(c *fiber.Ctx) error {
		return httpx.NotFoundResponse(c, "Route not found")
	})
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	logrus.Errorf("HTTP error: %v", err)

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
