package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/car-detailing-platform/payment-pipeline/internal/bonus/handlers"
	"github.com/car-detailing-platform/payment-pipeline/internal/bonus/repository"
	"github.com/car-detailing-platform/payment-pipeline/internal/bonus/service"
	"github.com/car-detailing-platform/payment-pipeline/internal/config"
	"github.com/car-detailing-platform/payment-pipeline/internal/httpx"
	"github.com/car-detailing-platform/payment-pipeline/internal/messaging"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.Info("🚀 Bonus Service starting...")

	cfg, err := config.New()
	if err != nil {
		logrus.Fatalf("Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bonusRepo, err := initBonusRepository(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Bonus storage error: %v", err)
	}

	bonusService := service.NewBonusService(bonusRepo, cfg.Bonus.AccrualRate)
	bonusHandler := handlers.NewBonusHandler(bonusService)
	eventHandler := handlers.NewPaymentEventHandler(bonusService)

	rabbitClient := messaging.NewClient(messaging.Config{
		URL:            cfg.AMQP.URL,
		Queue:          cfg.AMQP.PaymentQueue,
		RetryCount:     cfg.AMQP.RetryCount,
		RetryDelay:     cfg.AMQP.RetryDelay,
		ReconnectDelay: cfg.AMQP.ReconnectDelay,
	})
	if err := rabbitClient.Connect(); err != nil {
		logrus.Errorf("RabbitMQ connection failed, retrying in background: %v", err)
		go rabbitClient.Redial()
	}
	defer rabbitClient.Close()

	// The consumer starts regardless of the initial connection outcome; its
	// subscribe loop picks the queue up as soon as a redial lands.
	consumer := messaging.NewConsumer(rabbitClient, cfg.AMQP.ConsumerName, cfg.AMQP.ConsumerRetryWait)
	go func() {
		logrus.Infof("🐰 Consuming payment events from queue %s (accrual rate %.2f%%)",
			cfg.AMQP.PaymentQueue, cfg.Bonus.AccrualRate*100)
		if err := consumer.Consume(ctx, eventHandler.Handle); err != nil && !errors.Is(err, context.Canceled) {
			logrus.Errorf("Consumer stopped: %v", err)
		}
	}()

	app := setupFiberApp()
	setupRoutes(app, bonusHandler)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logrus.Info("🛑 Bonus Service shutting down...")
		cancel()
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("Shutdown error: %v", err)
		}
	}()

	logrus.Infof("🌍 Bonus Service listening on :%s", cfg.APP.BonusPort)

	if err := app.Listen(":" + cfg.APP.BonusPort); err != nil {
		logrus.Fatalf("Server error: %v", err)
	}
}

func initBonusRepository(ctx context.Context, cfg *config.Config) (repository.BonusRepository, error) {
	if cfg.Redis.BonusStorage != "redis" {
		logrus.Info("Using in-memory bonus storage")
		return repository.NewMemoryBonusRepository(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping error: %v", err)
	}

	logrus.Infof("✅ Connected to redis at %s", cfg.Redis.Addr)
	return repository.NewRedisBonusRepository(ctx, client)
}

func setupFiberApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Bonus Service v1.0",
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

func setupRoutes(app *fiber.App, bonusHandler *handlers.BonusHandler) {
	app.Get("/health", bonusHandler.HealthCheck)

	api := app.Group("/api")
	bonuses := api.Group("/bonuses")
	bonuses.Get("/balance/:user_id", bonusHandler.GetBalance)
	bonuses.Post("/spend", bonusHandler.SpendBonuses)
	bonuses.Post("/promocodes/apply", bonusHandler.ApplyPromocode)

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
