package handlers

import (
	"errors"

	"github.com/car-detailing-platform/payment-pipeline/internal/httpx"
	"github.com/car-detailing-platform/payment-pipeline/internal/payment/repository"
	"github.com/car-detailing-platform/payment-pipeline/internal/payment/service"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// BrokerHealth lets the health endpoint report broker connectivity without
// dragging the whole messaging client into the handler.
type BrokerHealth interface {
	IsConnected() bool
}

type PaymentHandler struct {
	paymentService *service.PaymentService
	broker         BrokerHealth
	defaultAmount  float64
}

func NewPaymentHandler(paymentService *service.PaymentService, broker BrokerHealth, defaultAmount float64) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		broker:         broker,
		defaultAmount:  defaultAmount,
	}
}

// CreatePayment initiates a payment for an order. The response carries the
// pending record; settlement happens in the background.
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	var request InitiatePaymentRequest
	if err := c.BodyParser(&request); err != nil {
		return httpx.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
	}

	amount := request.Amount
	if amount == 0 {
		amount = h.defaultAmount
	}

	payment, err := h.paymentService.Initiate(request.OrderID, request.UserID, amount, request.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return httpx.BadRequestResponse(c, err.Error(), map[string]interface{}{
				"order_id": request.OrderID,
			})
		case errors.Is(err, service.ErrOrderAlreadyPaid):
			return httpx.ConflictResponse(c, "Order already paid", map[string]interface{}{
				"order_id": request.OrderID,
			})
		default:
			logrus.Errorf("Payment initiation error: %v", err)
			return httpx.InternalServerErrorResponse(c, "Payment initiation failed")
		}
	}

	return httpx.CreatedResponse(c, "Payment created", PaymentResponse{
		PaymentID:       payment.ID,
		OrderID:         payment.OrderID,
		Status:          string(payment.Status),
		Amount:          payment.Amount,
		Currency:        payment.Currency,
		ConfirmationURL: payment.ConfirmationURL,
	})
}

func (h *PaymentHandler) GetPaymentStatus(c *fiber.Ctx) error {
	paymentID := c.Params("payment_id")

	payment, err := h.paymentService.GetPayment(paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return httpx.NotFoundResponse(c, "Payment not found")
		}
		logrus.Errorf("Payment status fetch error: %v", err)
		return httpx.InternalServerErrorResponse(c, "Payment status fetch failed")
	}

	return httpx.SuccessResponse(c, "Payment status retrieved", PaymentStatusResponse{
		PaymentID: payment.ID,
		Status:    string(payment.Status),
		PaidAt:    payment.PaidAt,
	})
}

func (h *PaymentHandler) HealthCheck(c *fiber.Ctx) error {
	return httpx.SuccessResponse(c, "Payment service is healthy", map[string]interface{}{
		"service":            "payment-service",
		"status":             "healthy",
		"rabbitmq_connected": h.broker.IsConnected(),
	})
}
