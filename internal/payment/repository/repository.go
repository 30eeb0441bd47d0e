package repository

import (
	"errors"

	"github.com/car-detailing-platform/payment-pipeline/internal/payment/domain"
)

var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepository is the persistence boundary for payments. The default
// deployment is the in-memory store; the postgres implementation exists for
// durable deployments and shares the same contract.
type PaymentRepository interface {
	Create(payment *domain.Payment) error
	GetByID(paymentID string) (*domain.Payment, error)
	Update(payment *domain.Payment) error
	OrderPaid(orderID string) (bool, error)
}
