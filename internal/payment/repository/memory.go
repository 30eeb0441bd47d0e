package repository

import (
	"fmt"
	"sync"

	"github.com/car-detailing-platform/payment-pipeline/internal/payment/domain"
)

// MemoryPaymentRepository keeps payments in a process-local map. It is the
// default backend: payments in this system are transient and retained only
// for status queries. Copies are stored and returned so the settlement task
// and HTTP readers never share a mutable record.
type MemoryPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]domain.Payment
}

func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{
		payments: make(map[string]domain.Payment),
	}
}

func (r *MemoryPaymentRepository) Create(payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[payment.ID]; exists {
		return fmt.Errorf("payment %s already exists", payment.ID)
	}

	r.payments[payment.ID] = *payment
	return nil
}

func (r *MemoryPaymentRepository) GetByID(paymentID string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, exists := r.payments[paymentID]
	if !exists {
		return nil, ErrPaymentNotFound
	}

	return &payment, nil
}

func (r *MemoryPaymentRepository) Update(payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[payment.ID]; !exists {
		return ErrPaymentNotFound
	}

	r.payments[payment.ID] = *payment
	return nil
}

func (r *MemoryPaymentRepository) OrderPaid(orderID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, payment := range r.payments {
		if payment.OrderID == orderID && payment.Status == domain.PaymentStatusSucceeded {
			return true, nil
		}
	}
	return false, nil
}
