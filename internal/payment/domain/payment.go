package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment is one settlement attempt for an order. It is created pending,
// transitions exactly once to a terminal status, and is never deleted.
type Payment struct {
	ID              string        `json:"payment_id" db:"id"`
	OrderID         string        `json:"order_id" db:"order_id"`
	UserID          string        `json:"user_id" db:"user_id"`
	Amount          float64       `json:"amount" db:"amount"`
	Currency        string        `json:"currency" db:"currency"`
	PaymentMethod   string        `json:"payment_method" db:"payment_method"`
	Status          PaymentStatus `json:"status" db:"status"`
	ConfirmationURL string        `json:"confirmation_url" db:"confirmation_url"`
	FailureReason   string        `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	PaidAt          *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
}

func NewPayment(orderID, userID string, amount float64, currency, paymentMethod string) *Payment {
	id := fmt.Sprintf("pay_%s", uuid.New().String()[:8])

	return &Payment{
		ID:              id,
		OrderID:         orderID,
		UserID:          userID,
		Amount:          amount,
		Currency:        currency,
		PaymentMethod:   paymentMethod,
		Status:          PaymentStatusPending,
		ConfirmationURL: fmt.Sprintf("https://payment.gateway/confirm?token=%s", id),
		CreatedAt:       time.Now(),
	}
}

// MarkSucceeded moves a pending payment to succeeded. Terminal statuses are
// never reversed.
func (p *Payment) MarkSucceeded(paidAt time.Time) error {
	if p.Status != PaymentStatusPending {
		return fmt.Errorf("payment %s is already %s", p.ID, p.Status)
	}
	p.Status = PaymentStatusSucceeded
	p.PaidAt = &paidAt
	return nil
}

func (p *Payment) MarkFailed(reason string, failedAt time.Time) error {
	if p.Status != PaymentStatusPending {
		return fmt.Errorf("payment %s is already %s", p.ID, p.Status)
	}
	p.Status = PaymentStatusFailed
	p.FailureReason = reason
	p.PaidAt = &failedAt
	return nil
}

func (p *Payment) IsTerminal() bool {
	return p.Status != PaymentStatusPending
}
