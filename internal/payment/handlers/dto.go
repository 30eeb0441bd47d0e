package handlers

import "time"

type InitiatePaymentRequest struct {
	OrderID       string  `json:"order_id"`
	UserID        string  `json:"user_id"`
	PaymentMethod string  `json:"payment_method"`
	Amount        float64 `json:"amount"`
}

type PaymentResponse struct {
	PaymentID       string  `json:"payment_id"`
	OrderID         string  `json:"order_id"`
	Status          string  `json:"status"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	ConfirmationURL string  `json:"confirmation_url"`
}

type PaymentStatusResponse struct {
	PaymentID string     `json:"payment_id"`
	Status    string     `json:"status"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}
