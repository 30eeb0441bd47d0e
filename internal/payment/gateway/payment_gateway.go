package gateway

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SettlementGateway is the external payment provider boundary. The pipeline
// ships with a mock that settles everything, but the interface keeps the
// failed branch reachable.
type SettlementGateway interface {
	Settle(request SettlementRequest) (*SettlementResult, error)
}

type SettlementRequest struct {
	PaymentID     string  `json:"payment_id"`
	OrderID       string  `json:"order_id"`
	UserID        string  `json:"user_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"payment_method"`
}

type SettlementResult struct {
	Success       bool      `json:"success"`
	TransactionID string    `json:"transaction_id,omitempty"`
	ProcessedAt   time.Time `json:"processed_at"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

// MockSettlementGateway simulates an external provider. FailureRate is the
// probability of a declined settlement; the default deployment runs with 0.
type MockSettlementGateway struct {
	FailureRate float64
}

func NewMockSettlementGateway(failureRate float64) *MockSettlementGateway {
	return &MockSettlementGateway{
		FailureRate: failureRate,
	}
}

func (m *MockSettlementGateway) Settle(request SettlementRequest) (*SettlementResult, error) {
	logrus.Infof("Mock gateway: settling payment %s for order %s, amount %.2f %s",
		request.PaymentID, request.OrderID, request.Amount, request.Currency)

	if rand.Float64() < m.FailureRate {
		return &SettlementResult{
			Success:       false,
			ProcessedAt:   time.Now(),
			FailureReason: "Insufficient funds",
		}, nil
	}

	return &SettlementResult{
		Success:       true,
		TransactionID: fmt.Sprintf("TXN_%s", uuid.New().String()[:8]),
		ProcessedAt:   time.Now(),
	}, nil
}
