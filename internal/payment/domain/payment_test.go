package domain_test

import (
	"testing"
	"time"

	"github.com/car-detailing-platform/payment-pipeline/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkSucceeded(t *testing.T) {
	payment := domain.NewPayment("o-1", "u-1", 5000, "RUB", "card")
	paidAt := time.Now()

	require.NoError(t, payment.MarkSucceeded(paidAt))

	assert.Equal(t, domain.PaymentStatusSucceeded, payment.Status)
	require.NotNil(t, payment.PaidAt)
	assert.Equal(t, paidAt, *payment.PaidAt)
	assert.True(t, payment.IsTerminal())
}

func TestMarkFailed(t *testing.T) {
	payment := domain.NewPayment("o-1", "u-1", 5000, "RUB", "card")

	require.NoError(t, payment.MarkFailed("Insufficient funds", time.Now()))

	assert.Equal(t, domain.PaymentStatusFailed, payment.Status)
	assert.Equal(t, "Insufficient funds", payment.FailureReason)
	assert.NotNil(t, payment.PaidAt)
	assert.True(t, payment.IsTerminal())
}

// Terminal statuses are never reversed or overwritten.
func TestTerminalTransitionsAreFinal(t *testing.T) {
	succeeded := domain.NewPayment("o-1", "u-1", 5000, "RUB", "card")
	require.NoError(t, succeeded.MarkSucceeded(time.Now()))
	assert.Error(t, succeeded.MarkSucceeded(time.Now()))
	assert.Error(t, succeeded.MarkFailed("late decline", time.Now()))
	assert.Equal(t, domain.PaymentStatusSucceeded, succeeded.Status)

	failed := domain.NewPayment("o-2", "u-1", 5000, "RUB", "card")
	require.NoError(t, failed.MarkFailed("declined", time.Now()))
	assert.Error(t, failed.MarkSucceeded(time.Now()))
	assert.Equal(t, domain.PaymentStatusFailed, failed.Status)
}
