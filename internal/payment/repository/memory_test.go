package repository_test

import (
	"testing"
	"time"

	"github.com/car-detailing-platform/payment-pipeline/internal/payment/domain"
	"github.com/car-detailing-platform/payment-pipeline/internal/payment/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	repo := repository.NewMemoryPaymentRepository()

	payment := domain.NewPayment("o-1", "u-1", 5000, "RUB", "card")
	require.NoError(t, repo.Create(payment))

	stored, err := repo.GetByID(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, stored.ID)
	assert.Equal(t, domain.PaymentStatusPending, stored.Status)
}

func TestMemoryRepository_CreateDuplicate(t *testing.T) {
	repo := repository.NewMemoryPaymentRepository()

	payment := domain.NewPayment("o-1", "u-1", 5000, "RUB", "card")
	require.NoError(t, repo.Create(payment))

	err := repo.Create(payment)
	assert.Error(t, err)
}

func TestMemoryRepository_GetNotFound(t *testing.T) {
	repo := repository.NewMemoryPaymentRepository()

	payment, err := repo.GetByID("pay_missing1")

	assert.Nil(t, payment)
	assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
}

func TestMemoryRepository_Update(t *testing.T) {
	repo := repository.NewMemoryPaymentRepository()

	payment := domain.NewPayment("o-1", "u-1", 5000, "RUB", "card")
	require.NoError(t, repo.Create(payment))

	require.NoError(t, payment.MarkSucceeded(time.Now()))
	require.NoError(t, repo.Update(payment))

	stored, err := repo.GetByID(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSucceeded, stored.Status)
	assert.NotNil(t, stored.PaidAt)
}

func TestMemoryRepository_UpdateNotFound(t *testing.T) {
	repo := repository.NewMemoryPaymentRepository()

	payment := domain.NewPayment("o-1", "u-1", 5000, "RUB", "card")

	err := repo.Update(payment)
	assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
}

// A stored record is a copy: mutating the returned aggregate must not leak
// into the repository without an Update.
func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := repository.NewMemoryPaymentRepository()

	payment := domain.NewPayment("o-1", "u-1", 5000, "RUB", "card")
	require.NoError(t, repo.Create(payment))

	loaded, err := repo.GetByID(payment.ID)
	require.NoError(t, err)
	require.NoError(t, loaded.MarkSucceeded(time.Now()))

	stored, err := repo.GetByID(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, stored.Status)
}

func TestMemoryRepository_OrderPaid(t *testing.T) {
	repo := repository.NewMemoryPaymentRepository()

	payment := domain.NewPayment("o-1", "u-1", 5000, "RUB", "card")
	require.NoError(t, repo.Create(payment))

	paid, err := repo.OrderPaid("o-1")
	require.NoError(t, err)
	assert.False(t, paid, "pending payment must not count as paid")

	require.NoError(t, payment.MarkSucceeded(time.Now()))
	require.NoError(t, repo.Update(payment))

	paid, err = repo.OrderPaid("o-1")
	require.NoError(t, err)
	assert.True(t, paid)

	paid, err = repo.OrderPaid("o-2")
	require.NoError(t, err)
	assert.False(t, paid)
}
