package repository

import (
	"errors"

	"github.com/car-detailing-platform/payment-pipeline/internal/bonus/domain"
)

var (
	ErrInsufficientBonuses = errors.New("insufficient bonuses")
	ErrPromocodeNotFound   = errors.New("promocode not found or inactive")
)

// BonusRepository is the storage boundary for balances and promocodes. The
// consumer's message loop is the only writer of accruals, so backends do not
// need cross-process coordination; in-memory is the default, redis the
// durable alternative.
type BonusRepository interface {
	GetUserBalance(userID string) (float64, error)
	AddBonuses(userID string, amount float64) (float64, error)
	SpendBonuses(userID string, amount float64) (float64, error)
	FindPromocode(code string) (*domain.Promocode, error)
}
