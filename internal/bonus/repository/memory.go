package repository

import (
	"fmt"
	"sync"

	"github.com/car-detailing-platform/payment-pipeline/internal/bonus/domain"
)

// MemoryBonusRepository keeps balances in a process-local map, created at
// zero on first reference, plus the seeded promocode catalog.
type MemoryBonusRepository struct {
	mu         sync.RWMutex
	balances   map[string]float64
	promocodes []domain.Promocode
}

func NewMemoryBonusRepository() *MemoryBonusRepository {
	return &MemoryBonusRepository{
		balances:   make(map[string]float64),
		promocodes: domain.SeedPromocodes(),
	}
}

func (r *MemoryBonusRepository) GetUserBalance(userID string) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.balances[userID], nil
}

func (r *MemoryBonusRepository) AddBonuses(userID string, amount float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	newBalance := r.balances[userID] + amount
	r.balances[userID] = newBalance
	return newBalance, nil
}

func (r *MemoryBonusRepository) SpendBonuses(userID string, amount float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.balances[userID]
	if current < amount {
		return 0, fmt.Errorf("%w: balance %.2f, requested %.2f", ErrInsufficientBonuses, current, amount)
	}

	newBalance := current - amount
	r.balances[userID] = newBalance
	return newBalance, nil
}

func (r *MemoryBonusRepository) FindPromocode(code string) (*domain.Promocode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, promo := range r.promocodes {
		if promo.Code == code && promo.Active {
			found := promo
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPromocodeNotFound, code)
}
