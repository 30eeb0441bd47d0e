package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/car-detailing-platform/payment-pipeline/internal/bonus/domain"
	"github.com/redis/go-redis/v9"
)

const (
	balanceKeyPrefix = "bonus:balance:"
	promocodesKey    = "bonus:promocodes"
)

// RedisBonusRepository is the durable backend, selected with
// BONUS_STORAGE=redis. Balances are plain float values mutated with
// INCRBYFLOAT; promocodes live in one hash seeded at startup.
//
// The spend path is read-then-write: the consumer's message loop and the
// small HTTP surface are the only writers, one operation at a time per
// process, which is the serialization this pipeline is designed around.
type RedisBonusRepository struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisBonusRepository(ctx context.Context, client *redis.Client) (*RedisBonusRepository, error) {
	r := &RedisBonusRepository{
		client: client,
		ctx:    ctx,
	}
	if err := r.seedPromocodes(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RedisBonusRepository) seedPromocodes() error {
	for _, promo := range domain.SeedPromocodes() {
		if !promo.Active {
			continue
		}
		if err := r.client.HSetNX(r.ctx, promocodesKey, promo.Code,
			strconv.FormatFloat(promo.DiscountAmount, 'f', 2, 64)).Err(); err != nil {
			return fmt.Errorf("promocode seed error: %v", err)
		}
	}
	return nil
}

func (r *RedisBonusRepository) GetUserBalance(userID string) (float64, error) {
	value, err := r.client.Get(r.ctx, balanceKeyPrefix+userID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance fetch error: %v", err)
	}

	balance, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("balance parse error: %v", err)
	}
	return balance, nil
}

func (r *RedisBonusRepository) AddBonuses(userID string, amount float64) (float64, error) {
	newBalance, err := r.client.IncrByFloat(r.ctx, balanceKeyPrefix+userID, amount).Result()
	if err != nil {
		return 0, fmt.Errorf("balance accrual error: %v", err)
	}
	return newBalance, nil
}

func (r *RedisBonusRepository) SpendBonuses(userID string, amount float64) (float64, error) {
	current, err := r.GetUserBalance(userID)
	if err != nil {
		return 0, err
	}
	if current < amount {
		return 0, fmt.Errorf("%w: balance %.2f, requested %.2f", ErrInsufficientBonuses, current, amount)
	}

	newBalance, err := r.client.IncrByFloat(r.ctx, balanceKeyPrefix+userID, -amount).Result()
	if err != nil {
		return 0, fmt.Errorf("balance spend error: %v", err)
	}
	return newBalance, nil
}

func (r *RedisBonusRepository) FindPromocode(code string) (*domain.Promocode, error) {
	value, err := r.client.HGet(r.ctx, promocodesKey, code).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrPromocodeNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("promocode fetch error: %v", err)
	}

	discount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("promocode parse error: %v", err)
	}

	return &domain.Promocode{
		Code:           code,
		DiscountAmount: discount,
		Active:         true,
	}, nil
}
