package service

import (
	"math"

	"github.com/car-detailing-platform/payment-pipeline/internal/bonus/repository"
	"github.com/sirupsen/logrus"
)

// BonusService applies the loyalty rules: accrual of a configured fraction of
// every settled payment, explicit spends, and promocode lookups.
type BonusService struct {
	bonusRepo   repository.BonusRepository
	accrualRate float64
}

func NewBonusService(bonusRepo repository.BonusRepository, accrualRate float64) *BonusService {
	return &BonusService{
		bonusRepo:   bonusRepo,
		accrualRate: accrualRate,
	}
}

// AccrueBonuses credits rate × paymentAmount, rounded to currency precision,
// to the user's balance. There is no dedup key on the completion event, so a
// redelivered event credits again; that is the pipeline's documented
// behavior.
func (s *BonusService) AccrueBonuses(userID, orderID string, paymentAmount float64) (float64, error) {
	bonuses := roundToKopecks(paymentAmount * s.accrualRate)

	newBalance, err := s.bonusRepo.AddBonuses(userID, bonuses)
	if err != nil {
		return 0, err
	}

	logrus.Infof("Accrued %.2f bonuses to user %s for order %s, new balance %.2f",
		bonuses, userID, orderID, newBalance)
	return bonuses, nil
}

func (s *BonusService) GetBalance(userID string) (float64, error) {
	return s.bonusRepo.GetUserBalance(userID)
}

// SpendBonuses debits the user's balance, rejecting overdrafts.
func (s *BonusService) SpendBonuses(userID, orderID string, amount float64) (float64, error) {
	newBalance, err := s.bonusRepo.SpendBonuses(userID, amount)
	if err != nil {
		return 0, err
	}

	logrus.Infof("User %s spent %.2f bonuses for order %s, new balance %.2f",
		userID, amount, orderID, newBalance)
	return newBalance, nil
}

// ApplyPromocode resolves the discount for an active promocode.
func (s *BonusService) ApplyPromocode(orderID, code string) (float64, error) {
	promo, err := s.bonusRepo.FindPromocode(code)
	if err != nil {
		logrus.Warnf("Promocode %q rejected for order %s: %v", code, orderID, err)
		return 0, err
	}

	logrus.Infof("Promocode %q applied to order %s, discount %.2f", code, orderID, promo.DiscountAmount)
	return promo.DiscountAmount, nil
}

func roundToKopecks(amount float64) float64 {
	return math.Round(amount*100) / 100
}
