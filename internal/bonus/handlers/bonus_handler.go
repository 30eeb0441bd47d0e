package handlers

import (
	"errors"

	"github.com/car-detailing-platform/payment-pipeline/internal/bonus/repository"
	"github.com/car-detailing-platform/payment-pipeline/internal/bonus/service"
	"github.com/car-detailing-platform/payment-pipeline/internal/httpx"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// BonusHandler is the small HTTP surface around the consumer: balance reads,
// explicit spends and promocode application.
type BonusHandler struct {
	bonusService *service.BonusService
}

func NewBonusHandler(bonusService *service.BonusService) *BonusHandler {
	return &BonusHandler{
		bonusService: bonusService,
	}
}

func (h *BonusHandler) GetBalance(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if userID == "" {
		return httpx.BadRequestResponse(c, "user_id is required", nil)
	}

	balance, err := h.bonusService.GetBalance(userID)
	if err != nil {
		logrus.Errorf("Balance fetch error: %v", err)
		return httpx.InternalServerErrorResponse(c, "Balance fetch failed")
	}

	return httpx.SuccessResponse(c, "Balance retrieved", BalanceResponse{
		UserID:  userID,
		Balance: balance,
	})
}

func (h *BonusHandler) SpendBonuses(c *fiber.Ctx) error {
	var request SpendBonusesRequest
	if err := c.BodyParser(&request); err != nil {
		return httpx.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if request.UserID == "" || request.OrderID == "" || request.Amount <= 0 {
		return httpx.BadRequestResponse(c, "user_id, order_id and a positive amount are required", nil)
	}

	newBalance, err := h.bonusService.SpendBonuses(request.UserID, request.OrderID, request.Amount)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBonuses) {
			return httpx.BadRequestResponse(c, err.Error(), map[string]interface{}{
				"user_id": request.UserID,
			})
		}
		logrus.Errorf("Bonus spend error: %v", err)
		return httpx.InternalServerErrorResponse(c, "Bonus spend failed")
	}

	return httpx.SuccessResponse(c, "Bonuses spent", SpendBonusesResponse{
		OrderID:      request.OrderID,
		BonusesSpent: request.Amount,
		NewBalance:   newBalance,
	})
}

func (h *BonusHandler) ApplyPromocode(c *fiber.Ctx) error {
	var request ApplyPromocodeRequest
	if err := c.BodyParser(&request); err != nil {
		return httpx.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if request.OrderID == "" || request.Promocode == "" {
		return httpx.BadRequestResponse(c, "order_id and promocode are required", nil)
	}

	discount, err := h.bonusService.ApplyPromocode(request.OrderID, request.Promocode)
	if err != nil {
		if errors.Is(err, repository.ErrPromocodeNotFound) {
			return httpx.NotFoundResponse(c, err.Error())
		}
		logrus.Errorf("Promocode apply error: %v", err)
		return httpx.InternalServerErrorResponse(c, "Promocode apply failed")
	}

	return httpx.SuccessResponse(c, "Promocode applied", PromocodeResponse{
		OrderID:        request.OrderID,
		Promocode:      request.Promocode,
		Status:         "applied",
		DiscountAmount: discount,
	})
}

func (h *BonusHandler) HealthCheck(c *fiber.Ctx) error {
	return httpx.SuccessResponse(c, "Bonus service is healthy", map[string]interface{}{
		"service": "bonus-service",
		"status":  "healthy",
	})
}
