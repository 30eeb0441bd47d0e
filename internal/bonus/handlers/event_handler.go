package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/car-detailing-platform/payment-pipeline/internal/bonus/service"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// paymentSucceededMessage is the inbound view of the wire contract. Amount is
// a pointer so a missing field is distinguishable from a zero amount.
type paymentSucceededMessage struct {
	OrderID string   `json:"order_id"`
	UserID  string   `json:"user_id"`
	Amount  *float64 `json:"amount"`
}

func (m paymentSucceededMessage) validate() error {
	if m.OrderID == "" {
		return fmt.Errorf("missing order_id")
	}
	if m.UserID == "" {
		return fmt.Errorf("missing user_id")
	}
	if m.Amount == nil {
		return fmt.Errorf("missing amount")
	}
	return nil
}

// PaymentEventHandler processes one completion event per delivery.
//
// Malformed messages are acknowledged and discarded so a poison message
// cannot loop forever. When the accrual itself fails the delivery is left
// unacknowledged, neither acked nor rejected, and the broker decides its
// fate.
type PaymentEventHandler struct {
	bonusService *service.BonusService
}

func NewPaymentEventHandler(bonusService *service.BonusService) *PaymentEventHandler {
	return &PaymentEventHandler{
		bonusService: bonusService,
	}
}

func (h *PaymentEventHandler) Handle(msg amqp.Delivery) {
	var event paymentSucceededMessage

	if err := json.Unmarshal(msg.Body, &event); err != nil {
		logrus.Errorf("Discarding malformed payment event: %v", err)
		h.ack(msg)
		return
	}

	if err := event.validate(); err != nil {
		logrus.Errorf("Discarding invalid payment event: %v, body=%s", err, msg.Body)
		h.ack(msg)
		return
	}

	if _, err := h.bonusService.AccrueBonuses(event.UserID, event.OrderID, *event.Amount); err != nil {
		logrus.Errorf("Bonus accrual failed for order %s, delivery left unacked: %v", event.OrderID, err)
		return
	}

	h.ack(msg)
}

func (h *PaymentEventHandler) ack(msg amqp.Delivery) {
	if err := msg.Ack(false); err != nil {
		logrus.Errorf("Delivery ack error: %v", err)
	}
}
