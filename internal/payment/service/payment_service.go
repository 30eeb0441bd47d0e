package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/car-detailing-platform/payment-pipeline/internal/events"
	"github.com/car-detailing-platform/payment-pipeline/internal/payment/domain"
	"github.com/car-detailing-platform/payment-pipeline/internal/payment/gateway"
	"github.com/car-detailing-platform/payment-pipeline/internal/payment/repository"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidRequest   = errors.New("invalid payment request")
	ErrOrderAlreadyPaid = errors.New("order already paid")
)

// EventPublisher publishes the completion event after a successful
// settlement.
type EventPublisher interface {
	PublishPaymentSucceeded(event events.PaymentSucceededEvent) error
}

// PaymentService accepts settlement requests and runs the settlement itself
// in a detached task. The caller gets the pending payment back immediately;
// the task transitions the record to a terminal status after SettlementDelay
// and, on success only, publishes the completion event.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	gateway     gateway.SettlementGateway
	publisher   EventPublisher

	settlementDelay time.Duration
	currency        string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	settlementGateway gateway.SettlementGateway,
	publisher EventPublisher,
	settlementDelay time.Duration,
	currency string,
) *PaymentService {
	ctx, cancel := context.WithCancel(context.Background())

	return &PaymentService{
		paymentRepo:     paymentRepo,
		gateway:         settlementGateway,
		publisher:       publisher,
		settlementDelay: settlementDelay,
		currency:        currency,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Initiate creates a pending payment and schedules its settlement. It does
// not wait for the settlement task.
func (s *PaymentService) Initiate(orderID, userID string, amount float64, paymentMethod string) (*domain.Payment, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order_id is required", ErrInvalidRequest)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}

	paid, err := s.paymentRepo.OrderPaid(orderID)
	if err != nil {
		return nil, fmt.Errorf("order paid check error: %v", err)
	}
	if paid {
		return nil, fmt.Errorf("%w: %s", ErrOrderAlreadyPaid, orderID)
	}

	payment := domain.NewPayment(orderID, userID, amount, s.currency, paymentMethod)

	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, fmt.Errorf("payment create error: %v", err)
	}

	logrus.Infof("Payment %s created for order %s with status pending", payment.ID, orderID)

	s.wg.Add(1)
	go s.settle(payment.ID)

	return payment, nil
}

func (s *PaymentService) GetPayment(paymentID string) (*domain.Payment, error) {
	return s.paymentRepo.GetByID(paymentID)
}

// settle is the detached settlement task. It sleeps for the configured delay
// without holding any lock, commits the terminal status, and then attempts
// the publish. The publish is fire-and-forget: when the broker is down the
// payment stays succeeded and the event is lost. That inconsistency is a
// property of this pipeline, not an oversight.
func (s *PaymentService) settle(paymentID string) {
	defer s.wg.Done()

	timer := time.NewTimer(s.settlementDelay)
	defer timer.Stop()

	select {
	case <-s.ctx.Done():
		logrus.Warnf("Settlement of payment %s cancelled by shutdown", paymentID)
		return
	case <-timer.C:
	}

	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		logrus.Errorf("Settlement of payment %s aborted: %v", paymentID, err)
		return
	}

	result, err := s.gateway.Settle(gateway.SettlementRequest{
		PaymentID:     payment.ID,
		OrderID:       payment.OrderID,
		UserID:        payment.UserID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		PaymentMethod: payment.PaymentMethod,
	})
	if err != nil {
		s.failPayment(payment, fmt.Sprintf("Gateway error: %v", err))
		return
	}
	if !result.Success {
		s.failPayment(payment, result.FailureReason)
		return
	}

	if err := payment.MarkSucceeded(result.ProcessedAt); err != nil {
		logrus.Errorf("Payment %s transition error: %v", payment.ID, err)
		return
	}
	if err := s.paymentRepo.Update(payment); err != nil {
		logrus.Errorf("Payment %s status update error: %v", payment.ID, err)
		return
	}

	logrus.Infof("Payment %s settled, status succeeded", payment.ID)

	event := events.PaymentSucceededEvent{
		OrderID: payment.OrderID,
		UserID:  payment.UserID,
		Amount:  payment.Amount,
	}
	if err := s.publisher.PublishPaymentSucceeded(event); err != nil {
		logrus.Errorf("Payment %s succeeded but event publish failed, event lost: %v", payment.ID, err)
	}
}

func (s *PaymentService) failPayment(payment *domain.Payment, reason string) {
	if err := payment.MarkFailed(reason, time.Now()); err != nil {
		logrus.Errorf("Payment %s transition error: %v", payment.ID, err)
		return
	}
	if err := s.paymentRepo.Update(payment); err != nil {
		logrus.Errorf("Payment %s status update error: %v", payment.ID, err)
		return
	}
	logrus.Warnf("Payment %s settlement failed: %s", payment.ID, reason)
}

// Close cancels pending settlement timers and waits for in-flight tasks.
func (s *PaymentService) Close() {
	s.cancel()
	s.wg.Wait()
}
