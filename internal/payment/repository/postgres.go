package repository

import (
	"database/sql"
	"fmt"

	"github.com/car-detailing-platform/payment-pipeline/internal/payment/domain"
	_ "github.com/lib/pq"
)

// PostgresPaymentRepository is the durable backend, selected with
// PAYMENT_STORAGE=postgres.
type PostgresPaymentRepository struct {
	db *sql.DB
}

func NewPostgresPaymentRepository(db *sql.DB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

// EnsureSchema creates the payments table if it does not exist yet.
func (r *PostgresPaymentRepository) EnsureSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS payments (
			id VARCHAR(64) PRIMARY KEY,
			order_id VARCHAR(64) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			amount NUMERIC(12, 2) NOT NULL,
			currency VARCHAR(8) NOT NULL,
			payment_method VARCHAR(32) NOT NULL,
			status VARCHAR(16) NOT NULL,
			confirmation_url TEXT NOT NULL,
			failure_reason TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			paid_at TIMESTAMPTZ
		)
	`

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("payments schema error: %v", err)
	}
	return nil
}

func (r *PostgresPaymentRepository) Create(payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, order_id, user_id, amount, currency, payment_method,
			status, confirmation_url, failure_reason, created_at, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(
		query,
		payment.ID,
		payment.OrderID,
		payment.UserID,
		payment.Amount,
		payment.Currency,
		payment.PaymentMethod,
		payment.Status,
		payment.ConfirmationURL,
		payment.FailureReason,
		payment.CreatedAt,
		payment.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("payment create error: %v", err)
	}

	return nil
}

func (r *PostgresPaymentRepository) GetByID(paymentID string) (*domain.Payment, error) {
	query := `
		SELECT id, order_id, user_id, amount, currency, payment_method,
			   status, confirmation_url, failure_reason, created_at, paid_at
		FROM payments
		WHERE id = $1
	`

	payment := &domain.Payment{}
	var failureReason sql.NullString
	var paidAt sql.NullTime

	err := r.db.QueryRow(query, paymentID).Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.UserID,
		&payment.Amount,
		&payment.Currency,
		&payment.PaymentMethod,
		&payment.Status,
		&payment.ConfirmationURL,
		&failureReason,
		&payment.CreatedAt,
		&paidAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment fetch error: %v", err)
	}

	if failureReason.Valid {
		payment.FailureReason = failureReason.String
	}
	if paidAt.Valid {
		payment.PaidAt = &paidAt.Time
	}

	return payment, nil
}

func (r *PostgresPaymentRepository) Update(payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET status = $2, failure_reason = $3, paid_at = $4
		WHERE id = $1
	`

	result, err := r.db.Exec(
		query,
		payment.ID,
		payment.Status,
		payment.FailureReason,
		payment.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("payment update error: %v", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrPaymentNotFound
	}

	return nil
}

func (r *PostgresPaymentRepository) OrderPaid(orderID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM payments WHERE order_id = $1 AND status = $2
		)
	`

	var paid bool
	if err := r.db.QueryRow(query, orderID, domain.PaymentStatusSucceeded).Scan(&paid); err != nil {
		return false, fmt.Errorf("order paid check error: %v", err)
	}

	return paid, nil
}
