package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/repository/base"
)

// ErrPaymentExists платёж по бронированию уже создан
var ErrPaymentExists = errors.New("payment for booking already exists")

type PaymentRepository struct {
	*base.Repository
}

func NewPaymentRepository(q base.Querier) *PaymentRepository {
	return &PaymentRepository{Repository: base.NewRepository(q)}
}

// GetByBookingID получает платёж по бронированию
func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID int64) (*model.Payment, error) {
	query := `
		SELECT id, booking_id, receipt_number, amount, farmer_id, owner_id, status, created_at
		FROM payments
		WHERE booking_id = $1
	`

	var payment model.Payment
	var status string
	err := r.QueryRow(ctx, query, bookingID).Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.ReceiptNumber,
		&payment.Amount,
		&payment.FarmerID,
		&payment.OwnerID,
		&status,
		&payment.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by booking: %w", err)
	}

	payment.Status = model.PaymentStatus(status)
	return &payment, nil
}

// NextReceiptSequence выдаёт следующий номер квитанции за день (UTC).
// Строка счётчика остаётся заблокированной до конца транзакции,
// поэтому номера не повторяются и идут без пропусков.
func (r *PaymentRepository) NextReceiptSequence(ctx context.Context, day time.Time) (int, error) {
	query := `
		INSERT INTO receipt_counters (day, last_seq)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET last_seq = receipt_counters.last_seq + 1
		RETURNING last_seq
	`

	utc := day.UTC()
	date := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)

	var seq int
	if err := r.QueryRow(ctx, query, date).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next receipt sequence: %w", err)
	}

	return seq, nil
}

// Create создаёт платёж
func (r *PaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (booking_id, receipt_number, amount, farmer_id, owner_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		payment.BookingID,
		payment.ReceiptNumber,
		payment.Amount,
		payment.FarmerID,
		payment.OwnerID,
		string(payment.Status),
	).Scan(&payment.ID, &payment.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return ErrPaymentExists
		}
		return fmt.Errorf("create payment: %w", err)
	}

	return nil
}
