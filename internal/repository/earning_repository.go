package repository

import (
	"context"
	"fmt"

	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/repository/base"
)

type EarningRepository struct {
	*base.Repository
}

func NewEarningRepository(q base.Querier) *EarningRepository {
	return &EarningRepository{Repository: base.NewRepository(q)}
}

// GetByBookingID получает доход владельца по бронированию
func (r *EarningRepository) GetByBookingID(ctx context.Context, bookingID int64) (*model.OwnerEarning, error) {
	query := `
		SELECT id, owner_id, booking_id, gross_amount, platform_fee, net_amount, created_at
		FROM owner_earnings
		WHERE booking_id = $1
	`

	var earning model.OwnerEarning
	err := r.QueryRow(ctx, query, bookingID).Scan(
		&earning.ID,
		&earning.OwnerID,
		&earning.BookingID,
		&earning.GrossAmount,
		&earning.PlatformFee,
		&earning.NetAmount,
		&earning.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get owner earning: %w", err)
	}

	return &earning, nil
}

// Create создаёт запись о доходе владельца
func (r *EarningRepository) Create(ctx context.Context, earning *model.OwnerEarning) error {
	query := `
		INSERT INTO owner_earnings (owner_id, booking_id, gross_amount, platform_fee, net_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		earning.OwnerID,
		earning.BookingID,
		earning.GrossAmount,
		earning.PlatformFee,
		earning.NetAmount,
	).Scan(&earning.ID, &earning.CreatedAt)

	if err != nil {
		return fmt.Errorf("create owner earning: %w", err)
	}

	return nil
}
