package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/repository/base"
)

// ErrStaleBooking бронирование изменилось с момента чтения
var ErrStaleBooking = errors.New("booking was modified concurrently")

// ErrBookingOverlap сработал exclusion constraint на пересечение окон
var ErrBookingOverlap = errors.New("booking window overlaps an active booking")

const bookingColumns = `
	id, tractor_id, farmer_id, owner_id, status, start_time, end_time, hours,
	quoted_price_per_hour, total_base_price, total_addon_price, grand_total,
	surge_multiplier, commission_pct, commission_amount, owner_payout_amount,
	accepted_at, en_route_at, started_at, completed_at, farmer_confirmed_at, cancelled_at, paid_at,
	completion_confirmed_hours, farmer_note, owner_note, version, created_at, updated_at`

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(q base.Querier) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(q)}
}

// Create создаёт бронирование вместе с дополнительным оборудованием
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (
			tractor_id, farmer_id, owner_id, status, start_time, end_time, hours,
			quoted_price_per_hour, total_base_price, total_addon_price, grand_total,
			surge_multiplier, commission_pct, commission_amount, owner_payout_amount, farmer_note
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, version, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.TractorID,
		booking.FarmerID,
		booking.OwnerID,
		string(booking.Status),
		booking.StartTime,
		booking.EndTime,
		booking.Hours,
		booking.QuotedPricePerHour,
		booking.BaseTotal,
		booking.AddonTotal,
		booking.GrandTotal,
		booking.SurgeMultiplier,
		booking.CommissionPct,
		booking.CommissionAmount,
		booking.OwnerPayoutAmount,
		booking.FarmerNote,
	).Scan(&booking.ID, &booking.Version, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		if base.IsExclusionViolation(err) {
			return ErrBookingOverlap
		}
		return fmt.Errorf("create booking: %w", err)
	}

	addonQuery := `
		INSERT INTO booking_addons (booking_id, addon_listing_id, quantity, total_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	for i := range booking.Addons {
		addon := &booking.Addons[i]
		addon.BookingID = booking.ID

		err := r.QueryRow(ctx, addonQuery, addon.BookingID, addon.AddonListingID, addon.Quantity, addon.TotalPrice).
			Scan(&addon.ID, &addon.CreatedAt)
		if err != nil {
			return fmt.Errorf("create booking addon %d: %w", addon.AddonListingID, err)
		}
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// GetByIDForUpdate получает бронирование с блокировкой строки
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`

	booking, err := scanBooking(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock booking: %w", err)
	}

	return booking, nil
}

// Update сохраняет статус, этапы и заметки. Проверяет версию записи.
func (r *BookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	query := `
		UPDATE bookings
		SET status = $3,
			accepted_at = $4,
			en_route_at = $5,
			started_at = $6,
			completed_at = $7,
			farmer_confirmed_at = $8,
			cancelled_at = $9,
			paid_at = $10,
			completion_confirmed_hours = $11,
			owner_note = $12,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.ID,
		booking.Version,
		string(booking.Status),
		booking.AcceptedAt,
		booking.EnRouteAt,
		booking.StartedAt,
		booking.CompletedAt,
		booking.FarmerConfirmedAt,
		booking.CancelledAt,
		booking.PaidAt,
		booking.ConfirmedHours,
		booking.OwnerNote,
	).Scan(&booking.Version, &booking.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return ErrStaleBooking
		}
		return fmt.Errorf("update booking: %w", err)
	}

	return nil
}

// GetAddons получает дополнительное оборудование бронирования
func (r *BookingRepository) GetAddons(ctx context.Context, bookingID int64) ([]model.BookingAddon, error) {
	query := `
		SELECT id, booking_id, addon_listing_id, quantity, total_price, created_at
		FROM booking_addons
		WHERE booking_id = $1
		ORDER BY id
	`

	rows, err := r.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking addons: %w", err)
	}
	defer rows.Close()

	var addons []model.BookingAddon
	for rows.Next() {
		var addon model.BookingAddon
		err := rows.Scan(
			&addon.ID,
			&addon.BookingID,
			&addon.AddonListingID,
			&addon.Quantity,
			&addon.TotalPrice,
			&addon.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking addon: %w", err)
		}
		addons = append(addons, addon)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking addons: %w", err)
	}

	return addons, nil
}

// HasOverlap проверяет есть ли бронирование техники с пересекающимся окном [start, end)
func (r *BookingRepository) HasOverlap(ctx context.Context, tractorID int64, start, end time.Time, statuses []model.BookingStatus) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE tractor_id = $1
				AND status = ANY($2)
				AND start_time < $3
				AND end_time > $4
		)
	`

	var exists bool
	err := r.QueryRow(ctx, query, tractorID, model.StatusStrings(statuses), end, start).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check booking overlap: %w", err)
	}

	return exists, nil
}

// CountInPostalArea считает бронирования техники в почтовом районе
func (r *BookingRepository) CountInPostalArea(ctx context.Context, postalArea string, statuses []model.BookingStatus) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings b
		JOIN listings l ON l.id = b.tractor_id
		WHERE l.postal_area = $1 AND b.status = ANY($2)
	`

	var count int
	err := r.QueryRow(ctx, query, postalArea, model.StatusStrings(statuses)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count bookings in postal area: %w", err)
	}

	return count, nil
}

// ListByFarmer получает все бронирования фермера, новые первыми
func (r *BookingRepository) ListByFarmer(ctx context.Context, farmerID int64) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE farmer_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, farmerID)
}

// ListByOwner получает все бронирования техники владельца, новые первыми
func (r *BookingRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, ownerID)
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]*model.Booking, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

// scanBooking читает строку и нормализует статус (requested, in_progress)
func scanBooking(row pgx.Row) (*model.Booking, error) {
	var booking model.Booking
	var rawStatus string

	err := row.Scan(
		&booking.ID,
		&booking.TractorID,
		&booking.FarmerID,
		&booking.OwnerID,
		&rawStatus,
		&booking.StartTime,
		&booking.EndTime,
		&booking.Hours,
		&booking.QuotedPricePerHour,
		&booking.BaseTotal,
		&booking.AddonTotal,
		&booking.GrandTotal,
		&booking.SurgeMultiplier,
		&booking.CommissionPct,
		&booking.CommissionAmount,
		&booking.OwnerPayoutAmount,
		&booking.AcceptedAt,
		&booking.EnRouteAt,
		&booking.StartedAt,
		&booking.CompletedAt,
		&booking.FarmerConfirmedAt,
		&booking.CancelledAt,
		&booking.PaidAt,
		&booking.ConfirmedHours,
		&booking.FarmerNote,
		&booking.OwnerNote,
		&booking.Version,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	status, err := model.ParseBookingStatus(rawStatus)
	if err != nil {
		return nil, fmt.Errorf("booking %d: %w", booking.ID, err)
	}
	booking.Status = status

	return &booking, nil
}
