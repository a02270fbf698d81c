package service

import (
	"context"
	"fmt"
	"time"

	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/repository"
)

// HasConflict проверяет пересечение окна [start, end) с активными бронированиями техники.
// Отменённые бронирования не учитываются.
func HasConflict(ctx context.Context, bookings repository.BookingStore, tractorID int64, start, end time.Time) (bool, error) {
	overlap, err := bookings.HasOverlap(ctx, tractorID, start, end, model.ActiveBookingStatuses)
	if err != nil {
		return false, fmt.Errorf("check conflict: %w", err)
	}
	return overlap, nil
}
