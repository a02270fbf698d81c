package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/repository"
)

var (
	SurgeNone = decimal.RequireFromString("1.00")
	SurgeHigh = decimal.RequireFromString("1.10")
)

// SurgeMultiplier выбирает коэффициент спроса для почтового района.
// Порог сравнивается как целое число: 5.9 означает 5.
func SurgeMultiplier(ctx context.Context, bookings repository.BookingStore, postalArea string, threshold decimal.Decimal) (decimal.Decimal, error) {
	count, err := bookings.CountInPostalArea(ctx, postalArea, model.PipelineBookingStatuses)
	if err != nil {
		return decimal.Zero, fmt.Errorf("count surge demand: %w", err)
	}

	if int64(count) > threshold.IntPart() {
		return SurgeHigh, nil
	}
	return SurgeNone, nil
}
