package service

import (
	"context"
	"fmt"
	"time"

	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/repository"
)

// DefaultReceiptPrefix префикс номера квитанции
const DefaultReceiptPrefix = "UZG"

// SettlementWriter создаёт платёж и доход владельца по бронированию
type SettlementWriter struct {
	prefix string
}

func NewSettlementWriter(prefix string) *SettlementWriter {
	if prefix == "" {
		prefix = DefaultReceiptPrefix
	}
	return &SettlementWriter{prefix: prefix}
}

// ReceiptNumber формирует номер вида UZG-20260301-0007 (дата по UTC)
func (w *SettlementWriter) ReceiptNumber(day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", w.prefix, day.UTC().Format("20060102"), seq)
}

// Settle проводит расчёт по бронированию внутри открытой транзакции.
// Строка бронирования должна быть заблокирована вызывающим (GetByIDForUpdate),
// тогда второй параллельный вызов увидит уже созданный платёж.
// Повторный вызов возвращает существующий платёж; created=false.
func (w *SettlementWriter) Settle(ctx context.Context, repos repository.Repos, booking *model.Booking, now time.Time) (payment *model.Payment, created bool, err error) {
	payment, err = repos.Payments.GetByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, false, fmt.Errorf("get payment: %w", err)
	}

	if payment == nil {
		seq, err := repos.Payments.NextReceiptSequence(ctx, now)
		if err != nil {
			return nil, false, err
		}

		payment = &model.Payment{
			BookingID:     booking.ID,
			ReceiptNumber: w.ReceiptNumber(now, seq),
			Amount:        booking.GrandTotal,
			FarmerID:      booking.FarmerID,
			OwnerID:       booking.OwnerID,
			Status:        model.PaymentStatusPaid,
		}
		if err := repos.Payments.Create(ctx, payment); err != nil {
			return nil, false, err
		}
		created = true
	}

	if booking.Status != model.BookingStatusPaid {
		booking.Status = model.BookingStatusPaid
		booking.StampMilestone(model.BookingStatusPaid, now)
		if err := repos.Bookings.Update(ctx, booking); err != nil {
			return nil, false, fmt.Errorf("mark booking paid: %w", err)
		}
	}

	earning, err := repos.Earnings.GetByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, false, fmt.Errorf("get owner earning: %w", err)
	}
	if earning == nil {
		earning = &model.OwnerEarning{
			OwnerID:     booking.OwnerID,
			BookingID:   booking.ID,
			GrossAmount: booking.GrandTotal,
			PlatformFee: booking.CommissionAmount,
			NetAmount:   booking.GrandTotal.Sub(booking.CommissionAmount),
		}
		if err := repos.Earnings.Create(ctx, earning); err != nil {
			return nil, false, err
		}
	}

	return payment, created, nil
}
