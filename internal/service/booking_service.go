package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/repository"
	"go.uber.org/zap"
)

// Ключи настроек платформы
const (
	SettingCommissionPct  = "commission_pct"
	SettingSurgeThreshold = "surge_threshold"
)

var (
	defaultCommissionPct  = decimal.NewFromInt(10)
	defaultSurgeThreshold = decimal.NewFromInt(5)
)

// SettingsProvider чтение настроек платформы
type SettingsProvider interface {
	GetDecimalSetting(ctx context.Context, key string, def decimal.Decimal) (decimal.Decimal, error)
}

// CreateBookingRequest заявка фермера на аренду
type CreateBookingRequest struct {
	FarmerID  int64
	TractorID int64
	Hours     int
	StartTime *time.Time
	Note      *string
	Addons    []AddonSelection
}

// TransitionRequest запрос на смену статуса
type TransitionRequest struct {
	BookingID int64
	Target    string
	ActorID   int64
	ActorRole model.UserRole
	Note      *string
}

type BookingService struct {
	tx       repository.TxManager
	settings SettingsProvider
	settler  *SettlementWriter
	logger   *zap.Logger
	now      func() time.Time
}

func NewBookingService(
	tx repository.TxManager,
	settings SettingsProvider,
	settler *SettlementWriter,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		tx:       tx,
		settings: settings,
		settler:  settler,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateBooking создаёт бронирование в статусе pending.
// Строка техники блокируется на время проверки пересечений и вставки.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*model.Booking, error) {
	if req.FarmerID <= 0 || req.TractorID <= 0 {
		return nil, newError(KindInvalidInput, "Farmer and tractor are required.")
	}
	if req.Hours <= 0 {
		return nil, newError(KindInvalidInput, "Hours must be a positive integer.")
	}

	// Настройки читаем до транзакции: внутри неё не должно быть сетевых вызовов
	commissionPct, err := s.settings.GetDecimalSetting(ctx, SettingCommissionPct, defaultCommissionPct)
	if err != nil {
		return nil, fmt.Errorf("get commission: %w", err)
	}
	threshold, err := s.settings.GetDecimalSetting(ctx, SettingSurgeThreshold, defaultSurgeThreshold)
	if err != nil {
		return nil, fmt.Errorf("get surge threshold: %w", err)
	}

	start := s.now()
	if req.StartTime != nil {
		start = req.StartTime.UTC()
	}
	end := start.Add(time.Duration(req.Hours) * time.Hour)

	var booking *model.Booking

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		listing, err := repos.Listings.GetByIDForUpdate(ctx, req.TractorID)
		if err != nil {
			return err
		}
		if listing == nil || listing.IsOffline() || !listing.IsPrimary() {
			return newError(KindResourceUnavailable, "Tractor unavailable.")
		}

		conflict, err := HasConflict(ctx, repos.Bookings, listing.ID, start, end)
		if err != nil {
			return err
		}
		if conflict {
			return newError(KindSchedulingConflict, "Tractor already booked for the selected time slot.")
		}

		surge, err := SurgeMultiplier(ctx, repos.Bookings, listing.PostalArea, threshold)
		if err != nil {
			return err
		}

		candidates, err := s.addonCandidates(ctx, repos, req.Addons)
		if err != nil {
			return err
		}

		totals := Price(listing, req.Hours, req.Addons, candidates, surge, commissionPct)

		booking = &model.Booking{
			TractorID:  listing.ID,
			FarmerID:   req.FarmerID,
			OwnerID:    listing.OwnerID,
			Status:     model.BookingStatusPending,
			StartTime:  start,
			EndTime:    end,
			Hours:      req.Hours,
			FarmerNote: trimNote(req.Note),
		}
		totals.Apply(booking)

		if err := repos.Bookings.Create(ctx, booking); err != nil {
			if errors.Is(err, repository.ErrBookingOverlap) {
				return newError(KindSchedulingConflict, "Tractor already booked for the selected time slot.")
			}
			return err
		}

		notices := []*model.Notification{bookingRequestNotice(booking, listing)}
		if booking.SurgeMultiplier.GreaterThan(SurgeNone) {
			notices = append(notices, surgeNotice(booking, listing))
		}
		return enqueue(ctx, repos, notices)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("farmer_id", booking.FarmerID),
		zap.Int64("tractor_id", booking.TractorID),
		zap.Int("hours", booking.Hours),
		zap.String("surge", booking.SurgeMultiplier.String()),
		zap.String("grand_total", booking.GrandTotal.StringFixed(2)),
	)

	return booking, nil
}

// AuthorizeTransition проверяет право на смену статуса:
// владелец меняет статусы своих бронирований, фермер может только отметить completed
func AuthorizeTransition(b *model.Booking, actorID int64, role model.UserRole, target model.BookingStatus) error {
	switch role {
	case model.UserRoleOwner:
		if b.OwnerID == actorID {
			return nil
		}
	case model.UserRoleFarmer:
		if b.FarmerID == actorID && target == model.BookingStatusCompleted {
			return nil
		}
	}
	return newError(KindNotAuthorized, "Not authorized to change this booking.")
}

// Transition меняет статус бронирования по таблице переходов.
// Переход в paid проводит расчёт в той же транзакции.
func (s *BookingService) Transition(ctx context.Context, req TransitionRequest) (*model.Booking, error) {
	target, err := model.ParseTargetStatus(req.Target)
	if err != nil {
		return nil, newError(KindInvalidTransition, "Unknown status %q.", req.Target)
	}

	var booking *model.Booking
	var from model.BookingStatus

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		b, err := lockBooking(ctx, repos, req.BookingID)
		if err != nil {
			return err
		}
		booking = b

		if err := AuthorizeTransition(booking, req.ActorID, req.ActorRole, target); err != nil {
			return err
		}

		from = booking.Status
		if !from.CanTransitionTo(target) {
			return newError(KindInvalidTransition, "Invalid status transition from %s to %s.", from, target)
		}

		if note := trimNote(req.Note); note != nil && req.ActorID == booking.OwnerID {
			booking.OwnerNote = note
		}

		now := s.now()
		var payment *model.Payment
		if target == model.BookingStatusPaid {
			payment, _, err = s.settler.Settle(ctx, repos, booking, now)
			if err != nil {
				return err
			}
			booking.Payment = payment
		} else {
			booking.Status = target
			booking.StampMilestone(target, now)
			if err := repos.Bookings.Update(ctx, booking); err != nil {
				return updateError(err)
			}
		}

		listing, err := repos.Listings.GetByID(ctx, booking.TractorID)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("booking #%d", booking.ID)
		if listing != nil {
			title = listing.Title
		}

		return enqueue(ctx, repos, transitionNotices(booking, title, req.ActorID, payment))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking status changed",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("actor_id", req.ActorID),
		zap.String("from", string(from)),
		zap.String("to", string(booking.Status)),
	)

	return booking, nil
}

// ConfirmCompletion фермер подтверждает фактические часы и оплачивает бронирование
func (s *BookingService) ConfirmCompletion(ctx context.Context, bookingID, farmerID int64, confirmedHours int) (*model.Payment, error) {
	var payment *model.Payment
	var created bool

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		booking, err := lockBooking(ctx, repos, bookingID)
		if err != nil {
			return err
		}

		if booking.FarmerID != farmerID {
			return newError(KindNotAuthorized, "Not authorized for this booking.")
		}
		if booking.Status != model.BookingStatusCompleted {
			return newError(KindInvalidTransition, "Booking is not waiting for completion confirmation.")
		}
		if confirmedHours <= 0 {
			return newError(KindInvalidInput, "Confirmed hours must be positive.")
		}

		now := s.now()
		booking.ConfirmedHours = &confirmedHours
		booking.FarmerConfirmedAt = &now

		payment, created, err = s.settler.Settle(ctx, repos, booking, now)
		if err != nil {
			return err
		}

		return enqueue(ctx, repos, []*model.Notification{confirmationNotice(booking)})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking completion confirmed",
		zap.Int64("booking_id", bookingID),
		zap.Int64("farmer_id", farmerID),
		zap.Int("confirmed_hours", confirmedHours),
		zap.String("receipt", payment.ReceiptNumber),
		zap.Bool("payment_created", created),
	)

	return payment, nil
}

// Settle проводит расчёт по завершённому бронированию.
// Для уже оплаченного бронирования возвращает существующий платёж.
func (s *BookingService) Settle(ctx context.Context, bookingID int64) (*model.Payment, error) {
	var payment *model.Payment
	var created bool

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		booking, err := lockBooking(ctx, repos, bookingID)
		if err != nil {
			return err
		}

		if booking.Status != model.BookingStatusCompleted && booking.Status != model.BookingStatusPaid {
			return newError(KindInvalidTransition, "Booking %d cannot be settled in status %s.", booking.ID, booking.Status)
		}

		payment, created, err = s.settler.Settle(ctx, repos, booking, s.now())
		if err != nil {
			return err
		}

		if !created {
			return nil
		}
		return enqueue(ctx, repos, paidNotices(booking, payment))
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("Booking settled",
			zap.Int64("booking_id", bookingID),
			zap.String("receipt", payment.ReceiptNumber),
			zap.String("amount", payment.Amount.StringFixed(2)),
		)
	}

	return payment, nil
}

// GetBooking возвращает бронирование с дополнениями и платежом.
// Доступно только участникам бронирования и администратору.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, actorID int64, role model.UserRole) (*model.Booking, error) {
	repos := s.tx.Repos()

	booking, err := repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, newError(KindNotFound, "Booking not found.")
	}
	if role != model.UserRoleAdmin && !booking.IsParty(actorID) {
		return nil, newError(KindNotAuthorized, "Not authorized for this booking.")
	}

	booking.Addons, err = repos.Bookings.GetAddons(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	booking.Payment, err = repos.Payments.GetByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// ListFarmerBookings бронирования фермера, новые первыми
func (s *BookingService) ListFarmerBookings(ctx context.Context, farmerID int64) ([]*model.Booking, error) {
	return s.tx.Repos().Bookings.ListByFarmer(ctx, farmerID)
}

// ListOwnerBookings бронирования техники владельца, новые первыми
func (s *BookingService) ListOwnerBookings(ctx context.Context, ownerID int64) ([]*model.Booking, error) {
	return s.tx.Repos().Bookings.ListByOwner(ctx, ownerID)
}

// ListForActor выбирает список по роли пользователя
func (s *BookingService) ListForActor(ctx context.Context, actorID int64, role model.UserRole) ([]*model.Booking, error) {
	switch role {
	case model.UserRoleFarmer:
		return s.ListFarmerBookings(ctx, actorID)
	case model.UserRoleOwner:
		return s.ListOwnerBookings(ctx, actorID)
	}
	return nil, newError(KindNotAuthorized, "Only farmers and owners have bookings.")
}

func (s *BookingService) addonCandidates(ctx context.Context, repos repository.Repos, selections []AddonSelection) (map[int64]*model.Listing, error) {
	if len(selections) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(selections))
	for _, sel := range selections {
		if sel.ListingID > 0 {
			ids = append(ids, sel.ListingID)
		}
	}

	listings, err := repos.Listings.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	candidates := make(map[int64]*model.Listing, len(listings))
	for _, l := range listings {
		candidates[l.ID] = l
	}
	return candidates, nil
}

func lockBooking(ctx context.Context, repos repository.Repos, bookingID int64) (*model.Booking, error) {
	booking, err := repos.Bookings.GetByIDForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, newError(KindNotFound, "Booking not found.")
	}
	return booking, nil
}

func updateError(err error) error {
	if errors.Is(err, repository.ErrStaleBooking) {
		return newError(KindInvalidTransition, "Booking was changed by another request.")
	}
	return err
}

func enqueue(ctx context.Context, repos repository.Repos, notices []*model.Notification) error {
	for _, n := range notices {
		if err := repos.Notifications.Enqueue(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func trimNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
