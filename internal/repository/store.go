package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/repository/base"
)

// ListingStore чтение объявлений о технике
type ListingStore interface {
	GetByID(ctx context.Context, id int64) (*model.Listing, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Listing, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*model.Listing, error)
}

// BookingStore хранение бронирований и их дополнений
type BookingStore interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Booking, error)
	Update(ctx context.Context, booking *model.Booking) error
	GetAddons(ctx context.Context, bookingID int64) ([]model.BookingAddon, error)
	HasOverlap(ctx context.Context, tractorID int64, start, end time.Time, statuses []model.BookingStatus) (bool, error)
	CountInPostalArea(ctx context.Context, postalArea string, statuses []model.BookingStatus) (int, error)
	ListByFarmer(ctx context.Context, farmerID int64) ([]*model.Booking, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*model.Booking, error)
}

// PaymentStore платежи и счётчик номеров квитанций
type PaymentStore interface {
	GetByBookingID(ctx context.Context, bookingID int64) (*model.Payment, error)
	NextReceiptSequence(ctx context.Context, day time.Time) (int, error)
	Create(ctx context.Context, payment *model.Payment) error
}

// EarningStore доходы владельцев
type EarningStore interface {
	GetByBookingID(ctx context.Context, bookingID int64) (*model.OwnerEarning, error)
	Create(ctx context.Context, earning *model.OwnerEarning) error
}

// NotificationStore outbox уведомлений
type NotificationStore interface {
	Enqueue(ctx context.Context, n *model.Notification) error
	ClaimPending(ctx context.Context, limit int, maxAttempts int) ([]*model.Notification, error)
	MarkDelivered(ctx context.Context, id int64, at time.Time, sinks []string) error
	MarkFailed(ctx context.Context, id int64, reason string, sinks []string) error
}

// Repos набор репозиториев, привязанных к одной транзакции (или к пулу)
type Repos struct {
	Listings      ListingStore
	Bookings      BookingStore
	Payments      PaymentStore
	Earnings      EarningStore
	Notifications NotificationStore
}

// NewRepos создаёт репозитории поверх пула или транзакции
func NewRepos(q base.Querier) Repos {
	return Repos{
		Listings:      NewListingRepository(q),
		Bookings:      NewBookingRepository(q),
		Payments:      NewPaymentRepository(q),
		Earnings:      NewEarningRepository(q),
		Notifications: NewNotificationRepository(q),
	}
}

// TxManager единица работы: одна транзакция, один commit или rollback
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
	Repos() Repos
}

// PgTxManager TxManager поверх pgxpool
type PgTxManager struct {
	pool *pgxpool.Pool
}

func NewPgTxManager(pool *pgxpool.Pool) *PgTxManager {
	return &PgTxManager{pool: pool}
}

// WithinTx открывает транзакцию read committed, вызывает fn и коммитит.
// Любая ошибка fn откатывает все изменения.
func (m *PgTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, NewRepos(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Repos возвращает репозитории без транзакции, только для чтения
func (m *PgTxManager) Repos() Repos {
	return NewRepos(m.pool)
}
