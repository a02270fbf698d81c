package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uzhavango/rental_core/internal/app"
	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/repository"
	"github.com/uzhavango/rental_core/internal/service"
	"github.com/uzhavango/rental_core/migrations"
	"go.uber.org/zap"
)

// startPostgres поднимает Postgres в контейнере и применяет миграции
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping Postgres integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "rental",
				"POSTGRES_PASSWORD": "rental",
				"POSTGRES_DB":       "rental",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("Docker is not available: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://rental:rental@%s:%s/rental?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrator, err := app.NewMigrator(pool, migrations.FS, ".", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Run(ctx))
	require.NoError(t, migrator.Close())

	return pool
}

type fixture struct {
	farmerID  int64
	farmer2ID int64
	ownerID   int64
	tractorID int64
	addonID   int64
}

func seed(t *testing.T, pool *pgxpool.Pool, postalArea string) fixture {
	t.Helper()
	ctx := context.Background()

	var f fixture
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (role, name) VALUES ('farmer', 'Ravi') RETURNING id`).Scan(&f.farmerID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (role, name) VALUES ('farmer', 'Kumar') RETURNING id`).Scan(&f.farmer2ID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (role, name, telegram_id) VALUES ('owner', 'Meena', 9001) RETURNING id`).Scan(&f.ownerID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO listings (owner_id, title, price_per_hour, postal_area, category)
		 VALUES ($1, 'Mahindra 575', 500.00, $2, 'Tractor') RETURNING id`, f.ownerID, postalArea).Scan(&f.tractorID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO listings (owner_id, title, price_per_hour, postal_area, category)
		 VALUES ($1, 'Rotavator', 120.00, $2, 'Rotavator') RETURNING id`, f.ownerID, postalArea).Scan(&f.addonID))

	return f
}

func newService(pool *pgxpool.Pool) *service.BookingService {
	settings := repository.NewSettingRepository(pool)
	return service.NewBookingService(
		repository.NewPgTxManager(pool),
		decimalSettings{settings},
		service.NewSettlementWriter(service.DefaultReceiptPrefix),
		zap.NewNop(),
	)
}

// decimalSettings читает настройки напрямую из базы, без кэша
type decimalSettings struct {
	repo *repository.SettingRepository
}

func (s decimalSettings) GetDecimalSetting(ctx context.Context, key string, def decimal.Decimal) (decimal.Decimal, error) {
	raw, found, err := s.repo.Get(ctx, key)
	if err != nil || !found {
		return def, err
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return def, nil
	}
	return value, nil
}

func TestPostgres(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	t.Run("booking lifecycle with add-ons and settlement", func(t *testing.T) {
		f := seed(t, pool, "641001")
		svc := newService(pool)

		start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
		booking, err := svc.CreateBooking(ctx, service.CreateBookingRequest{
			FarmerID:  f.farmerID,
			TractorID: f.tractorID,
			Hours:     3,
			StartTime: &start,
			Addons:    []service.AddonSelection{{ListingID: f.addonID, Quantity: 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, model.BookingStatusPending, booking.Status)
		assert.True(t, booking.BaseTotal.Equal(decimal.RequireFromString("1500")))
		assert.True(t, booking.AddonTotal.Equal(decimal.RequireFromString("360")))
		assert.True(t, booking.GrandTotal.Equal(decimal.RequireFromString("1860")))

		for _, target := range []string{"accepted", "en_route", "working", "completed"} {
			booking, err = svc.Transition(ctx, service.TransitionRequest{
				BookingID: booking.ID,
				Target:    target,
				ActorID:   f.ownerID,
				ActorRole: model.UserRoleOwner,
			})
			require.NoError(t, err, target)
		}

		payment, err := svc.ConfirmCompletion(ctx, booking.ID, f.farmerID, 3)
		require.NoError(t, err)
		assert.Regexp(t, `^UZG-\d{8}-0001$`, payment.ReceiptNumber)

		stored, err := svc.GetBooking(ctx, booking.ID, f.farmerID, model.UserRoleFarmer)
		require.NoError(t, err)
		assert.Equal(t, model.BookingStatusPaid, stored.Status)
		require.Len(t, stored.Addons, 1)
		require.NotNil(t, stored.Payment)
		assert.Equal(t, payment.ReceiptNumber, stored.Payment.ReceiptNumber)

		// Повторный расчёт не создаёт второй платёж
		again, err := svc.Settle(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, payment.ID, again.ID)

		var payments, earnings int
		require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE booking_id = $1`, booking.ID).Scan(&payments))
		require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM owner_earnings WHERE booking_id = $1`, booking.ID).Scan(&earnings))
		assert.Equal(t, 1, payments)
		assert.Equal(t, 1, earnings)

		var net decimal.Decimal
		require.NoError(t, pool.QueryRow(ctx, `SELECT net_amount FROM owner_earnings WHERE booking_id = $1`, booking.ID).Scan(&net))
		assert.True(t, net.Equal(decimal.RequireFromString("1674")), net.String())
	})

	t.Run("concurrent creates for the same window", func(t *testing.T) {
		f := seed(t, pool, "641002")
		svc := newService(pool)
		start := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

		var wg sync.WaitGroup
		results := make(chan error, 8)
		for i := 0; i < 8; i++ {
			farmer := f.farmerID
			if i%2 == 1 {
				farmer = f.farmer2ID
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.CreateBooking(ctx, service.CreateBookingRequest{
					FarmerID:  farmer,
					TractorID: f.tractorID,
					Hours:     2,
					StartTime: &start,
				})
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, service.ErrSchedulingConflict)
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("exclusion constraint rejects overlapping insert", func(t *testing.T) {
		f := seed(t, pool, "641003")
		repos := repository.NewRepos(pool)
		start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

		first := &model.Booking{
			TractorID: f.tractorID, FarmerID: f.farmerID, OwnerID: f.ownerID,
			Status: model.BookingStatusPending, StartTime: start, EndTime: start.Add(3 * time.Hour), Hours: 3,
			QuotedPricePerHour: decimal.RequireFromString("500"),
			SurgeMultiplier:    decimal.RequireFromString("1"),
			CommissionPct:      decimal.RequireFromString("10"),
		}
		require.NoError(t, repos.Bookings.Create(ctx, first))

		overlapping := *first
		overlapping.StartTime = start.Add(2 * time.Hour)
		overlapping.EndTime = start.Add(4 * time.Hour)
		assert.ErrorIs(t, repos.Bookings.Create(ctx, &overlapping), repository.ErrBookingOverlap)

		// Окна [start, end) с общей границей не пересекаются
		adjacent := *first
		adjacent.StartTime = start.Add(3 * time.Hour)
		adjacent.EndTime = start.Add(5 * time.Hour)
		assert.NoError(t, repos.Bookings.Create(ctx, &adjacent))

		// Отменённое бронирование освобождает окно
		first.Status = model.BookingStatusCancelled
		require.NoError(t, repos.Bookings.Update(ctx, first))
		replacement := overlapping
		replacement.EndTime = start.Add(3 * time.Hour)
		assert.NoError(t, repos.Bookings.Create(ctx, &replacement))

		// Старые строки со статусом rejected читаются как отменённые и окно не занимают
		_, err := pool.Exec(ctx, `UPDATE bookings SET status = 'rejected' WHERE id = $1`, adjacent.ID)
		require.NoError(t, err)

		legacy, err := repos.Bookings.GetByID(ctx, adjacent.ID)
		require.NoError(t, err)
		assert.Equal(t, model.BookingStatusCancelled, legacy.Status)

		busy, err := repos.Bookings.HasOverlap(ctx, f.tractorID, adjacent.StartTime, adjacent.EndTime, model.ActiveBookingStatuses)
		require.NoError(t, err)
		assert.False(t, busy)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		f := seed(t, pool, "641004")
		repos := repository.NewRepos(pool)
		start := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

		b := &model.Booking{
			TractorID: f.tractorID, FarmerID: f.farmerID, OwnerID: f.ownerID,
			Status: model.BookingStatusPending, StartTime: start, EndTime: start.Add(time.Hour), Hours: 1,
			QuotedPricePerHour: decimal.RequireFromString("500"),
			SurgeMultiplier:    decimal.RequireFromString("1"),
			CommissionPct:      decimal.RequireFromString("10"),
		}
		require.NoError(t, repos.Bookings.Create(ctx, b))

		stale := *b
		b.Status = model.BookingStatusAccepted
		require.NoError(t, repos.Bookings.Update(ctx, b))

		stale.Status = model.BookingStatusCancelled
		assert.ErrorIs(t, repos.Bookings.Update(ctx, &stale), repository.ErrStaleBooking)
	})

	t.Run("receipt sequence per day", func(t *testing.T) {
		repos := repository.NewRepos(pool)
		day := time.Date(2031, 1, 2, 23, 59, 0, 0, time.UTC)

		first, err := repos.Payments.NextReceiptSequence(ctx, day)
		require.NoError(t, err)
		second, err := repos.Payments.NextReceiptSequence(ctx, day.Add(-time.Hour))
		require.NoError(t, err)
		other, err := repos.Payments.NextReceiptSequence(ctx, day.Add(time.Hour))
		require.NoError(t, err)

		assert.Equal(t, 1, first)
		assert.Equal(t, 2, second)
		assert.Equal(t, 1, other)
	})

	t.Run("outbox claims skip locked rows", func(t *testing.T) {
		f := seed(t, pool, "641005")
		_, err := pool.Exec(ctx, `DELETE FROM notifications`)
		require.NoError(t, err)

		repos := repository.NewRepos(pool)
		for i := 0; i < 4; i++ {
			require.NoError(t, repos.Notifications.Enqueue(ctx, &model.Notification{
				EventID: uuid.New(),
				UserID:  f.ownerID,
				Title:   "New booking request",
				Message: fmt.Sprintf("request %d", i),
			}))
		}

		tx := repository.NewPgTxManager(pool)
		claimedFirst := make(chan []*model.Notification, 1)
		release := make(chan struct{})
		done := make(chan error, 1)

		go func() {
			done <- tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
				batch, err := repos.Notifications.ClaimPending(ctx, 2, 10)
				claimedFirst <- batch
				<-release
				return err
			})
		}()

		first := <-claimedFirst
		require.Len(t, first, 2)

		var second []*model.Notification
		err = tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
			var err error
			second, err = repos.Notifications.ClaimPending(ctx, 10, 10)
			return err
		})
		require.NoError(t, err)
		close(release)
		require.NoError(t, <-done)

		require.Len(t, second, 2)
		for _, n := range second {
			assert.NotEqual(t, first[0].ID, n.ID)
			assert.NotEqual(t, first[1].ID, n.ID)
		}

		// каналы с доставкой сохраняются между попытками
		require.NoError(t, repos.Notifications.MarkFailed(ctx, first[0].ID, "kafka: leader not available", []string{"telegram"}))
		require.NoError(t, repos.Notifications.MarkDelivered(ctx, first[1].ID, time.Now().UTC(), nil))

		var retry []*model.Notification
		err = tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
			var err error
			retry, err = repos.Notifications.ClaimPending(ctx, 10, 10)
			return err
		})
		require.NoError(t, err)
		require.Len(t, retry, 3)
		assert.Equal(t, first[0].ID, retry[0].ID)
		assert.Equal(t, []string{"telegram"}, retry[0].DeliveredSinks)
		assert.Equal(t, 1, retry[0].Attempts)
		assert.Empty(t, retry[1].DeliveredSinks)
	})

	t.Run("settings and telegram link", func(t *testing.T) {
		f := seed(t, pool, "641006")
		settings := repository.NewSettingRepository(pool)
		users := repository.NewUserRepository(pool)

		value, found, err := settings.Get(ctx, service.SettingCommissionPct)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "10", value)

		require.NoError(t, settings.Set(ctx, "surge_threshold", "7"))
		value, _, err = settings.Get(ctx, "surge_threshold")
		require.NoError(t, err)
		assert.Equal(t, "7", value)
		require.NoError(t, settings.Set(ctx, "surge_threshold", "5"))

		require.NoError(t, users.LinkTelegram(ctx, f.farmerID, 7777))
		user, err := users.GetByTelegramID(ctx, 7777)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, f.farmerID, user.ID)

		assert.ErrorIs(t, users.LinkTelegram(ctx, f.farmer2ID, 7777), repository.ErrTelegramTaken)
		assert.ErrorIs(t, users.LinkTelegram(ctx, 999999, 7778), repository.ErrUserNotFound)
	})
}
