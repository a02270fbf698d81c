package app

import (
	"context"
	"fmt"
	"time"

	"github.com/uzhavango/rental_core/internal/notifier"
	"github.com/uzhavango/rental_core/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultBatchSize    = 50
	defaultMaxAttempts  = 10
	pushTimeout         = 10 * time.Second
)

// Dispatcher доставляет уведомления из outbox после коммита бронирования.
// Ошибка доставки не влияет на бронирование: уведомление остаётся в очереди
// до maxAttempts попыток. Каналы, уже получившие уведомление, при повторе
// пропускаются.
type Dispatcher struct {
	tx          repository.TxManager
	sinks       notifier.MultiSink
	logger      *zap.Logger
	interval    time.Duration
	batchSize   int
	maxAttempts int
	stopChan    chan struct{}
	done        chan struct{}
}

// NewDispatcher создаёт диспетчер outbox
func NewDispatcher(tx repository.TxManager, sinks notifier.MultiSink, interval time.Duration, batchSize int, logger *zap.Logger) *Dispatcher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &Dispatcher{
		tx:          tx,
		sinks:       sinks,
		logger:      logger,
		interval:    interval,
		batchSize:   batchSize,
		maxAttempts: defaultMaxAttempts,
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start запускает фоновую доставку
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting outbox dispatcher",
		zap.Duration("interval", d.interval),
		zap.Int("batch_size", d.batchSize))

	go d.run(ctx)
}

// Stop останавливает доставку и ждёт завершения текущей пачки
func (d *Dispatcher) Stop() {
	d.logger.Info("Stopping outbox dispatcher")
	close(d.stopChan)
	<-d.done
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Выбираем пачки, пока очередь не опустеет
			for {
				n, err := d.RunOnce(ctx)
				if err != nil {
					d.logger.Error("Outbox dispatch failed", zap.Error(err))
					break
				}
				if n < d.batchSize {
					break
				}
			}
		case <-d.stopChan:
			d.logger.Info("Outbox dispatcher stopped")
			return
		case <-ctx.Done():
			d.logger.Info("Outbox dispatcher cancelled")
			return
		}
	}
}

// RunOnce забирает одну пачку уведомлений и пытается их доставить.
// Возвращает число доставленных.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	delivered := 0

	err := d.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		pending, err := repos.Notifications.ClaimPending(ctx, d.batchSize, d.maxAttempts)
		if err != nil {
			return err
		}

		for _, n := range pending {
			pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
			sinks, pushErr := d.sinks.Deliver(pushCtx, n)
			cancel()

			if pushErr != nil {
				d.logger.Warn("Notification delivery failed",
					zap.Int64("notification_id", n.ID),
					zap.Int64("user_id", n.UserID),
					zap.Int("attempt", n.Attempts+1),
					zap.Strings("delivered_sinks", sinks),
					zap.Error(pushErr))

				if err := repos.Notifications.MarkFailed(ctx, n.ID, pushErr.Error(), sinks); err != nil {
					return err
				}
				continue
			}

			if err := repos.Notifications.MarkDelivered(ctx, n.ID, time.Now().UTC(), sinks); err != nil {
				return err
			}
			delivered++
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("dispatch notifications: %w", err)
	}

	return delivered, nil
}
