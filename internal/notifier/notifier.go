package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/uzhavango/rental_core/internal/model"
	"go.uber.org/zap"
)

// Sink доставляет уведомление пользователю.
// Name должно быть постоянным: по нему в outbox помечается доставка в канал.
type Sink interface {
	Name() string
	Push(ctx context.Context, n *model.Notification) error
}

// MultiSink рассылает уведомление во все каналы
type MultiSink []Sink

// Deliver отправляет уведомление в каналы, которые его ещё не получили.
// Возвращает все каналы с доставкой (прежние и новые) и ошибки упавших.
// Упавший канал не заставляет повторять доставку в остальные.
func (m MultiSink) Deliver(ctx context.Context, n *model.Notification) ([]string, error) {
	delivered := append([]string(nil), n.DeliveredSinks...)

	var errs []error
	for _, sink := range m {
		name := sink.Name()
		if n.DeliveredTo(name) {
			continue
		}
		if err := sink.Push(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		delivered = append(delivered, name)
	}

	return delivered, errors.Join(errs...)
}

// LogSink пишет уведомления в лог
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Push(_ context.Context, n *model.Notification) error {
	fields := []zap.Field{
		zap.String("event_id", n.EventID.String()),
		zap.Int64("user_id", n.UserID),
		zap.String("title", n.Title),
		zap.String("message", n.Message),
	}
	if n.BookingID != nil {
		fields = append(fields, zap.Int64("booking_id", *n.BookingID))
	}

	s.logger.Info("Notification", fields...)
	return nil
}
