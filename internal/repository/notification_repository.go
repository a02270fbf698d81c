package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/repository/base"
)

type NotificationRepository struct {
	*base.Repository
}

func NewNotificationRepository(q base.Querier) *NotificationRepository {
	return &NotificationRepository{Repository: base.NewRepository(q)}
}

// Enqueue записывает уведомление в outbox
func (r *NotificationRepository) Enqueue(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (event_id, user_id, booking_id, title, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, n.EventID, n.UserID, n.BookingID, n.Title, n.Message).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}

	return nil
}

// ClaimPending забирает пачку недоставленных уведомлений.
// SKIP LOCKED позволяет нескольким диспетчерам работать параллельно.
// Должен вызываться внутри транзакции, иначе блокировка снимается сразу.
func (r *NotificationRepository) ClaimPending(ctx context.Context, limit int, maxAttempts int) ([]*model.Notification, error) {
	query := `
		SELECT id, event_id, user_id, booking_id, title, message, delivered_sinks, attempts, last_error, created_at, delivered_at
		FROM notifications
		WHERE delivered_at IS NULL AND attempts < $2
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.Query(ctx, query, limit, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("claim notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*model.Notification
	for rows.Next() {
		var n model.Notification
		err := rows.Scan(
			&n.ID,
			&n.EventID,
			&n.UserID,
			&n.BookingID,
			&n.Title,
			&n.Message,
			&n.DeliveredSinks,
			&n.Attempts,
			&n.LastError,
			&n.CreatedAt,
			&n.DeliveredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return notifications, nil
}

// MarkDelivered отмечает уведомление доставленным во все каналы
func (r *NotificationRepository) MarkDelivered(ctx context.Context, id int64, at time.Time, sinks []string) error {
	query := `
		UPDATE notifications
		SET delivered_at = $2, delivered_sinks = $3, attempts = attempts + 1
		WHERE id = $1
	`

	if _, err := r.ExecAffected(ctx, query, id, at, nonNil(sinks)); err != nil {
		return fmt.Errorf("mark notification delivered: %w", err)
	}

	return nil
}

// MarkFailed увеличивает счётчик попыток, сохраняет причину и каналы,
// которые уже получили уведомление: повторная попытка их пропустит
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, reason string, sinks []string) error {
	query := `
		UPDATE notifications
		SET attempts = attempts + 1, last_error = $2, delivered_sinks = $3
		WHERE id = $1
	`

	if _, err := r.ExecAffected(ctx, query, id, reason, nonNil(sinks)); err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}

	return nil
}

// nonNil nil срез pgx пишет как NULL, а колонка NOT NULL
func nonNil(sinks []string) []string {
	if sinks == nil {
		return []string{}
	}
	return sinks
}
