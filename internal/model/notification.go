package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification запись outbox: пишется в транзакции бронирования,
// доставляется диспетчером после коммита
type Notification struct {
	ID             int64      `json:"id"`
	EventID        uuid.UUID  `json:"event_id"`
	UserID         int64      `json:"user_id"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	BookingID      *int64     `json:"booking_id,omitempty"`
	// Каналы, в которые уведомление уже доставлено
	DeliveredSinks []string   `json:"delivered_sinks,omitempty"`
	Attempts       int        `json:"attempts"`
	LastError      *string    `json:"last_error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
}

// NewNotification создаёт уведомление с новым идентификатором события
func NewNotification(userID int64, bookingID int64, title, message string) *Notification {
	return &Notification{
		EventID:   uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		BookingID: &bookingID,
	}
}

// DeliveredTo сообщает, доставлено ли уведомление в канал sink
func (n *Notification) DeliveredTo(sink string) bool {
	for _, name := range n.DeliveredSinks {
		if name == sink {
			return true
		}
	}
	return false
}
