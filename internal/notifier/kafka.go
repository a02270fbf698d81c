package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/uzhavango/rental_core/internal/model"
)

// MessageWriter часть API *kafka.Writer
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event сообщение в топике уведомлений
type Event struct {
	EventID   string    `json:"event_id"`
	UserID    int64     `json:"user_id"`
	BookingID *int64    `json:"booking_id,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// KafkaSink публикует уведомления в топик, ключ - id пользователя
type KafkaSink struct {
	writer MessageWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaSink(writer MessageWriter) *KafkaSink {
	return &KafkaSink{writer: writer}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Push(ctx context.Context, n *model.Notification) error {
	payload, err := json.Marshal(Event{
		EventID:   n.EventID.String(),
		UserID:    n.UserID,
		BookingID: n.BookingID,
		Title:     n.Title,
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	// Ключ по пользователю сохраняет порядок его уведомлений в партиции
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("user-%d", n.UserID)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(n.EventID.String())},
		},
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
