package notifier

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/uzhavango/rental_core/internal/model"
	"go.uber.org/zap"
)

// MessageSender часть API *bot.Bot, нужная для отправки
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// UserLookup поиск пользователя для получения chat id
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// TelegramSink отправляет уведомления пользователям с привязанным Telegram
type TelegramSink struct {
	sender MessageSender
	users  UserLookup
	logger *zap.Logger
}

func NewTelegramSink(sender MessageSender, users UserLookup, logger *zap.Logger) *TelegramSink {
	return &TelegramSink{
		sender: sender,
		users:  users,
		logger: logger,
	}
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Push(ctx context.Context, n *model.Notification) error {
	user, err := s.users.GetByID(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("get recipient: %w", err)
	}

	// Без привязки Telegram доставлять некуда
	if user == nil || user.TelegramID == nil {
		s.logger.Debug("Recipient has no telegram, skipping",
			zap.Int64("user_id", n.UserID),
			zap.String("event_id", n.EventID.String()))
		return nil
	}

	_, err = s.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *user.TelegramID,
		Text:   FormatMessage(n),
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	return nil
}

// FormatMessage текст сообщения для мессенджера
func FormatMessage(n *model.Notification) string {
	return fmt.Sprintf("🚜 %s\n\n%s", n.Title, n.Message)
}
