package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/uzhavango/rental_core/internal/controller/keyboard"
	"github.com/uzhavango/rental_core/internal/model"
	"go.uber.org/zap"
)

// requireUser находит пользователя по Telegram ID.
// Возвращает user и true если OK, nil и false если ответ пользователю уже отправлен.
func (h *Handlers) requireUser(ctx context.Context, m Messenger, telegramID, chatID int64) (*model.User, bool) {
	user, err := h.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendMessage(ctx, m, chatID, ErrorMessage(err))
		return nil, false
	}

	if user == nil {
		h.sendMessage(ctx, m, chatID, ErrorMessage(fmt.Errorf("telegram %d: %w", telegramID, ErrNotLinked)))
		return nil, false
	}

	return user, true
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, m Messenger, chatID int64, text string) {
	h.send(ctx, m, chatID, text, nil)
}

func (h *Handlers) send(ctx context.Context, m Messenger, chatID int64, text string, kb *keyboard.Builder) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if kb != nil && !kb.Empty() {
		params.ReplyMarkup = kb.Build()
	}

	if _, err := m.SendMessage(ctx, params); err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// answerCallback убирает индикатор загрузки с нажатой кнопки
func (h *Handlers) answerCallback(ctx context.Context, m Messenger, query *models.CallbackQuery, text string) {
	_, err := m.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: query.ID,
		Text:            text,
	})
	if err != nil {
		h.logger.Warn("Failed to answer callback", zap.String("callback_id", query.ID), zap.Error(err))
	}
}
