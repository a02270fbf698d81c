package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/uzhavango/rental_core/internal/controller/keyboard"
	"github.com/uzhavango/rental_core/internal/controller/state"
	"github.com/uzhavango/rental_core/internal/model"
	"go.uber.org/zap"
)

// HandleCallbackQuery обрабатывает нажатия на кнопки под бронированием
func (h *Handlers) HandleCallbackQuery(ctx context.Context, m Messenger, update *models.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}

	// В личном чате ID чата совпадает с ID пользователя
	telegramID := query.From.ID
	chatID := telegramID

	h.logger.Debug("Callback received",
		zap.Int64("telegram_id", telegramID),
		zap.String("data", query.Data))

	user, ok := h.requireUser(ctx, m, telegramID, chatID)
	if !ok {
		h.answerCallback(ctx, m, query, "")
		return
	}

	switch {
	case strings.HasPrefix(query.Data, "st:"):
		bookingID, target, err := keyboard.ParseStatusData(query.Data)
		if err != nil {
			h.answerCallback(ctx, m, query, ErrorMessage(ErrInvalidFormat))
			return
		}

		// Владелец может оставить причину отмены
		if target == string(model.BookingStatusCancelled) && user.Role == model.UserRoleOwner {
			h.answerCallback(ctx, m, query, "")
			h.stateManager.Begin(telegramID, state.StateCancelNote, bookingID)
			h.sendMessage(ctx, m, chatID, fmt.Sprintf("📝 Reason for cancelling booking #%d? Send - to skip.", bookingID))
			return
		}

		h.answerCallback(ctx, m, query, "")
		h.transition(ctx, m, chatID, user, bookingID, target, nil)

	case strings.HasPrefix(query.Data, "cf:"):
		bookingID, err := keyboard.ParseConfirmData(query.Data)
		if err != nil {
			h.answerCallback(ctx, m, query, ErrorMessage(ErrInvalidFormat))
			return
		}

		h.answerCallback(ctx, m, query, "")
		h.stateManager.Begin(telegramID, state.StateConfirmHours, bookingID)
		h.sendMessage(ctx, m, chatID, fmt.Sprintf("⏱ How many hours were worked on booking #%d?", bookingID))

	default:
		h.answerCallback(ctx, m, query, ErrorMessage(ErrInvalidFormat))
	}
}
