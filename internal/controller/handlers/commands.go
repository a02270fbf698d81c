package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/uzhavango/rental_core/internal/controller/state"
	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/service"
	"go.uber.org/zap"
)

// myBookingsLimit сколько последних бронирований показывать в /mybookings
const myBookingsLimit = 10

const helpText = "📚 Commands:\n\n" +
	"/mybookings - Your recent bookings with available actions\n" +
	"/status <id> <status> - Change booking status (accepted, en_route, working, completed, paid, cancelled)\n" +
	"/confirm <id> <hours> - Confirm hours worked and pay\n" +
	"/cancel - Abort the current dialog\n" +
	"/help - Show this help"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, m Messenger, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	user, err := h.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendMessage(ctx, m, chatID, ErrorMessage(err))
		return
	}

	if user == nil {
		h.sendMessage(ctx, m, chatID, fmt.Sprintf(
			"👋 Welcome to the tractor rental bot!\n\n"+
				"Your Telegram ID is %d. Link it in the app to manage bookings here and receive updates.",
			telegramID,
		))
		return
	}

	h.sendMessage(ctx, m, chatID, fmt.Sprintf("👋 Hello, %s!\n\n%s", user.Name, helpText))
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, m Messenger, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, m, update.Message.Chat.ID, helpText)
}

// HandleMyBookings показывает последние бронирования с кнопками действий
func (h *Handlers) HandleMyBookings(ctx context.Context, m Messenger, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, ok := h.requireUser(ctx, m, update.Message.From.ID, chatID)
	if !ok {
		return
	}

	bookings, err := h.bookings.ListForActor(ctx, user.ID, user.Role)
	if err != nil {
		h.logger.Error("Failed to list bookings", zap.Int64("user_id", user.ID), zap.Error(err))
		h.sendMessage(ctx, m, chatID, ErrorMessage(err))
		return
	}

	if len(bookings) == 0 {
		h.sendMessage(ctx, m, chatID, "📭 You have no bookings yet.")
		return
	}

	if len(bookings) > myBookingsLimit {
		bookings = bookings[:myBookingsLimit]
	}
	for _, b := range bookings {
		h.send(ctx, m, chatID, FormatBooking(b), bookingActions(b, user))
	}
}

// HandleStatus обрабатывает /status <id> <status>
func (h *Handlers) HandleStatus(ctx context.Context, m Messenger, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, ok := h.requireUser(ctx, m, update.Message.From.ID, chatID)
	if !ok {
		return
	}

	args := strings.Fields(update.Message.Text)
	if len(args) != 3 {
		h.sendMessage(ctx, m, chatID, ErrorMessage(ErrInvalidFormat))
		return
	}
	bookingID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		h.sendMessage(ctx, m, chatID, ErrorMessage(ErrInvalidFormat))
		return
	}

	h.transition(ctx, m, chatID, user, bookingID, args[2], nil)
}

// HandleConfirm обрабатывает /confirm <id> [hours]; без часов бот спрашивает их отдельно
func (h *Handlers) HandleConfirm(ctx context.Context, m Messenger, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	telegramID := update.Message.From.ID

	user, ok := h.requireUser(ctx, m, telegramID, chatID)
	if !ok {
		return
	}

	args := strings.Fields(update.Message.Text)
	if len(args) < 2 || len(args) > 3 {
		h.sendMessage(ctx, m, chatID, ErrorMessage(ErrInvalidFormat))
		return
	}
	bookingID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		h.sendMessage(ctx, m, chatID, ErrorMessage(ErrInvalidFormat))
		return
	}

	if len(args) == 2 {
		h.stateManager.Begin(telegramID, state.StateConfirmHours, bookingID)
		h.sendMessage(ctx, m, chatID, fmt.Sprintf("⏱ How many hours were worked on booking #%d?", bookingID))
		return
	}

	hours, err := strconv.Atoi(args[2])
	if err != nil {
		h.sendMessage(ctx, m, chatID, "❌ Hours must be a whole number.")
		return
	}

	h.confirm(ctx, m, chatID, user, bookingID, hours)
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, m Messenger, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID
	if _, active := h.stateManager.Get(telegramID); !active {
		h.sendMessage(ctx, m, update.Message.Chat.ID, "❌ Nothing to cancel.")
		return
	}

	h.stateManager.Clear(telegramID)
	h.sendMessage(ctx, m, update.Message.Chat.ID, "✅ Cancelled.\n\nUse /help to see available commands.")
}

// HandleTextMessage обрабатывает ответы внутри диалога
func (h *Handlers) HandleTextMessage(ctx context.Context, m Messenger, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	dialog, active := h.stateManager.Get(telegramID)
	if !active {
		return
	}

	user, ok := h.requireUser(ctx, m, telegramID, chatID)
	if !ok {
		h.stateManager.Clear(telegramID)
		return
	}

	text := strings.TrimSpace(update.Message.Text)

	switch dialog.State {
	case state.StateConfirmHours:
		hours, err := strconv.Atoi(text)
		if err != nil {
			// Диалог остаётся активным: ждём корректное число
			h.sendMessage(ctx, m, chatID, "❌ Hours must be a whole number. Try again or /cancel.")
			return
		}
		h.stateManager.Clear(telegramID)
		h.confirm(ctx, m, chatID, user, dialog.BookingID, hours)

	case state.StateCancelNote:
		h.stateManager.Clear(telegramID)
		var note *string
		if text != "-" {
			note = &text
		}
		h.transition(ctx, m, chatID, user, dialog.BookingID, string(model.BookingStatusCancelled), note)
	}
}

func (h *Handlers) transition(ctx context.Context, m Messenger, chatID int64, user *model.User, bookingID int64, target string, note *string) {
	booking, err := h.bookings.Transition(ctx, service.TransitionRequest{
		BookingID: bookingID,
		Target:    target,
		ActorID:   user.ID,
		ActorRole: user.Role,
		Note:      note,
	})
	if err != nil {
		h.logger.Info("Bot transition rejected",
			zap.Int64("booking_id", bookingID),
			zap.String("target", target),
			zap.Error(err))
		h.sendMessage(ctx, m, chatID, ErrorMessage(err))
		return
	}

	h.send(ctx, m, chatID, FormatBooking(booking), bookingActions(booking, user))
}

func (h *Handlers) confirm(ctx context.Context, m Messenger, chatID int64, user *model.User, bookingID int64, hours int) {
	payment, err := h.bookings.ConfirmCompletion(ctx, bookingID, user.ID, hours)
	if err != nil {
		h.logger.Info("Bot confirmation rejected",
			zap.Int64("booking_id", bookingID),
			zap.Error(err))
		h.sendMessage(ctx, m, chatID, ErrorMessage(err))
		return
	}

	h.sendMessage(ctx, m, chatID, fmt.Sprintf(
		"✅ Payment completed for booking #%d.\n\n🧾 Receipt: %s\n💰 Amount: %s",
		bookingID, payment.ReceiptNumber, FormatMoney(payment.Amount),
	))
}
