package handlers

import (
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"github.com/uzhavango/rental_core/internal/controller/keyboard"
	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/service"
)

// StatusDisplay emoji и текст статуса
type StatusDisplay struct {
	Emoji string
	Text  string
}

var statusDisplays = map[model.BookingStatus]StatusDisplay{
	model.BookingStatusPending:   {"⏳", "Pending"},
	model.BookingStatusAccepted:  {"✅", "Accepted"},
	model.BookingStatusEnRoute:   {"🚜", "En route"},
	model.BookingStatusWorking:   {"🔧", "Working"},
	model.BookingStatusCompleted: {"✔️", "Completed"},
	model.BookingStatusPaid:      {"💰", "Paid"},
	model.BookingStatusCancelled: {"❌", "Cancelled"},
}

// GetStatusDisplay возвращает emoji и текст для статуса бронирования
func GetStatusDisplay(status model.BookingStatus) StatusDisplay {
	if display, ok := statusDisplays[status]; ok {
		return display
	}
	return StatusDisplay{"❓", status.Label()}
}

// actionLabels подписи кнопок перехода
var actionLabels = map[model.BookingStatus]string{
	model.BookingStatusAccepted:  "✅ Accept",
	model.BookingStatusEnRoute:   "🚜 En route",
	model.BookingStatusWorking:   "🔧 Start work",
	model.BookingStatusCompleted: "✔️ Complete",
	model.BookingStatusPaid:      "💰 Mark paid",
	model.BookingStatusCancelled: "❌ Cancel",
}

// FormatMoney форматирует сумму с двумя знаками после запятой
func FormatMoney(amount decimal.Decimal) string {
	return "INR " + amount.StringFixed(2)
}

// FormatBooking форматирует бронирование для отображения
func FormatBooking(b *model.Booking) string {
	display := GetStatusDisplay(b.Status)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Booking #%d\n\n", display.Emoji, b.ID)
	fmt.Fprintf(&sb, "📊 Status: %s\n", display.Text)
	fmt.Fprintf(&sb, "📅 Start: %s\n", b.StartTime.UTC().Format("02.01.2006 15:04"))
	fmt.Fprintf(&sb, "⏱ Hours: %d\n", b.Hours)
	fmt.Fprintf(&sb, "💰 Total: %s", FormatMoney(b.GrandTotal))

	if b.SurgeMultiplier.GreaterThan(service.SurgeNone) {
		fmt.Fprintf(&sb, " (surge %sx)", b.SurgeMultiplier.StringFixed(2))
	}
	if b.OwnerNote != nil {
		fmt.Fprintf(&sb, "\n📝 Owner: %s", *b.OwnerNote)
	}

	return sb.String()
}

// bookingActions кнопки действий, доступных пользователю по бронированию
func bookingActions(b *model.Booking, user *model.User) *keyboard.Builder {
	kb := keyboard.NewBuilder()

	var buttons []models.InlineKeyboardButton
	for _, target := range b.Status.AllowedTransitions() {
		if service.AuthorizeTransition(b, user.ID, user.Role, target) != nil {
			continue
		}
		buttons = append(buttons, keyboard.Button(actionLabels[target], keyboard.StatusData(b.ID, string(target))))
	}

	if user.Role == model.UserRoleFarmer && b.FarmerID == user.ID &&
		b.Status == model.BookingStatusCompleted && b.FarmerConfirmedAt == nil {
		buttons = append(buttons, keyboard.Button("👍 Confirm hours", keyboard.ConfirmData(b.ID)))
	}

	kb.Row(buttons...)
	return kb
}
