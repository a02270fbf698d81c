package keyboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
)

// Builder упрощает создание inline клавиатур
type Builder struct {
	rows [][]models.InlineKeyboardButton
}

// NewBuilder создаёт новый builder клавиатуры
func NewBuilder() *Builder {
	return &Builder{
		rows: make([][]models.InlineKeyboardButton, 0),
	}
}

// Row добавляет новый ряд кнопок
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

// Empty проверяет что кнопок нет
func (b *Builder) Empty() bool {
	return len(b.rows) == 0
}

// Build создаёт финальную клавиатуру
func (b *Builder) Build() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: b.rows,
	}
}

// Button создаёт кнопку
func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// statusPrefix префикс callback data для смены статуса: "st:<booking_id>:<status>"
const statusPrefix = "st"

// StatusData кодирует нажатие кнопки смены статуса
func StatusData(bookingID int64, target string) string {
	return fmt.Sprintf("%s:%d:%s", statusPrefix, bookingID, target)
}

// ParseStatusData разбирает callback data кнопки смены статуса
func ParseStatusData(data string) (bookingID int64, target string, err error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != statusPrefix {
		return 0, "", fmt.Errorf("invalid callback format: %q", data)
	}

	bookingID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil || bookingID <= 0 {
		return 0, "", fmt.Errorf("invalid booking id in callback: %q", data)
	}

	return bookingID, parts[2], nil
}

// confirmPrefix префикс callback data для подтверждения часов: "cf:<booking_id>"
const confirmPrefix = "cf"

// ConfirmData кодирует нажатие кнопки подтверждения выполненной работы
func ConfirmData(bookingID int64) string {
	return fmt.Sprintf("%s:%d", confirmPrefix, bookingID)
}

// ParseConfirmData разбирает callback data кнопки подтверждения
func ParseConfirmData(data string) (int64, error) {
	rest, ok := strings.CutPrefix(data, confirmPrefix+":")
	if !ok {
		return 0, fmt.Errorf("invalid callback format: %q", data)
	}

	bookingID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || bookingID <= 0 {
		return 0, fmt.Errorf("invalid booking id in callback: %q", data)
	}
	return bookingID, nil
}
