package handlers

import (
	"errors"

	"github.com/uzhavango/rental_core/internal/service"
)

// Ошибки уровня бота
var (
	ErrNotLinked     = errors.New("telegram account is not linked")
	ErrInvalidFormat = errors.New("invalid command format")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotLinked):
		return "❌ Your Telegram account is not linked yet. Use /start to see your Telegram ID."
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Invalid command format. See /help."
	}

	var domainErr *service.Error
	if errors.As(err, &domainErr) {
		switch domainErr.Kind {
		case service.KindNotFound:
			return "❌ " + domainErr.Message
		case service.KindNotAuthorized:
			return "🚫 " + domainErr.Message
		case service.KindSchedulingConflict, service.KindResourceUnavailable:
			return "⚠️ " + domainErr.Message
		default:
			return "❌ " + domainErr.Message
		}
	}

	return "❌ Something went wrong. Please try again later."
}
