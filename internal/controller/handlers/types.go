package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/uzhavango/rental_core/internal/controller/state"
	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/service"
	"go.uber.org/zap"
)

// BookingAPI операции бронирования, доступные из бота
type BookingAPI interface {
	ListForActor(ctx context.Context, actorID int64, role model.UserRole) ([]*model.Booking, error)
	Transition(ctx context.Context, req service.TransitionRequest) (*model.Booking, error)
	ConfirmCompletion(ctx context.Context, bookingID, farmerID int64, confirmedHours int) (*model.Payment, error)
}

// UserFinder поиск пользователя по привязанному Telegram аккаунту
type UserFinder interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
}

// Messenger часть API бота, которой пользуются обработчики (*bot.Bot)
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// HandlerFunc обработчик, не зависящий от конкретного клиента бота
type HandlerFunc func(ctx context.Context, m Messenger, update *models.Update)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	users        UserFinder
	bookings     BookingAPI
	stateManager *state.Manager
	logger       *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	users UserFinder,
	bookings BookingAPI,
	stateManager *state.Manager,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		users:        users,
		bookings:     bookings,
		stateManager: stateManager,
		logger:       logger,
	}
}

// Bind превращает обработчик в bot.HandlerFunc
func Bind(fn HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		fn(ctx, b, update)
	}
}
