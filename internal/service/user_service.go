package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/repository"
	"go.uber.org/zap"
)

// UserStore доступ к пользователям
type UserStore interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	LinkTelegram(ctx context.Context, userID, telegramID int64) error
}

type UserService struct {
	users  UserStore
	logger *zap.Logger
}

func NewUserService(users UserStore, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// GetByTelegramID получает пользователя по Telegram ID; nil если аккаунт не привязан
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	return user, nil
}

// LinkTelegram привязывает Telegram аккаунт, чтобы получать уведомления и работать через бота
func (s *UserService) LinkTelegram(ctx context.Context, userID, telegramID int64) (*model.User, error) {
	if telegramID <= 0 {
		return nil, newError(KindInvalidInput, "Telegram ID must be positive.")
	}

	err := s.users.LinkTelegram(ctx, userID, telegramID)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return nil, newError(KindNotFound, "User not found.")
	case errors.Is(err, repository.ErrTelegramTaken):
		return nil, newError(KindResourceUnavailable, "This Telegram account is already linked.")
	case err != nil:
		return nil, err
	}

	s.logger.Info("Telegram linked",
		zap.Int64("user_id", userID),
		zap.Int64("telegram_id", telegramID))

	return s.users.GetByID(ctx, userID)
}
