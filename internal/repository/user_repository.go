package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/repository/base"
)

var (
	// ErrUserNotFound пользователь с таким ID отсутствует
	ErrUserNotFound = errors.New("user not found")
	// ErrTelegramTaken Telegram аккаунт уже привязан к другому пользователю
	ErrTelegramTaken = errors.New("telegram account is linked to another user")
)

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(q base.Querier) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(q)}
}

// GetByTelegramID получает пользователя по Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query := `
		SELECT id, role, name, telegram_id, created_at
		FROM users
		WHERE telegram_id = $1
	`

	user, err := scanUser(r.QueryRow(ctx, query, telegramID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}

	return user, nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, role, name, telegram_id, created_at
		FROM users
		WHERE id = $1
	`

	user, err := scanUser(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

// LinkTelegram привязывает Telegram аккаунт к пользователю
func (r *UserRepository) LinkTelegram(ctx context.Context, userID, telegramID int64) error {
	query := `UPDATE users SET telegram_id = $2 WHERE id = $1`

	affected, err := r.ExecAffected(ctx, query, userID, telegramID)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return ErrTelegramTaken
		}
		return fmt.Errorf("link telegram: %w", err)
	}

	if affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	var role string

	err := row.Scan(&user.ID, &role, &user.Name, &user.TelegramID, &user.CreatedAt)
	if err != nil {
		return nil, err
	}

	user.Role = model.UserRole(role)
	return &user, nil
}
