package repository

import (
	"context"
	"fmt"

	"github.com/uzhavango/rental_core/internal/repository/base"
)

// SettingRepository настройки платформы (ключ/значение)
type SettingRepository struct {
	*base.Repository
}

func NewSettingRepository(q base.Querier) *SettingRepository {
	return &SettingRepository{Repository: base.NewRepository(q)}
}

// Get возвращает сырое значение настройки; found=false если ключа нет
func (r *SettingRepository) Get(ctx context.Context, key string) (value string, found bool, err error) {
	query := `SELECT value FROM platform_settings WHERE key = $1`

	err = r.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if base.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}

	return value, true, nil
}

// Set сохраняет значение настройки
func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO platform_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := r.ExecAffected(ctx, query, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}

	return nil
}
