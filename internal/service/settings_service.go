package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/uzhavango/rental_core/internal/model"
	"go.uber.org/zap"
)

// SettingWriter запись настроек платформы со сбросом кэша
type SettingWriter interface {
	SetSetting(ctx context.Context, key, value string) error
}

type SettingsService struct {
	settings SettingWriter
	logger   *zap.Logger
}

func NewSettingsService(settings SettingWriter, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		settings: settings,
		logger:   logger,
	}
}

// UpdateSetting меняет числовую настройку платформы. Только для администратора.
// Новое значение действует для бронирований, созданных после сохранения.
func (s *SettingsService) UpdateSetting(ctx context.Context, role model.UserRole, key, raw string) (decimal.Decimal, error) {
	if role != model.UserRoleAdmin {
		return decimal.Zero, newError(KindNotAuthorized, "Only admins can change platform settings.")
	}

	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, newError(KindInvalidInput, "Setting value must be a number.")
	}

	switch key {
	case SettingCommissionPct:
		if value.IsNegative() || value.GreaterThan(hundred) {
			return decimal.Zero, newError(KindInvalidInput, "Commission must be between 0 and 100 percent.")
		}
		value = value.Round(model.MoneyPlaces)
	case SettingSurgeThreshold:
		if value.IsNegative() || !value.IsInteger() {
			return decimal.Zero, newError(KindInvalidInput, "Surge threshold must be a non-negative whole number.")
		}
	default:
		return decimal.Zero, newError(KindNotFound, "Unknown setting %q.", key)
	}

	if err := s.settings.SetSetting(ctx, key, value.String()); err != nil {
		return decimal.Zero, fmt.Errorf("update setting %s: %w", key, err)
	}

	s.logger.Info("Platform setting updated",
		zap.String("key", key),
		zap.String("value", value.String()))

	return value, nil
}
