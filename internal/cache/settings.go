package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const keyPrefix = "platform_settings:"

// SettingSource источник настроек (таблица platform_settings)
type SettingSource interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Settings чтение настроек платформы с кэшем в Redis.
// Без Redis работает напрямую с источником.
type Settings struct {
	source SettingSource
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSettings создаёт кэш настроек. client может быть nil.
func NewSettings(source SettingSource, client *redis.Client, ttl time.Duration, logger *zap.Logger) *Settings {
	return &Settings{
		source: source,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// NewRedisClient подключается к Redis и проверяет соединение
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	return client, nil
}

// GetDecimalSetting возвращает числовую настройку.
// Если ключа нет или значение не разбирается, возвращается def.
func (s *Settings) GetDecimalSetting(ctx context.Context, key string, def decimal.Decimal) (decimal.Decimal, error) {
	raw, found, err := s.lookup(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	if !found {
		return def, nil
	}

	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		s.logger.Warn("Invalid platform setting, using default",
			zap.String("key", key),
			zap.String("value", raw),
			zap.String("default", def.String()))
		return def, nil
	}

	return value, nil
}

// SetSetting сохраняет настройку и сбрасывает её в кэше.
// Если Redis недоступен, старое значение живёт не дольше ttl.
func (s *Settings) SetSetting(ctx context.Context, key, value string) error {
	if err := s.source.Set(ctx, key, value); err != nil {
		return err
	}

	if err := s.Invalidate(ctx, key); err != nil {
		s.logger.Warn("Setting saved but cache not invalidated",
			zap.String("key", key),
			zap.Duration("stale_for", s.ttl),
			zap.Error(err))
	}

	return nil
}

// Invalidate удаляет настройку из кэша
func (s *Settings) Invalidate(ctx context.Context, key string) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("invalidate setting %s: %w", key, err)
	}
	return nil
}

func (s *Settings) lookup(ctx context.Context, key string) (string, bool, error) {
	if s.client != nil {
		raw, err := s.client.Get(ctx, keyPrefix+key).Result()
		switch {
		case err == nil:
			return raw, true, nil
		case errors.Is(err, redis.Nil):
		default:
			// Redis недоступен - читаем из базы
			s.logger.Warn("Settings cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	raw, found, err := s.source.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("load setting %s: %w", key, err)
	}

	if found && s.client != nil {
		if err := s.client.Set(ctx, keyPrefix+key, raw, s.ttl).Err(); err != nil {
			s.logger.Warn("Settings cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return raw, found, nil
}
