package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/repository"
	"go.uber.org/zap"
)

type memUsers struct {
	byID map[int64]*model.User
}

func (m *memUsers) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	for _, u := range m.byID {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (m *memUsers) LinkTelegram(_ context.Context, userID, telegramID int64) error {
	u, ok := m.byID[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	for id, other := range m.byID {
		if id != userID && other.TelegramID != nil && *other.TelegramID == telegramID {
			return repository.ErrTelegramTaken
		}
	}
	u.TelegramID = &telegramID
	return nil
}

func newUsers() *memUsers {
	return &memUsers{byID: map[int64]*model.User{
		1: {ID: 1, Role: model.UserRoleFarmer, Name: "Ravi"},
		2: {ID: 2, Role: model.UserRoleOwner, Name: "Meena"},
	}}
}

func TestUserService_LinkTelegram(t *testing.T) {
	svc := NewUserService(newUsers(), zap.NewNop())
	ctx := context.Background()

	user, err := svc.LinkTelegram(ctx, 1, 555)
	require.NoError(t, err)
	require.NotNil(t, user.TelegramID)
	assert.Equal(t, int64(555), *user.TelegramID)

	found, err := svc.GetByTelegramID(ctx, 555)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(1), found.ID)

	missing, err := svc.GetByTelegramID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserService_LinkTelegramErrors(t *testing.T) {
	svc := NewUserService(newUsers(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.LinkTelegram(ctx, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.LinkTelegram(ctx, 42, 555)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.LinkTelegram(ctx, 1, 555)
	require.NoError(t, err)
	_, err = svc.LinkTelegram(ctx, 2, 555)
	assert.ErrorIs(t, err, ErrResourceUnavailable)
}
