package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_BeginAndClear(t *testing.T) {
	sm := NewManager()

	_, ok := sm.Get(1)
	assert.False(t, ok)

	sm.Begin(1, StateConfirmHours, 42)
	data, ok := sm.Get(1)
	require.True(t, ok)
	assert.Equal(t, StateConfirmHours, data.State)
	assert.Equal(t, int64(42), data.BookingID)

	sm.Clear(1)
	_, ok = sm.Get(1)
	assert.False(t, ok)
}

func TestManager_BeginNoneClears(t *testing.T) {
	sm := NewManager()
	sm.Begin(1, StateCancelNote, 7)
	sm.Begin(1, StateNone, 0)

	_, ok := sm.Get(1)
	assert.False(t, ok)
}

func TestManager_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	sm := NewManager()
	sm.now = func() time.Time { return now }

	sm.Begin(1, StateConfirmHours, 42)
	sm.Begin(2, StateCancelNote, 43)

	now = now.Add(DialogTTL + time.Second)
	_, ok := sm.Get(1)
	assert.False(t, ok)

	sm.Begin(2, StateCancelNote, 43)
	assert.Equal(t, 1, sm.Sweep())

	_, ok = sm.Get(2)
	assert.True(t, ok)
}
