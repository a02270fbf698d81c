package state

import (
	"sync"
	"time"
)

// Manager хранит диалоги пользователей в памяти процесса
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*UserData // telegramID -> UserData
	ttl    time.Duration
	now    func() time.Time
}

// NewManager создаёт новый менеджер состояний
func NewManager() *Manager {
	return &Manager{
		states: make(map[int64]*UserData),
		ttl:    DialogTTL,
		now:    time.Now,
	}
}

// Get получает текущий диалог пользователя; просроченный диалог считается завершённым
func (sm *Manager) Get(telegramID int64) (UserData, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	data, exists := sm.states[telegramID]
	if !exists || sm.now().Sub(data.UpdatedAt) > sm.ttl {
		return UserData{}, false
	}
	return *data, true
}

// Begin начинает диалог по бронированию
func (sm *Manager) Begin(telegramID int64, state UserState, bookingID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		delete(sm.states, telegramID)
		return
	}

	sm.states[telegramID] = &UserData{
		State:     state,
		BookingID: bookingID,
		UpdatedAt: sm.now(),
	}
}

// Clear завершает диалог пользователя
func (sm *Manager) Clear(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, telegramID)
}

// Sweep удаляет просроченные диалоги
func (sm *Manager) Sweep() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for id, data := range sm.states {
		if sm.now().Sub(data.UpdatedAt) > sm.ttl {
			delete(sm.states, id)
			removed++
		}
	}
	return removed
}
