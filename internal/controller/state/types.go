package state

import "time"

// UserState текущий шаг диалога пользователя с ботом
type UserState string

const (
	StateNone UserState = "" // Нет активного диалога

	// Фермер вводит фактические часы после /confirm <id>
	StateConfirmHours UserState = "confirm_hours"
	// Владелец вводит причину отмены после нажатия кнопки
	StateCancelNote UserState = "cancel_note"
)

// DialogTTL сколько живёт незавершённый диалог
const DialogTTL = 15 * time.Minute

// UserData данные незавершённого диалога
type UserData struct {
	State     UserState
	BookingID int64
	UpdatedAt time.Time
}
