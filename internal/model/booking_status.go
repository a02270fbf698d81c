package model

import (
	"fmt"
	"strings"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // Ожидает ответа владельца
	BookingStatusAccepted  BookingStatus = "accepted"  // Принято владельцем
	BookingStatusEnRoute   BookingStatus = "en_route"  // Техника в пути
	BookingStatusWorking   BookingStatus = "working"   // Идут работы
	BookingStatusCompleted BookingStatus = "completed" // Работы завершены, ждём оплату
	BookingStatusPaid      BookingStatus = "paid"      // Оплачено
	BookingStatusCancelled BookingStatus = "cancelled" // Отменено
)

// Старые значения статусов, которые ещё встречаются в базе
const (
	legacyStatusRequested  = "requested"
	legacyStatusInProgress = "in_progress"
	legacyStatusRejected   = "rejected"
)

// bookingTransitions описывает допустимые переходы между статусами
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusAccepted, BookingStatusCancelled},
	BookingStatusAccepted:  {BookingStatusEnRoute, BookingStatusCancelled},
	BookingStatusEnRoute:   {BookingStatusWorking, BookingStatusCancelled},
	BookingStatusWorking:   {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted: {BookingStatusPaid},
	BookingStatusPaid:      {},
	BookingStatusCancelled: {},
}

// ActiveBookingStatuses статусы, которые занимают технику на своё окно времени
var ActiveBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusAccepted,
	BookingStatusEnRoute,
	BookingStatusWorking,
	BookingStatusCompleted,
	BookingStatusPaid,
}

// PipelineBookingStatuses статусы, создающие текущую нагрузку для расчёта surge
var PipelineBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusAccepted,
	BookingStatusEnRoute,
	BookingStatusWorking,
}

// legacyAliases старые значения, которые при чтении превращаются в статус
var legacyAliases = map[BookingStatus][]string{
	BookingStatusPending:   {legacyStatusRequested},
	BookingStatusWorking:   {legacyStatusInProgress},
	BookingStatusCancelled: {legacyStatusRejected},
}

// ParseBookingStatus нормализует сохранённое значение статуса.
// Используется только при чтении из базы.
func ParseBookingStatus(raw string) (BookingStatus, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case legacyStatusRequested:
		return BookingStatusPending, nil
	case legacyStatusInProgress:
		return BookingStatusWorking, nil
	case legacyStatusRejected:
		return BookingStatusCancelled, nil
	}

	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown booking status %q", raw)
	}
	return status, nil
}

// ParseTargetStatus нормализует запрошенный целевой статус (rejected -> cancelled)
func ParseTargetStatus(raw string) (BookingStatus, error) {
	return ParseBookingStatus(raw)
}

// IsValid проверяет что статус известен
func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo проверяет допустим ли переход в target
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal возвращает true если из статуса нет переходов
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// AllowedTransitions возвращает копию списка допустимых целевых статусов
func (s BookingStatus) AllowedTransitions() []BookingStatus {
	allowed := bookingTransitions[s]
	out := make([]BookingStatus, len(allowed))
	copy(out, allowed)
	return out
}

// Label возвращает человекочитаемое название статуса
func (s BookingStatus) Label() string {
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (s BookingStatus) String() string {
	return string(s)
}

// StatusStrings переводит статусы в строки для SQL параметров.
// Старые значения из базы добавляются к статусам, в которые они читаются.
func StatusStrings(statuses []BookingStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
		out = append(out, legacyAliases[s]...)
	}
	return out
}
