package service

import (
	"errors"
	"fmt"
)

// ErrorKind класс доменной ошибки
type ErrorKind string

const (
	KindInvalidInput        ErrorKind = "invalid_input"
	KindResourceUnavailable ErrorKind = "resource_unavailable"
	KindSchedulingConflict  ErrorKind = "scheduling_conflict"
	KindInvalidTransition   ErrorKind = "invalid_transition"
	KindNotAuthorized       ErrorKind = "not_authorized"
	KindNotFound            ErrorKind = "not_found"
)

// Error доменная ошибка: вызывающий получает вид ошибки и сообщение,
// транзакция при этом полностью откатывается
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is сравнивает ошибки по виду, чтобы работал errors.Is(err, ErrNotFound)
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidInput        = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrResourceUnavailable = &Error{Kind: KindResourceUnavailable, Message: "resource unavailable"}
	ErrSchedulingConflict  = &Error{Kind: KindSchedulingConflict, Message: "scheduling conflict"}
	ErrInvalidTransition   = &Error{Kind: KindInvalidTransition, Message: "invalid transition"}
	ErrNotAuthorized       = &Error{Kind: KindNotAuthorized, Message: "not authorized"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf возвращает вид доменной ошибки; ok=false для внутренних ошибок
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
