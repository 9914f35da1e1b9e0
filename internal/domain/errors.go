package domain

import (
	"errors"
	"fmt"
)

// ErrorKind классифицирует ошибки ядра
type ErrorKind string

const (
	KindNotFound           ErrorKind = "NOT_FOUND"
	KindConflict           ErrorKind = "CONFLICT"
	KindInvalidArgument    ErrorKind = "INVALID_ARGUMENT"
	KindBackendUnavailable ErrorKind = "BACKEND_UNAVAILABLE"
	KindInternal           ErrorKind = "INTERNAL"
)

// Error — структурированная ошибка ядра: вид, ресурс и идентификатор,
// достаточные для конкретного сообщения на стороне представления
type Error struct {
	Kind     ErrorKind `json:"kind"`
	Resource string    `json:"resource,omitempty"`
	ID       string    `json:"id,omitempty"`
	Message  string    `json:"message"`
	cause    error
}

func (e *Error) Error() string {
	if e.Resource != "" && e.ID != "" {
		return fmt.Sprintf("%s: %s %s: %s", e.Kind, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func NotFound(resource, id string) *Error {
	return &Error{
		Kind:     KindNotFound,
		Resource: resource,
		ID:       id,
		Message:  fmt.Sprintf("%s with id %s not found", resource, id),
	}
}

func Conflict(resource, id, message string) *Error {
	return &Error{Kind: KindConflict, Resource: resource, ID: id, Message: message}
}

func InvalidArgument(message string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: message}
}

// BackendUnavailable оборачивает отказ I/O хранилища объектов или каталога.
// Единственный вид, который имеет смысл ретраить на стороне вызывающего.
func BackendUnavailable(operation string, err error) *Error {
	return &Error{
		Kind:    KindBackendUnavailable,
		Message: fmt.Sprintf("%s failed: %v", operation, err),
		cause:   err,
	}
}

// Internal сигнализирует нарушение инварианта, обнаруженное в рантайме.
// Такие ошибки никогда не исправляются молча — это след более ранней ошибки.
func Internal(message string) *Error {
	return &Error{Kind: KindInternal, Message: message}
}

// KindOf достаёт вид из любой обёрнутой ошибки ядра.
// Ошибки не нашего типа считаются внутренними.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind проверяет вид ошибки с учётом обёрток
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable сообщает, допускает ли ошибка повторную попытку вызова
func Retryable(err error) bool {
	return IsKind(err, KindBackendUnavailable)
}
