// FILE: internal/pkg/apperror/errors.go
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies billing failures so transport layers can map them onto
// status codes without string matching.
type Kind string

const (
	KindValidation           Kind = "validation"
	KindNotFound             Kind = "not_found"
	KindDuplicateReference   Kind = "duplicate_reference"
	KindInvalidTransition    Kind = "invalid_transition"
	KindProvider             Kind = "provider"
	KindInsufficientCredits  Kind = "insufficient_credits"
	KindAlreadyActive        Kind = "already_active"
	KindNoActiveSubscription Kind = "no_active_subscription"
	KindInternal             Kind = "internal"
)

type Error struct {
	Kind    Kind
	Entity  string
	Id      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Validationf(format string, args ...interface{}) *Error {
	return Newf(KindValidation, format, args...)
}

func NotFound(entity, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Entity:  entity,
		Id:      id,
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

func DuplicateReference(ref string) *Error {
	return &Error{
		Kind:    KindDuplicateReference,
		Id:      ref,
		Message: fmt.Sprintf("external reference %s already recorded with a different shape", ref),
	}
}

func InvalidTransition(entity, id, from, to string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Entity:  entity,
		Id:      id,
		Message: fmt.Sprintf("%s %s cannot move from %s to %s", entity, id, from, to),
	}
}

func InsufficientCredits(userId string, requested, remaining int) *Error {
	return &Error{
		Kind:    KindInsufficientCredits,
		Entity:  "user",
		Id:      userId,
		Message: fmt.Sprintf("insufficient credits: requested %d, remaining %d", requested, remaining),
	}
}

func AlreadyActive(userId string) *Error {
	return &Error{
		Kind:    KindAlreadyActive,
		Entity:  "user",
		Id:      userId,
		Message: "user already has an active subscription",
	}
}

func NoActiveSubscription(userId string) *Error {
	return &Error{
		Kind:    KindNoActiveSubscription,
		Entity:  "user",
		Id:      userId,
		Message: "user has no active subscription",
	}
}

func Provider(provider string, err error) *Error {
	return &Error{
		Kind:    KindProvider,
		Entity:  provider,
		Message: fmt.Sprintf("payment provider %s failed: %v", provider, err),
		Err:     err,
	}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf returns the classification of err, or KindInternal for plain errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
