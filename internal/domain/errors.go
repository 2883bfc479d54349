package domain

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the engine reports to its callers.
type Kind string

const (
	KindNotFound              Kind = "NOT_FOUND"
	KindInsufficientStock     Kind = "INSUFFICIENT_STOCK"
	KindResourceBusy          Kind = "RESOURCE_BUSY"
	KindInvalidTransition     Kind = "INVALID_TRANSITION"
	KindInvalidWindow         Kind = "INVALID_WINDOW"
	KindInvalidArgument       Kind = "INVALID_ARGUMENT"
	KindContended             Kind = "CONTENDED"
	KindDependencyUnavailable Kind = "DEPENDENCY_UNAVAILABLE"
)

// ResourceKind names an exclusive resource that trips are scheduled on.
type ResourceKind string

const (
	ResourceVehicle ResourceKind = "VEHICLE"
	ResourceDriver  ResourceKind = "DRIVER"
)

// Conflict describes the trip that keeps a vehicle or driver busy.
type Conflict struct {
	Resource         ResourceKind `json:"resource"`
	ResourceID       string       `json:"resourceId"`
	TransportationID string       `json:"transportationId"`
	Window           Window       `json:"window"`
}

// Error is the typed failure returned by engine operations.
type Error struct {
	Kind     Kind
	Message  string
	Conflict *Conflict
	Err      error
}

// Sentinels for errors.Is matching by kind.
var (
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrInsufficientStock     = &Error{Kind: KindInsufficientStock}
	ErrResourceBusy          = &Error{Kind: KindResourceBusy}
	ErrInvalidTransition     = &Error{Kind: KindInvalidTransition}
	ErrInvalidWindow         = &Error{Kind: KindInvalidWindow}
	ErrInvalidArgument       = &Error{Kind: KindInvalidArgument}
	ErrContended             = &Error{Kind: KindContended}
	ErrDependencyUnavailable = &Error{Kind: KindDependencyUnavailable}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// WrapError creates an Error of the given kind around a cause.
func WrapError(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// NotFound reports a missing entity or reservation.
func NotFound(entity, id string) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %q not found", entity, id)}
}

// Busy reports a vehicle or driver overlap.
func Busy(c Conflict) error {
	return &Error{
		Kind:     KindResourceBusy,
		Message:  fmt.Sprintf("%s %s is busy with transportation %s during %s", c.Resource, c.ResourceID, c.TransportationID, c.Window),
		Conflict: &c,
	}
}

// KindOf extracts the kind of err, or "" for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ConflictOf returns the busy-resource details carried by err, if any.
func ConflictOf(err error) *Conflict {
	var e *Error
	if errors.As(err, &e) {
		return e.Conflict
	}
	return nil
}

// Retryable reports whether the caller may retry the same input.
// Only Contended and DependencyUnavailable qualify.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindContended, KindDependencyUnavailable:
		return true
	}
	return false
}
