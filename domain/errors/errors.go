// Package errors provides the bridge's failure taxonomy.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/ankibridge/domain/entities"
)

// PermissionDeniedMessage is the fixed message carried by every PermissionDenied outcome.
const PermissionDeniedMessage = "Permission to use and modify AnkiDroid database not granted!"

var (
	// ErrRequestPending is returned when a permission request is issued while
	// another one is still waiting for its OS callback.
	ErrRequestPending = stdErrors.New("a permission request is already pending")

	// ErrNoUIContext is returned when a permission prompt is needed but no UI
	// context is attached to host it.
	ErrNoUIContext = stdErrors.New("no active UI context to host the permission prompt")

	// ErrNotAttached is returned for calls on a bridge with no host engine.
	ErrNotAttached = stdErrors.New("bridge is not attached to a host engine")
)

// DetailedError is implemented by every error in the taxonomy so transports
// can convert it to a structured ErrorDetail without a type switch.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
// Errors outside the taxonomy are reported as HostCallFailed.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    entities.ErrorTypeHostCallFailed,
	}
}

// TypeOf returns the taxonomy type of err, or "" for nil.
func TypeOf(err error) string {
	if d := ToErrorDetail(err); d != nil {
		return d.Type
	}
	return ""
}

// PermissionDeniedError is returned when a gated method is called without the grant.
type PermissionDeniedError struct {
	Method     string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return PermissionDeniedMessage
}

// ToErrorDetail implements DetailedError.
func (e *PermissionDeniedError) ToErrorDetail() *entities.ErrorDetail {
	d := &entities.ErrorDetail{Message: e.Error(), Type: entities.ErrorTypePermissionDenied, Code: e.Method}
	if e.Permission != "" {
		d.Details = map[string]any{"permission": e.Permission}
	}
	return d
}

// NotImplementedError marks a method name with no registry entry.
type NotImplementedError struct {
	Method string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("method %q is not implemented", e.Method)
}

// ToErrorDetail implements DetailedError.
func (e *NotImplementedError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: entities.ErrorTypeNotImplemented, Code: e.Method}
}

// MediaAddFailedError is returned when the host rejects a media payload.
type MediaAddFailedError struct {
	Err           error
	PreferredName string
	MimeType      string
}

func (e *MediaAddFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("adding media %q (%s) failed: %v", e.PreferredName, e.MimeType, e.Err)
	}
	return fmt.Sprintf("adding media %q (%s) failed", e.PreferredName, e.MimeType)
}

func (e *MediaAddFailedError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *MediaAddFailedError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: entities.ErrorTypeMediaAddFailed, Code: "addMedia"}
}

// HostCallFailedError wraps a failure reported by the host engine for a valid request.
type HostCallFailedError struct {
	Err    error
	Method string
}

func (e *HostCallFailedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("host call %s failed", e.Method)
	}
	return fmt.Sprintf("host call %s failed: %v", e.Method, e.Err)
}

func (e *HostCallFailedError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *HostCallFailedError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: entities.ErrorTypeHostCallFailed, Code: e.Method}
}

// ContractViolationError reports a missing or mis-shaped argument for a known method.
type ContractViolationError struct {
	Err      error
	Method   string
	Argument string
	Expected string
	Got      string
}

func (e *ContractViolationError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: invalid arguments: %v", e.Method, e.Err)
	case e.Got == "":
		return fmt.Sprintf("%s: missing required argument %q (%s)", e.Method, e.Argument, e.Expected)
	default:
		return fmt.Sprintf("%s: argument %q must be %s, got %s", e.Method, e.Argument, e.Expected, e.Got)
	}
}

func (e *ContractViolationError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ContractViolationError) ToErrorDetail() *entities.ErrorDetail {
	d := &entities.ErrorDetail{Message: e.Error(), Type: entities.ErrorTypeContractViolation, Code: e.Method}
	if e.Argument != "" {
		d.Details = map[string]any{"argument": e.Argument, "expected": e.Expected}
	}
	return d
}
