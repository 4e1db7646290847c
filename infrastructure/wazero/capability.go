package wazero

import (
	"fmt"

	"github.com/reglet-dev/ankibridge/domain/entities"
)

// MethodPolicy decides which bridge methods a guest may invoke.
type MethodPolicy interface {
	// Allow returns nil if guest may call method.
	Allow(guest, method string) error
}

// MethodPolicyFunc adapts a function to MethodPolicy.
type MethodPolicyFunc func(guest, method string) error

// Allow implements MethodPolicy.
func (f MethodPolicyFunc) Allow(guest, method string) error {
	return f(guest, method)
}

// AllowMethods returns a policy admitting only the named methods for every guest.
func AllowMethods(methods ...string) MethodPolicy {
	allowed := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		allowed[m] = struct{}{}
	}
	return MethodPolicyFunc(func(guest, method string) error {
		if _, ok := allowed[method]; ok {
			return nil
		}
		return &MethodDeniedError{Guest: guest, Method: method}
	})
}

// MethodDeniedError is returned when a guest calls a method outside its policy.
type MethodDeniedError struct {
	Guest  string
	Method string
}

func (e *MethodDeniedError) Error() string {
	return fmt.Sprintf("guest %q may not call %s", e.Guest, e.Method)
}

// ToErrorDetail reports the refusal as PermissionDenied.
func (e *MethodDeniedError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{
		Message: e.Error(),
		Type:    entities.ErrorTypePermissionDenied,
		Code:    e.Method,
		Details: map[string]any{"guest": e.Guest},
	}
}
