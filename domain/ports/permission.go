package ports

import "github.com/reglet-dev/ankibridge/domain/entities"

// UIContext is the foreground surface able to host a permission prompt.
type UIContext interface {
	// Name identifies the context in logs.
	Name() string
}

// PermissionResultListener receives asynchronous permission results.
// It returns true when the callback was meant for it; the subsystem stops
// offering the callback to further listeners once one consumes it.
type PermissionResultListener interface {
	OnRequestPermissionsResult(code int, permissions []string, results []entities.GrantResult) bool
}

// PermissionSubsystem is the OS facility that owns permission state.
type PermissionSubsystem interface {
	// CheckSelfPermission reports whether name is currently granted. No side effects.
	CheckSelfPermission(name string) bool

	// RequestPermissions shows a prompt in ui. The answer arrives later, on an
	// arbitrary goroutine, through the registered listeners.
	RequestPermissions(ui UIContext, names []string, code int) error

	// AddResultListener registers l for permission results.
	AddResultListener(l PermissionResultListener)
}
