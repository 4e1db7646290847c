package ports

import "github.com/reglet-dev/ankibridge/domain/entities"

// GrantStore provides persistence for permission grants.
type GrantStore interface {
	// Load retrieves all granted permissions.
	// Returns empty PermissionGrants (not error) if no grants exist.
	Load() (*entities.PermissionGrants, error)

	// Save persists the granted permissions.
	Save(grants *entities.PermissionGrants) error

	// ConfigPath returns the path to the backing store (for user messaging).
	ConfigPath() string
}
