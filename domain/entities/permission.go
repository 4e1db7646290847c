package entities

import "slices"

// GrantResult is the per-permission answer delivered by the OS callback.
type GrantResult int

const (
	// PermissionGranted matches the platform's granted value.
	PermissionGranted GrantResult = 0

	// PermissionDenied matches the platform's denied value.
	PermissionDenied GrantResult = -1
)

// PermissionGrants is the persisted set of permissions the user has granted.
type PermissionGrants struct {
	Granted []string `json:"granted" yaml:"granted"`
}

// Has reports whether name has been granted.
func (g *PermissionGrants) Has(name string) bool {
	if g == nil {
		return false
	}
	return slices.Contains(g.Granted, name)
}

// Add records name as granted. Adding twice is a no-op.
func (g *PermissionGrants) Add(name string) {
	if g.Has(name) {
		return
	}
	g.Granted = append(g.Granted, name)
}

// Revoke removes name from the granted set.
func (g *PermissionGrants) Revoke(name string) {
	g.Granted = slices.DeleteFunc(g.Granted, func(s string) bool { return s == name })
}
