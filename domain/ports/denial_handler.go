package ports

// DenialHandler is called when the bridge refuses a call because the
// permission is not granted. Implementations can log or collect metrics.
type DenialHandler interface {
	// OnDenial is called with the refused method and the missing permission.
	OnDenial(method string, permission string)
}
