package permission

import (
	"log/slog"
	"slices"

	domainerrors "github.com/reglet-dev/ankibridge/domain/errors"
	"github.com/reglet-dev/ankibridge/domain/entities"
	"github.com/reglet-dev/ankibridge/domain/ports"
)

const (
	// DefaultPermission is the capability the bridge needs from the host.
	DefaultPermission = "com.ichi2.anki.permission.READ_WRITE_DATABASE"

	// DefaultRequestCode tags the bridge's prompts so results can be told apart
	// from other consumers sharing the same UI context.
	DefaultRequestCode = 4321
)

var _ ports.PermissionResultListener = (*Gate)(nil)

// gateConfig holds configuration for the Gate.
type gateConfig struct {
	logger     *slog.Logger
	permission string
	code       int
}

func defaultGateConfig() gateConfig {
	return gateConfig{
		permission: DefaultPermission,
		code:       DefaultRequestCode,
		logger:     slog.Default(),
	}
}

// Option configures a Gate.
type Option func(*gateConfig)

// WithPermission sets the capability name the gate checks and requests.
func WithPermission(name string) Option {
	return func(c *gateConfig) {
		c.permission = name
	}
}

// WithRequestCode sets the code attached to prompts.
func WithRequestCode(code int) Option {
	return func(c *gateConfig) {
		c.code = code
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *gateConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Gate tracks whether the bridge's capability is granted and runs the prompt
// handshake. The pending slot is its only mutable state.
type Gate struct {
	os     ports.PermissionSubsystem
	logger *slog.Logger
	name   string
	slot   pendingSlot
	code   int
}

// NewGate creates a gate over os and registers it as a result listener.
func NewGate(os ports.PermissionSubsystem, opts ...Option) *Gate {
	cfg := defaultGateConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	g := &Gate{
		os:     os,
		logger: cfg.logger,
		name:   cfg.permission,
		code:   cfg.code,
	}
	os.AddResultListener(g)
	return g
}

// Permission returns the capability name the gate guards.
func (g *Gate) Permission() string {
	return g.name
}

// CheckGranted reports the current OS grant state. No side effects.
func (g *Gate) CheckGranted() bool {
	return g.os.CheckSelfPermission(g.name)
}

// RequestGranted resolves resolve with the grant state, prompting in ui when
// the capability is not yet granted.
//
// When already granted it resolves true at once and leaves the slot empty.
// Without a UI context it resolves false. If a request is already pending it
// returns ErrRequestPending and does not call resolve.
func (g *Gate) RequestGranted(ui ports.UIContext, resolve Resolver) error {
	if g.CheckGranted() {
		resolve(true)
		return nil
	}

	if ui == nil {
		g.logger.Warn("permission prompt needs a UI context", "permission", g.name)
		resolve(false)
		return nil
	}

	if !g.slot.arm(g.code, resolve) {
		return domainerrors.ErrRequestPending
	}

	g.logger.Info("requesting permission", "permission", g.name, "code", g.code, "ui", ui.Name())
	if err := g.os.RequestPermissions(ui, []string{g.name}, g.code); err != nil {
		g.logger.Error("permission prompt failed", "permission", g.name, "error", err)
		g.slot.resolveIfMatch(g.code, false)
	}
	return nil
}

// OnRequestPermissionsResult consumes OS results carrying the gate's code and
// permission name. Anything else is left for other listeners.
func (g *Gate) OnRequestPermissionsResult(code int, permissions []string, results []entities.GrantResult) bool {
	if code != g.code {
		return false
	}
	idx := slices.Index(permissions, g.name)
	if idx < 0 {
		return false
	}

	granted := false
	if idx < len(results) {
		granted = results[idx] == entities.PermissionGranted
	}

	if !g.slot.resolveIfMatch(code, granted) {
		g.logger.Debug("permission result with no pending request", "code", code)
		return true
	}
	g.logger.Info("permission request resolved", "permission", g.name, "granted", granted)
	return true
}

// Pending reports whether a request is waiting for the OS.
func (g *Gate) Pending() bool {
	return g.slot.armed()
}

// Abandon drops a pending request without resolving it. Used when the UI
// context hosting the prompt goes away.
func (g *Gate) Abandon() {
	if g.slot.abandon() {
		g.logger.Warn("pending permission request abandoned", "permission", g.name)
	}
}
