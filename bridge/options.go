package bridge

import (
	"log/slog"

	"github.com/reglet-dev/ankibridge/domain/policy"
	"github.com/reglet-dev/ankibridge/domain/ports"
	"github.com/reglet-dev/ankibridge/hostfuncs"
)

// bridgeConfig holds configuration for the Bridge.
type bridgeConfig struct {
	registry *hostfuncs.Registry
	stager   ports.MediaStager
	denials  ports.DenialHandler
	logger   *slog.Logger
}

func defaultBridgeConfig() bridgeConfig {
	return bridgeConfig{
		logger: slog.Default(),
	}
}

// Option defines a functional option for configuring the Bridge.
type Option func(*bridgeConfig)

// WithRegistry replaces the default operation registry.
func WithRegistry(registry *hostfuncs.Registry) Option {
	return func(c *bridgeConfig) {
		c.registry = registry
	}
}

// WithStager enables addMedia in the default registry.
// Ignored when WithRegistry is also given.
func WithStager(stager ports.MediaStager) Option {
	return func(c *bridgeConfig) {
		c.stager = stager
	}
}

// WithDenialHandler sets the handler told about refused calls.
// Default logs through the bridge logger.
func WithDenialHandler(h ports.DenialHandler) Option {
	return func(c *bridgeConfig) {
		c.denials = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *bridgeConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

func (c *bridgeConfig) complete() error {
	if c.denials == nil {
		c.denials = &policy.SlogDenialHandler{Logger: c.logger}
	}
	if c.registry != nil {
		return nil
	}
	registry, err := hostfuncs.NewRegistry(
		hostfuncs.WithMiddleware(
			hostfuncs.PanicRecoveryMiddleware(),
			hostfuncs.LoggingMiddleware(c.logger),
		),
		hostfuncs.WithBundle(hostfuncs.DefaultBundles(c.stager)...),
	)
	if err != nil {
		return err
	}
	c.registry = registry
	return nil
}
