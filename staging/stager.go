// Package staging writes inbound media payloads to short-lived private files
// and exposes each one to the host engine through a single-use read grant.
package staging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/reglet-dev/ankibridge/domain/entities"
	"github.com/reglet-dev/ankibridge/domain/ports"
)

// DefaultName is used when the preferred name sanitizes to nothing.
const DefaultName = "media"

var _ ports.MediaStager = (*Stager)(nil)

type stagerConfig struct {
	logger   *slog.Logger
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// Option configures a Stager.
type Option func(*stagerConfig)

// WithLogger sets the logger used for cleanup failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *stagerConfig) {
		c.logger = logger
	}
}

// WithFilePermissions sets the mode of staged files. Default is 0o600.
func WithFilePermissions(perm os.FileMode) Option {
	return func(c *stagerConfig) {
		c.filePerm = perm
	}
}

// Stager stages media under dir, one random subdirectory per payload.
type Stager struct {
	provider    ports.FileProvider
	dir         string
	hostPackage string
	config      stagerConfig
}

// New creates a Stager. dir must be inside the provider's root.
func New(dir string, provider ports.FileProvider, hostPackage string, opts ...Option) *Stager {
	cfg := stagerConfig{
		logger:   slog.Default(),
		dirPerm:  0o700,
		filePerm: 0o600,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Stager{provider: provider, dir: dir, hostPackage: hostPackage, config: cfg}
}

// SanitizeName replaces whitespace and path separators with underscores.
func SanitizeName(name string) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	if clean == "" || clean == "." || clean == ".." {
		return DefaultName
	}
	return clean
}

// Stage writes payload to a private file and grants the host package read
// access to its URI.
func (s *Stager) Stage(ctx context.Context, payload entities.MediaPayload) (entities.StagedMedia, error) {
	if err := ctx.Err(); err != nil {
		return entities.StagedMedia{}, err
	}

	name := SanitizeName(payload.PreferredName)
	sub := filepath.Join(s.dir, uuid.NewString())
	if err := os.MkdirAll(sub, s.config.dirPerm); err != nil {
		return entities.StagedMedia{}, fmt.Errorf("create staging directory: %w", err)
	}

	path := filepath.Join(sub, name)
	staged := entities.StagedMedia{Name: name, Path: path}

	if err := os.WriteFile(path, payload.Bytes, s.config.filePerm); err != nil {
		s.cleanup(staged)
		return entities.StagedMedia{}, fmt.Errorf("write staged media: %w", err)
	}

	uri, err := s.provider.URIForFile(path)
	if err != nil {
		s.cleanup(staged)
		return entities.StagedMedia{}, fmt.Errorf("derive media uri: %w", err)
	}
	if err := s.provider.GrantURIPermission(s.hostPackage, uri); err != nil {
		s.cleanup(staged)
		return entities.StagedMedia{}, fmt.Errorf("grant media uri: %w", err)
	}

	staged.Token = entities.MediaToken{URI: uri, Grantee: s.hostPackage}
	return staged, nil
}

// Release revokes the token and removes the staged file with its directory.
// Failures are logged, not returned.
func (s *Stager) Release(staged entities.StagedMedia) {
	if staged.Token.URI != "" {
		s.provider.RevokeURIPermission(staged.Token.URI)
	}
	s.cleanup(staged)
}

func (s *Stager) cleanup(staged entities.StagedMedia) {
	if staged.Path == "" {
		return
	}
	if err := os.RemoveAll(filepath.Dir(staged.Path)); err != nil {
		s.config.logger.Warn("staged media not removed",
			slog.String("path", staged.Path),
			slog.String("error", err.Error()),
		)
	}
}
