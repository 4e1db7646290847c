package collection

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/reglet-dev/ankibridge/domain/entities"
)

// maxMediaSize bounds a single media read.
const maxMediaSize = 100 << 20

// AddMediaFromURI reads the staged file behind token through the file
// provider and stores it in the media directory. When preferredName is taken
// by different content a numeric suffix is added; identical content reuses
// the existing name.
func (c *Collection) AddMediaFromURI(ctx context.Context, token entities.MediaToken, preferredName, mimeType string) (string, error) {
	if c.config.provider == nil {
		return "", ErrNoProvider
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rc, err := c.config.provider.Open(c.config.packageName, token.URI)
	if err != nil {
		return "", fmt.Errorf("open media: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(rc, maxMediaSize+1))
	rc.Close()
	if err != nil {
		return "", fmt.Errorf("read media: %w", err)
	}
	if len(data) > maxMediaSize {
		return "", fmt.Errorf("media exceeds %d bytes", maxMediaSize)
	}

	if err := os.MkdirAll(c.config.mediaDir, 0o700); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}

	name, err := c.uniqueMediaName(ctx, cleanMediaName(preferredName), data)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(c.config.mediaDir, name), data, 0o600); err != nil {
		return "", fmt.Errorf("write media: %w", err)
	}

	if _, err := c.db.ExecContext(ctx,
		`INSERT INTO media (name, mime_type, size) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET mime_type = excluded.mime_type, size = excluded.size`,
		name, mimeType, len(data)); err != nil {
		return "", fmt.Errorf("record media: %w", err)
	}

	c.config.logger.DebugContext(ctx, "media added", "name", name, "mime_type", mimeType, "size", len(data))
	return name, nil
}

func cleanMediaName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "media"
	}
	return name
}

func (c *Collection) uniqueMediaName(ctx context.Context, name string, data []byte) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	for i := 1; ; i++ {
		existing, err := os.ReadFile(filepath.Join(c.config.mediaDir, candidate))
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("check media name: %w", err)
		}
		if bytes.Equal(existing, data) {
			return candidate, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
}

// MediaMimeType returns the recorded MIME type of a media file.
func (c *Collection) MediaMimeType(ctx context.Context, name string) (string, error) {
	var mime string
	err := c.db.QueryRowContext(ctx, `SELECT mime_type FROM media WHERE name = ?`, name).Scan(&mime)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("media %q: %w", name, ErrNotFound)
	}
	return mime, err
}
