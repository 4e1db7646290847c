// Package collection is a local reference host engine. It implements
// ports.ContentAPI over a SQLite database and a media directory, so the
// bridge can run outside the real host application.
package collection

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/reglet-dev/ankibridge/domain/entities"
	"github.com/reglet-dev/ankibridge/domain/ports"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema
const currentSchemaVersion = 1

// SpecVersion is the content API version this engine reports.
const SpecVersion = 2

var (
	// ErrNotFound is returned when a note, model or deck id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoProvider is returned by AddMediaFromURI without a file provider.
	ErrNoProvider = errors.New("no file provider configured")
)

var _ ports.ContentAPI = (*Collection)(nil)

type collectionConfig struct {
	provider    ports.FileProvider
	logger      *slog.Logger
	mediaDir    string
	packageName string
}

// Option configures a Collection.
type Option func(*collectionConfig)

// WithFileProvider lets the collection read media tokens as packageName.
func WithFileProvider(p ports.FileProvider, packageName string) Option {
	return func(c *collectionConfig) {
		c.provider = p
		c.packageName = packageName
	}
}

// WithMediaDir sets where media files are written.
// Default is "<collection dir>/collection.media".
func WithMediaDir(dir string) Option {
	return func(c *collectionConfig) {
		c.mediaDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *collectionConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Collection is a SQLite-backed host engine.
type Collection struct {
	db     *sql.DB
	config collectionConfig
}

// Open creates or opens a collection at path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string, opts ...Option) (*Collection, error) {
	cfg := collectionConfig{
		logger:   slog.Default(),
		mediaDir: filepath.Join(filepath.Dir(path), "collection.media"),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create collection directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Collection{db: db, config: cfg}, nil
}

// Close closes the database connection.
func (c *Collection) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// MediaDir returns the directory media files are written to.
func (c *Collection) MediaDir() string {
	return c.config.mediaDir
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// APIHostSpecVersion reports SpecVersion.
func (c *Collection) APIHostSpecVersion(context.Context) (int, error) {
	return SpecVersion, nil
}

func (c *Collection) meta(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *Collection) setMeta(ctx context.Context, key, value string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

func joinFields(fields []string) string {
	return strings.Join(fields, entities.FieldSeparator)
}

func splitFields(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, entities.FieldSeparator)
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}
