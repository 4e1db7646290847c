// Package config loads the bridge configuration from YAML, a .env file and
// ANKIBRIDGE_* environment variables, in that order of precedence (lowest first).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ANKIBRIDGE_"

// validate is a package-level singleton for better performance.
var validate = validator.New()

// Config is the full bridge configuration.
type Config struct {
	Permission     PermissionConfig `yaml:"permission" json:"permission"`
	Host           HostConfig       `yaml:"host" json:"host"`
	Staging        StagingConfig    `yaml:"staging" json:"staging"`
	Log            LogConfig        `yaml:"log" json:"log"`
	HTTP           HTTPConfig       `yaml:"http" json:"http"`
	CollectionPath string           `yaml:"collection_path" json:"collection_path" validate:"required"`
}

// PermissionConfig names the guarded capability.
type PermissionConfig struct {
	Name           string `yaml:"name" json:"name" validate:"required"`
	GrantStorePath string `yaml:"grant_store_path" json:"grant_store_path" validate:"required"`
	RequestCode    int    `yaml:"request_code" json:"request_code" validate:"gt=0"`
}

// HostConfig identifies the host engine process.
type HostConfig struct {
	Package string `yaml:"package" json:"package" validate:"required"`
}

// StagingConfig controls transient media files.
type StagingConfig struct {
	Dir       string `yaml:"dir" json:"dir" validate:"required"`
	Authority string `yaml:"authority" json:"authority" validate:"required"`
}

// LogConfig controls the slog output.
type LogConfig struct {
	Level  string `yaml:"level" json:"level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `yaml:"format" json:"format" validate:"oneof=text json"`
}

// HTTPConfig controls the HTTP transport.
type HTTPConfig struct {
	Addr           string `yaml:"addr" json:"addr" validate:"required"`
	MaxRequestSize int64  `yaml:"max_request_size" json:"max_request_size" validate:"gt=0"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	base := filepath.Join(home, ".ankibridge")

	return Config{
		Permission: PermissionConfig{
			Name:           "com.ichi2.anki.permission.READ_WRITE_DATABASE",
			RequestCode:    4321,
			GrantStorePath: filepath.Join(base, "permissions.yaml"),
		},
		Host: HostConfig{Package: "com.ichi2.anki"},
		Staging: StagingConfig{
			Dir:       filepath.Join(os.TempDir(), "ankibridge-staging"),
			Authority: "dev.ankibridge.fileprovider",
		},
		Log:            LogConfig{Level: "info", Format: "text"},
		HTTP:           HTTPConfig{Addr: "127.0.0.1:8765", MaxRequestSize: 32 << 20},
		CollectionPath: filepath.Join(base, "collection.db"),
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), the .env file at envFile (skipped when empty or missing)
// and the process environment, then validates it.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if envFile != "" {
		// Load does not override variables already set in the environment.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate runs the struct validation rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	strs := map[string]*string{
		"PERMISSION":       &cfg.Permission.Name,
		"GRANT_STORE_PATH": &cfg.Permission.GrantStorePath,
		"HOST_PACKAGE":     &cfg.Host.Package,
		"STAGING_DIR":      &cfg.Staging.Dir,
		"AUTHORITY":        &cfg.Staging.Authority,
		"LOG_LEVEL":        &cfg.Log.Level,
		"LOG_FORMAT":       &cfg.Log.Format,
		"HTTP_ADDR":        &cfg.HTTP.Addr,
		"COLLECTION_PATH":  &cfg.CollectionPath,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := lookup(EnvPrefix + "REQUEST_CODE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sREQUEST_CODE: %w", EnvPrefix, err)
		}
		cfg.Permission.RequestCode = n
	}
	if v, ok := lookup(EnvPrefix + "MAX_REQUEST_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_REQUEST_SIZE: %w", EnvPrefix, err)
		}
		cfg.HTTP.MaxRequestSize = n
	}
	return nil
}
