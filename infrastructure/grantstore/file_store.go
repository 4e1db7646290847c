package grant_store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/reglet-dev/ankibridge/domain/entities"
	"github.com/reglet-dev/ankibridge/domain/ports"
	"gopkg.in/yaml.v3"
)

// fileStoreConfig holds configuration for the FileStore.
type fileStoreConfig struct {
	path     string      // Path to the grants file
	dirPerm  os.FileMode // Permission for created directories
	filePerm os.FileMode // Permission for the grants file
}

// DefaultPath is $HOME/.ankibridge/permissions.yaml.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".ankibridge", "permissions.yaml")
}

func defaultFileStoreConfig() fileStoreConfig {
	return fileStoreConfig{
		path:     DefaultPath(),
		dirPerm:  0o700,
		filePerm: 0o600, // User-only read/write (secure default)
	}
}

// FileStoreOption configures a FileStore instance.
type FileStoreOption func(*fileStoreConfig)

// WithPath sets the path to the grants file.
func WithPath(path string) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.path = path
	}
}

// WithFilePermissions sets the file permissions for the grants file.
// Default is 0o600 (user-only). Use with caution.
func WithFilePermissions(perm os.FileMode) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.filePerm = perm
	}
}

// WithDirPermissions sets the directory permissions for the grants directory.
// Default is 0o700.
func WithDirPermissions(perm os.FileMode) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.dirPerm = perm
	}
}

// ErrInvalidPermission is returned for a grant entry that is not a
// permission name.
var ErrInvalidPermission = errors.New("invalid permission name")

// permissionName matches names such as com.ichi2.anki.permission.READ_WRITE_DATABASE.
var permissionName = regexp.MustCompile(`^[A-Za-z0-9_]+([.:-][A-Za-z0-9_]+)*$`)

// FileStore persists OS-level permission grants as YAML. The file always
// holds a sorted, duplicate-free list of valid names.
type FileStore struct {
	config fileStoreConfig
}

// NewFileStore creates a new FileStore with the given options.
func NewFileStore(opts ...FileStoreOption) ports.GrantStore {
	cfg := defaultFileStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &FileStore{config: cfg}
}

// Load returns the stored grants, normalized. A missing file is an empty set.
// A hand-edited entry that is not a permission name fails the load.
func (s *FileStore) Load() (*entities.PermissionGrants, error) {
	data, err := os.ReadFile(s.config.path)
	if os.IsNotExist(err) {
		return &entities.PermissionGrants{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read grant store: %w", err)
	}

	var grants entities.PermissionGrants
	if err := yaml.Unmarshal(data, &grants); err != nil {
		return nil, fmt.Errorf("failed to parse grant store: %w", err)
	}
	names, err := normalize(grants.Granted)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.config.path, err)
	}
	return &entities.PermissionGrants{Granted: names}, nil
}

// Save validates and normalizes grants, then replaces the store file through
// a rename. An invalid name leaves the file untouched.
func (s *FileStore) Save(grants *entities.PermissionGrants) error {
	var names []string
	if grants != nil {
		var err error
		if names, err = normalize(grants.Granted); err != nil {
			return err
		}
	}
	data, err := yaml.Marshal(&entities.PermissionGrants{Granted: names})
	if err != nil {
		return fmt.Errorf("failed to marshal grants: %w", err)
	}

	dir := filepath.Dir(s.config.path)
	if err := os.MkdirAll(dir, s.config.dirPerm); err != nil {
		return fmt.Errorf("failed to create grant store directory: %w", err)
	}
	if err := s.replace(dir, data); err != nil {
		return fmt.Errorf("failed to write grant store: %w", err)
	}
	return nil
}

// ConfigPath returns the path to the backing store.
func (s *FileStore) ConfigPath() string {
	return s.config.path
}

func (s *FileStore) replace(dir string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.config.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := tmp.Chmod(s.config.filePerm); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.config.path)
}

// normalize trims, validates, sorts and de-duplicates names.
func normalize(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if !permissionName.MatchString(name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPermission, name)
		}
		out = append(out, name)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
