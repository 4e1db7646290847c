// Package fileprovider exposes files under one root directory as
// content://<authority>/<relative path> URIs that other packages can read
// only after an explicit grant.
package fileprovider

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/reglet-dev/ankibridge/domain/ports"
)

// Scheme is the URI scheme of every token the provider hands out.
const Scheme = "content://"

var (
	// ErrOutsideRoot is returned for paths that do not live under the root.
	ErrOutsideRoot = errors.New("path is outside the provider root")

	// ErrForeignURI is returned for URIs of another authority.
	ErrForeignURI = errors.New("uri does not belong to this provider")

	// ErrNotGranted is returned when a package opens a URI it holds no grant for.
	ErrNotGranted = errors.New("read access not granted")
)

var _ ports.FileProvider = (*Provider)(nil)

// Provider maps files under root to URIs and tracks per-package read grants.
type Provider struct {
	grants    map[string]map[string]struct{} // uri -> packages
	authority string
	root      string
	mu        sync.Mutex
}

// New creates a provider for root under the given authority.
func New(authority, root string) (*Provider, error) {
	if authority == "" {
		return nil, fmt.Errorf("fileprovider: authority cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("fileprovider: resolve root: %w", err)
	}
	return &Provider{
		authority: authority,
		root:      abs,
		grants:    make(map[string]map[string]struct{}),
	}, nil
}

// Authority returns the URI authority.
func (p *Provider) Authority() string {
	return p.authority
}

// Root returns the absolute provider root.
func (p *Provider) Root() string {
	return p.root
}

// URIForFile returns the content URI for path.
func (p *Provider) URIForFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(p.root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", path, ErrOutsideRoot)
	}
	return Scheme + p.authority + "/" + filepath.ToSlash(rel), nil
}

// GrantURIPermission lets pkg read uri.
func (p *Provider) GrantURIPermission(pkg, uri string) error {
	if _, err := p.pathFor(uri); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.grants[uri] == nil {
		p.grants[uri] = make(map[string]struct{})
	}
	p.grants[uri][pkg] = struct{}{}
	return nil
}

// RevokeURIPermission withdraws every grant on uri.
func (p *Provider) RevokeURIPermission(uri string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.grants, uri)
}

// Open opens uri on behalf of pkg.
func (p *Provider) Open(pkg, uri string) (io.ReadCloser, error) {
	path, err := p.pathFor(uri)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	_, granted := p.grants[uri][pkg]
	p.mu.Unlock()
	if !granted {
		return nil, fmt.Errorf("%s for %s: %w", uri, pkg, ErrNotGranted)
	}

	return os.Open(path)
}

func (p *Provider) pathFor(uri string) (string, error) {
	prefix := Scheme + p.authority + "/"
	rel, ok := strings.CutPrefix(uri, prefix)
	if !ok || rel == "" {
		return "", fmt.Errorf("%s: %w", uri, ErrForeignURI)
	}
	path := filepath.Join(p.root, filepath.FromSlash(rel))
	if !strings.HasPrefix(path, p.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", uri, ErrOutsideRoot)
	}
	return path, nil
}
