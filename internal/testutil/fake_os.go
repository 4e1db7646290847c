package testutil

import (
	"sync"

	"github.com/reglet-dev/ankibridge/domain/entities"
	"github.com/reglet-dev/ankibridge/domain/ports"
)

var _ ports.PermissionSubsystem = (*FakePermissionOS)(nil)

// Request is one prompt shown by FakePermissionOS.
type Request struct {
	UI    string
	Names []string
	Code  int
}

// FakePermissionOS is a scriptable permission subsystem. Prompts are recorded
// and answered only when the test calls Deliver.
type FakePermissionOS struct {
	// RequestErr makes RequestPermissions fail.
	RequestErr error

	mu        sync.Mutex
	granted   map[string]bool
	requests  []Request
	listeners []ports.PermissionResultListener
}

// NewFakePermissionOS returns a subsystem with nothing granted.
func NewFakePermissionOS() *FakePermissionOS {
	return &FakePermissionOS{granted: map[string]bool{}}
}

// SetGranted changes the stored grant for name.
func (f *FakePermissionOS) SetGranted(name string, granted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.granted[name] = granted
}

func (f *FakePermissionOS) CheckSelfPermission(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.granted[name]
}

func (f *FakePermissionOS) RequestPermissions(ui ports.UIContext, names []string, code int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RequestErr != nil {
		return f.RequestErr
	}
	f.requests = append(f.requests, Request{UI: ui.Name(), Names: append([]string(nil), names...), Code: code})
	return nil
}

func (f *FakePermissionOS) AddResultListener(l ports.PermissionResultListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, l)
}

// Requests returns the prompts shown so far.
func (f *FakePermissionOS) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

// Deliver offers a permission result to the listeners in registration order
// and reports whether one consumed it. Granted results are stored first.
func (f *FakePermissionOS) Deliver(code int, names []string, results []entities.GrantResult) bool {
	f.mu.Lock()
	for i, name := range names {
		if i < len(results) && results[i] == entities.PermissionGranted {
			f.granted[name] = true
		}
	}
	listeners := append([]ports.PermissionResultListener(nil), f.listeners...)
	f.mu.Unlock()

	for _, l := range listeners {
		if l.OnRequestPermissionsResult(code, names, results) {
			return true
		}
	}
	return false
}

// UI is a named UIContext for tests.
type UI string

// Name implements ports.UIContext.
func (u UI) Name() string { return string(u) }
