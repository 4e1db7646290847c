package prompter

import (
	"log/slog"
	"sync"

	"github.com/reglet-dev/ankibridge/domain/entities"
	"github.com/reglet-dev/ankibridge/domain/ports"
)

var _ ports.PermissionSubsystem = (*TerminalPermissions)(nil)

// Descriptions shown next to known permission names.
var descriptions = map[string]string{
	"com.ichi2.anki.permission.READ_WRITE_DATABASE": "Read and modify notes, decks, models and media in the collection.",
}

// TerminalPermissions is a permission subsystem for desktop use. Prompts run
// on their own goroutine; answers marked always are saved to the grant store,
// other grants last for the process lifetime.
type TerminalPermissions struct {
	prompter ports.Prompter
	store    ports.GrantStore
	logger   *slog.Logger

	mu        sync.Mutex
	session   map[string]bool
	listeners []ports.PermissionResultListener
	wg        sync.WaitGroup
}

// NewTerminalPermissions creates a subsystem over prompter and store.
func NewTerminalPermissions(prompter ports.Prompter, store ports.GrantStore, logger *slog.Logger) *TerminalPermissions {
	if logger == nil {
		logger = slog.Default()
	}
	return &TerminalPermissions{
		prompter: prompter,
		store:    store,
		logger:   logger,
		session:  make(map[string]bool),
	}
}

// CheckSelfPermission reports a session or stored grant for name.
func (t *TerminalPermissions) CheckSelfPermission(name string) bool {
	t.mu.Lock()
	granted := t.session[name]
	t.mu.Unlock()
	if granted {
		return true
	}

	grants, err := t.store.Load()
	if err != nil {
		t.logger.Warn("grant store unreadable", "path", t.store.ConfigPath(), "error", err)
		return false
	}
	return grants.Has(name)
}

// RequestPermissions prompts for names on a new goroutine and delivers the
// results to the listeners. It never blocks on the user.
func (t *TerminalPermissions) RequestPermissions(ui ports.UIContext, names []string, code int) error {
	names = append([]string(nil), names...)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		results := t.prompt(ui, names)
		t.deliver(code, names, results)
	}()
	return nil
}

// AddResultListener registers l. Listeners are offered results in order.
func (t *TerminalPermissions) AddResultListener(l ports.PermissionResultListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// Revoke forgets name for this session and in the store.
func (t *TerminalPermissions) Revoke(name string) error {
	t.mu.Lock()
	delete(t.session, name)
	t.mu.Unlock()

	grants, err := t.store.Load()
	if err != nil {
		return err
	}
	grants.Revoke(name)
	return t.store.Save(grants)
}

// Wait blocks until every outstanding prompt has been answered and delivered.
func (t *TerminalPermissions) Wait() {
	t.wg.Wait()
}

func (t *TerminalPermissions) prompt(ui ports.UIContext, names []string) []entities.GrantResult {
	results := make([]entities.GrantResult, len(names))
	for i := range results {
		results[i] = entities.PermissionDenied
	}

	if !t.prompter.IsInteractive() {
		for _, name := range names {
			t.logger.Warn(FormatNonInteractiveError(name, t.store.ConfigPath()).Error())
		}
		return results
	}

	for i, name := range names {
		granted, always, err := t.prompter.PromptForPermission(name, descriptions[name])
		if err != nil {
			t.logger.Warn("permission prompt aborted", "permission", name, "ui", ui.Name(), "error", err)
			break
		}
		if !granted {
			continue
		}
		results[i] = entities.PermissionGranted
		t.mu.Lock()
		t.session[name] = true
		t.mu.Unlock()
		if always {
			t.persist(name)
		}
	}
	return results
}

func (t *TerminalPermissions) persist(name string) {
	grants, err := t.store.Load()
	if err == nil {
		grants.Add(name)
		err = t.store.Save(grants)
	}
	if err != nil {
		t.logger.Error("failed to persist grant", "permission", name, "path", t.store.ConfigPath(), "error", err)
	}
}

func (t *TerminalPermissions) deliver(code int, names []string, results []entities.GrantResult) {
	t.mu.Lock()
	listeners := append([]ports.PermissionResultListener(nil), t.listeners...)
	t.mu.Unlock()

	for _, l := range listeners {
		if l.OnRequestPermissionsResult(code, names, results) {
			return
		}
	}
	t.logger.Debug("permission result not consumed", "code", code)
}
