package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/reglet-dev/ankibridge/bridge"
	"github.com/reglet-dev/ankibridge/config"
	"github.com/reglet-dev/ankibridge/domain/policy"
	"github.com/reglet-dev/ankibridge/infrastructure/collection"
	"github.com/reglet-dev/ankibridge/infrastructure/fileprovider"
	grant_store "github.com/reglet-dev/ankibridge/infrastructure/grantstore"
	"github.com/reglet-dev/ankibridge/infrastructure/prompter"
	"github.com/reglet-dev/ankibridge/permission"
	"github.com/reglet-dev/ankibridge/staging"
)

// terminalUI is the UI context of an attached terminal.
type terminalUI struct{}

func (terminalUI) Name() string { return "terminal" }

// app is a fully wired bridge over the local collection.
type app struct {
	bridge     *bridge.Bridge
	collection *collection.Collection
	perms      *prompter.TerminalPermissions
}

// newApp wires the bridge from cfg. Prompts read from in and write to out.
func newApp(cfg config.Config, logger *slog.Logger, in io.Reader, out io.Writer) (*app, error) {
	store := grant_store.NewFileStore(grant_store.WithPath(cfg.Permission.GrantStorePath))
	perms := prompter.NewTerminalPermissions(prompter.NewCliPrompter(in, out), store, logger)

	gate := permission.NewGate(perms,
		permission.WithPermission(cfg.Permission.Name),
		permission.WithRequestCode(cfg.Permission.RequestCode),
		permission.WithLogger(logger),
	)

	provider, err := fileprovider.New(cfg.Staging.Authority, cfg.Staging.Dir)
	if err != nil {
		return nil, fmt.Errorf("file provider: %w", err)
	}
	stager := staging.New(provider.Root(), provider, cfg.Host.Package, staging.WithLogger(logger))

	coll, err := collection.Open(cfg.CollectionPath,
		collection.WithFileProvider(provider, cfg.Host.Package),
		collection.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("open collection: %w", err)
	}

	b, err := bridge.New(gate,
		bridge.WithStager(stager),
		bridge.WithLogger(logger),
		bridge.WithDenialHandler(&policy.SlogDenialHandler{Logger: logger}),
	)
	if err != nil {
		coll.Close()
		return nil, err
	}
	b.Attach(coll)
	b.AttachUI(terminalUI{})

	return &app{bridge: b, collection: coll, perms: perms}, nil
}

// Close detaches the bridge and closes the collection. A prompt still
// waiting for input is abandoned.
func (a *app) Close() error {
	a.bridge.DetachUI()
	a.bridge.Detach()
	return a.collection.Close()
}
