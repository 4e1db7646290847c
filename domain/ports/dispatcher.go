package ports

import (
	"context"

	"github.com/reglet-dev/ankibridge/domain/entities"
)

// Dispatcher is the bridge entry point transports call into.
type Dispatcher interface {
	// Call runs one named method and blocks until its outcome is known.
	// The error is non-nil only when ctx ends first.
	Call(ctx context.Context, method string, args map[string]any) (entities.Outcome, error)
}
