package ports

import (
	"context"

	"github.com/reglet-dev/ankibridge/domain/entities"
)

// MediaStager writes inbound media to short-lived private files.
type MediaStager interface {
	// Stage writes the payload and returns a token the host may read.
	Stage(ctx context.Context, payload entities.MediaPayload) (entities.StagedMedia, error)

	// Release revokes the token and removes the backing file. Best effort.
	Release(staged entities.StagedMedia)
}
