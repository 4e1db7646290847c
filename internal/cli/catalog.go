package cli

import (
	"context"
	"errors"

	"github.com/reglet-dev/ankibridge/domain/entities"
)

// catalogStager satisfies ports.MediaStager for registries that are only
// described, never invoked.
type catalogStager struct{}

func (catalogStager) Stage(context.Context, entities.MediaPayload) (entities.StagedMedia, error) {
	return entities.StagedMedia{}, errors.ErrUnsupported
}

func (catalogStager) Release(entities.StagedMedia) {}
