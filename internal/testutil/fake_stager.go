package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/reglet-dev/ankibridge/domain/entities"
	"github.com/reglet-dev/ankibridge/domain/ports"
)

var _ ports.MediaStager = (*FakeStager)(nil)

// FakeStager keeps staged payloads in memory and records releases.
type FakeStager struct {
	// StageErr, when set, makes Stage fail.
	StageErr error

	mu       sync.Mutex
	staged   []entities.StagedMedia
	released []entities.StagedMedia
}

// Stage records the payload and returns a token under fake://.
func (s *FakeStager) Stage(_ context.Context, payload entities.MediaPayload) (entities.StagedMedia, error) {
	if s.StageErr != nil {
		return entities.StagedMedia{}, s.StageErr
	}
	name := strings.ReplaceAll(payload.PreferredName, " ", "_")
	sm := entities.StagedMedia{
		Name:  name,
		Path:  "/staging/" + name,
		Token: entities.MediaToken{URI: "fake://staging/" + name, Grantee: "host"},
	}
	s.mu.Lock()
	s.staged = append(s.staged, sm)
	s.mu.Unlock()
	return sm, nil
}

// Release records the release.
func (s *FakeStager) Release(staged entities.StagedMedia) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = append(s.released, staged)
}

// Staged returns everything staged so far.
func (s *FakeStager) Staged() []entities.StagedMedia {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.StagedMedia(nil), s.staged...)
}

// Released returns everything released so far.
func (s *FakeStager) Released() []entities.StagedMedia {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.StagedMedia(nil), s.released...)
}
