package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/reglet-dev/ankibridge/domain/entities"
	"github.com/reglet-dev/ankibridge/domain/ports"
)

var _ ports.ContentAPI = (*SpyContentAPI)(nil)

// ErrNoSuchNote is returned by SpyContentAPI for unknown note ids.
var ErrNoSuchNote = errors.New("no such note")

// SpyContentAPI is an in-memory host engine that records every call.
type SpyContentAPI struct {
	// Notes is looked up by GetNote and the duplicate searches (first field).
	Notes map[int64]entities.Note

	// Provider, when set, is used by AddMediaFromURI to read the token.
	Provider ports.FileProvider

	// HostPackage is the grantee AddMediaFromURI opens tokens as.
	HostPackage string

	// MediaName overrides the filename returned by AddMediaFromURI.
	MediaName string

	// Errs forces the named method to fail with the given error.
	Errs map[string]error

	// Models and Decks back the listing operations.
	Models map[int64]string
	Decks  map[int64]string

	// MediaData records the bytes read for each added media file.
	MediaData map[string][]byte

	// LastModelSpec is the spec passed to AddNewCustomModel.
	LastModelSpec *entities.ModelSpec

	mu     sync.Mutex
	calls  []string
	nextID int64
}

// NewSpyContentAPI returns a spy with empty collections.
func NewSpyContentAPI() *SpyContentAPI {
	return &SpyContentAPI{
		Notes:     map[int64]entities.Note{},
		Errs:      map[string]error{},
		Models:    map[int64]string{},
		Decks:     map[int64]string{1: "Default"},
		MediaData: map[string][]byte{},
		nextID:    1000,
	}
}

// Calls returns the recorded method names in call order.
func (s *SpyContentAPI) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *SpyContentAPI) record(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, method)
	return s.Errs[method]
}

func (s *SpyContentAPI) newID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return s.nextID
}

func (s *SpyContentAPI) AddNote(_ context.Context, modelID, deckID int64, fields, tags []string) (int64, error) {
	if err := s.record("AddNote"); err != nil {
		return 0, err
	}
	if _, ok := s.Models[modelID]; !ok {
		return 0, fmt.Errorf("model %d does not exist", modelID)
	}
	if _, ok := s.Decks[deckID]; !ok {
		return 0, fmt.Errorf("deck %d does not exist", deckID)
	}
	id := s.newID()
	s.mu.Lock()
	s.Notes[id] = entities.Note{ID: id, Fields: fields, Tags: tags}
	s.mu.Unlock()
	return id, nil
}

func (s *SpyContentAPI) AddNotes(_ context.Context, modelID, deckID int64, fieldsList, tagsList [][]string) ([]*int64, error) {
	if err := s.record("AddNotes"); err != nil {
		return nil, err
	}
	out := make([]*int64, len(fieldsList))
	for i, fields := range fieldsList {
		if len(fields) == 0 {
			continue
		}
		id := s.newID()
		var tags []string
		if i < len(tagsList) {
			tags = tagsList[i]
		}
		s.mu.Lock()
		s.Notes[id] = entities.Note{ID: id, Fields: fields, Tags: tags}
		s.mu.Unlock()
		out[i] = &id
	}
	return out, nil
}

func (s *SpyContentAPI) AddMediaFromURI(_ context.Context, token entities.MediaToken, preferredName, _ string) (string, error) {
	if err := s.record("AddMediaFromURI"); err != nil {
		return "", err
	}
	if s.Provider != nil {
		rc, err := s.Provider.Open(s.HostPackage, token.URI)
		if err != nil {
			return "", err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		s.mu.Lock()
		s.MediaData[preferredName] = data
		s.mu.Unlock()
	}
	if s.MediaName != "" {
		return s.MediaName, nil
	}
	return preferredName, nil
}

func (s *SpyContentAPI) duplicates(key string) []entities.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Note
	for _, n := range s.Notes {
		if len(n.Fields) > 0 && n.Fields[0] == key {
			out = append(out, n)
		}
	}
	return out
}

func (s *SpyContentAPI) FindDuplicateNotes(_ context.Context, _ int64, key string) ([]entities.Note, error) {
	if err := s.record("FindDuplicateNotes"); err != nil {
		return nil, err
	}
	return s.duplicates(key), nil
}

func (s *SpyContentAPI) FindDuplicateNotesForKeys(_ context.Context, _ int64, keys []string) (map[int][]entities.Note, error) {
	if err := s.record("FindDuplicateNotesForKeys"); err != nil {
		return nil, err
	}
	out := map[int][]entities.Note{}
	for i, k := range keys {
		if d := s.duplicates(k); len(d) > 0 {
			out[i] = d
		}
	}
	return out, nil
}

func (s *SpyContentAPI) GetNoteCount(_ context.Context, _ int64) (int, error) {
	if err := s.record("GetNoteCount"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Notes), nil
}

func (s *SpyContentAPI) UpdateNoteTags(_ context.Context, noteID int64, tags []string) (bool, error) {
	if err := s.record("UpdateNoteTags"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.Notes[noteID]
	if !ok {
		return false, nil
	}
	n.Tags = tags
	s.Notes[noteID] = n
	return true, nil
}

func (s *SpyContentAPI) UpdateNoteFields(_ context.Context, noteID int64, fields []string) (bool, error) {
	if err := s.record("UpdateNoteFields"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.Notes[noteID]
	if !ok {
		return false, nil
	}
	n.Fields = fields
	s.Notes[noteID] = n
	return true, nil
}

func (s *SpyContentAPI) GetNote(_ context.Context, noteID int64) (*entities.Note, error) {
	if err := s.record("GetNote"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.Notes[noteID]
	if !ok {
		return nil, fmt.Errorf("note %d: %w", noteID, ErrNoSuchNote)
	}
	return &n, nil
}

func (s *SpyContentAPI) PreviewNewNote(_ context.Context, _ int64, fields []string) (map[string]entities.CardPreview, error) {
	if err := s.record("PreviewNewNote"); err != nil {
		return nil, err
	}
	p := entities.CardPreview{}
	if len(fields) > 0 {
		p.Question = fields[0]
	}
	if len(fields) > 1 {
		p.Answer = fields[1]
	}
	return map[string]entities.CardPreview{"Card 1": p}, nil
}

func (s *SpyContentAPI) addModel(method, name string) (int64, error) {
	if err := s.record(method); err != nil {
		return 0, err
	}
	id := s.newID()
	s.mu.Lock()
	s.Models[id] = name
	s.mu.Unlock()
	return id, nil
}

func (s *SpyContentAPI) AddNewBasicModel(_ context.Context, name string) (int64, error) {
	return s.addModel("AddNewBasicModel", name)
}

func (s *SpyContentAPI) AddNewBasic2Model(_ context.Context, name string) (int64, error) {
	return s.addModel("AddNewBasic2Model", name)
}

func (s *SpyContentAPI) AddNewCustomModel(_ context.Context, spec entities.ModelSpec) (int64, error) {
	s.mu.Lock()
	s.LastModelSpec = &spec
	s.mu.Unlock()
	return s.addModel("AddNewCustomModel", spec.Name)
}

func (s *SpyContentAPI) CurrentModelID(_ context.Context) (int64, error) {
	if err := s.record("CurrentModelID"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var current int64
	for id := range s.Models {
		current = max(current, id)
	}
	return current, nil
}

func (s *SpyContentAPI) GetFieldList(_ context.Context, modelID int64) ([]string, error) {
	if err := s.record("GetFieldList"); err != nil {
		return nil, err
	}
	if _, ok := s.Models[modelID]; !ok {
		return nil, fmt.Errorf("model %d does not exist", modelID)
	}
	return []string{"Front", "Back"}, nil
}

func (s *SpyContentAPI) ModelList(_ context.Context) (map[int64]string, error) {
	if err := s.record("ModelList"); err != nil {
		return nil, err
	}
	return s.Models, nil
}

func (s *SpyContentAPI) GetModelList(_ context.Context, _ int) (map[int64]string, error) {
	if err := s.record("GetModelList"); err != nil {
		return nil, err
	}
	return s.Models, nil
}

func (s *SpyContentAPI) GetModelName(_ context.Context, mid int64) (string, error) {
	if err := s.record("GetModelName"); err != nil {
		return "", err
	}
	name, ok := s.Models[mid]
	if !ok {
		return "", fmt.Errorf("model %d does not exist", mid)
	}
	return name, nil
}

func (s *SpyContentAPI) AddNewDeck(_ context.Context, deckName string) (int64, error) {
	if err := s.record("AddNewDeck"); err != nil {
		return 0, err
	}
	id := s.newID()
	s.mu.Lock()
	s.Decks[id] = deckName
	s.mu.Unlock()
	return id, nil
}

func (s *SpyContentAPI) SelectedDeckName(_ context.Context) (string, error) {
	if err := s.record("SelectedDeckName"); err != nil {
		return "", err
	}
	return "Default", nil
}

func (s *SpyContentAPI) DeckList(_ context.Context) (map[int64]string, error) {
	if err := s.record("DeckList"); err != nil {
		return nil, err
	}
	return s.Decks, nil
}

func (s *SpyContentAPI) GetDeckName(_ context.Context, did int64) (string, error) {
	if err := s.record("GetDeckName"); err != nil {
		return "", err
	}
	name, ok := s.Decks[did]
	if !ok {
		return "", fmt.Errorf("deck %d does not exist", did)
	}
	return name, nil
}

func (s *SpyContentAPI) APIHostSpecVersion(_ context.Context) (int, error) {
	if err := s.record("APIHostSpecVersion"); err != nil {
		return 0, err
	}
	return 2, nil
}
