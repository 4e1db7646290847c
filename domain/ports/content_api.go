package ports

import (
	"context"

	"github.com/reglet-dev/ankibridge/domain/entities"
)

// ContentAPI is the host content engine's note, model, deck and media surface.
// Calls are synchronous and bounded. A nil record or zero identifier is never
// returned together with a nil error: failures are reported as errors.
type ContentAPI interface {
	// AddNote creates one note and returns its identifier.
	AddNote(ctx context.Context, modelID, deckID int64, fields, tags []string) (int64, error)

	// AddNotes creates many notes. The result is aligned with fieldsList; a nil
	// entry marks a note the host refused.
	AddNotes(ctx context.Context, modelID, deckID int64, fieldsList, tagsList [][]string) ([]*int64, error)

	// AddMediaFromURI copies the media behind token into the collection and
	// returns the filename the host assigned.
	AddMediaFromURI(ctx context.Context, token entities.MediaToken, preferredName, mimeType string) (string, error)

	// FindDuplicateNotes returns notes of model mid whose first field equals key.
	FindDuplicateNotes(ctx context.Context, mid int64, key string) ([]entities.Note, error)

	// FindDuplicateNotesForKeys runs the duplicate search for many keys. The map
	// is keyed by index into keys and omits keys without matches; iteration
	// order carries no meaning.
	FindDuplicateNotesForKeys(ctx context.Context, mid int64, keys []string) (map[int][]entities.Note, error)

	GetNoteCount(ctx context.Context, mid int64) (int, error)
	UpdateNoteTags(ctx context.Context, noteID int64, tags []string) (bool, error)
	UpdateNoteFields(ctx context.Context, noteID int64, fields []string) (bool, error)
	GetNote(ctx context.Context, noteID int64) (*entities.Note, error)

	// PreviewNewNote renders every card of model mid for fields without saving,
	// keyed by card template name.
	PreviewNewNote(ctx context.Context, mid int64, fields []string) (map[string]entities.CardPreview, error)

	AddNewBasicModel(ctx context.Context, name string) (int64, error)
	AddNewBasic2Model(ctx context.Context, name string) (int64, error)
	AddNewCustomModel(ctx context.Context, spec entities.ModelSpec) (int64, error)
	CurrentModelID(ctx context.Context) (int64, error)
	GetFieldList(ctx context.Context, modelID int64) ([]string, error)
	ModelList(ctx context.Context) (map[int64]string, error)
	GetModelList(ctx context.Context, minNumFields int) (map[int64]string, error)
	GetModelName(ctx context.Context, mid int64) (string, error)

	AddNewDeck(ctx context.Context, deckName string) (int64, error)
	SelectedDeckName(ctx context.Context) (string, error)
	DeckList(ctx context.Context) (map[int64]string, error)
	GetDeckName(ctx context.Context, did int64) (string, error)

	APIHostSpecVersion(ctx context.Context) (int, error)
}
