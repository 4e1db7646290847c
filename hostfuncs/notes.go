package hostfuncs

import (
	"context"
	"errors"
	"fmt"

	"github.com/reglet-dev/ankibridge/domain/entities"
	domainerrors "github.com/reglet-dev/ankibridge/domain/errors"
	"github.com/reglet-dev/ankibridge/domain/ports"
)

var (
	errNoNoteID = errors.New("host returned no note id")
	errNoNote   = errors.New("host returned no note")
)

// NoteBundle returns the note operations:
// addNote, addNotes, findDuplicateNotesWithKey, findDuplicateNotesWithKeys,
// getNoteCount, updateNoteTags, updateNoteFields, getNote, previewNewNote.
func NoteBundle() Bundle {
	return &staticBundle{ops: []Operation{
		op("addNote", "Create one note.",
			[]Param{required("modelId", KindInt), required("deckId", KindInt), required("fields", KindStringList), required("tags", KindStringList)},
			addNote),
		op("addNotes", "Create many notes; failed entries are null.",
			[]Param{required("modelId", KindInt), required("deckId", KindInt), required("fieldsList", KindStringListList), required("tagsList", KindStringListList)},
			addNotes),
		op("findDuplicateNotesWithKey", "Notes of a model whose first field equals key.",
			[]Param{required("mid", KindInt), required("key", KindString)},
			func(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
				return api.FindDuplicateNotes(ctx, args.Int64("mid"), args.String("key"))
			}).withShape(shapeAs(func(notes []entities.Note) any { return ShapeNotes(notes) })),
		op("findDuplicateNotesWithKeys", "Duplicate search for many keys, aligned with keys.",
			[]Param{required("mid", KindInt), required("keys", KindStringList)},
			findDuplicatesForKeys).withShape(shapeAs(func(lists [][]entities.Note) any { return ShapeNoteLists(lists) })),
		op("getNoteCount", "Number of notes using a model.",
			[]Param{required("mid", KindInt)},
			func(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
				return api.GetNoteCount(ctx, args.Int64("mid"))
			}),
		op("updateNoteTags", "Replace the tags of a note.",
			[]Param{required("noteId", KindInt), required("tags", KindStringList)},
			func(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
				return api.UpdateNoteTags(ctx, args.Int64("noteId"), entities.NormalizeTags(args.Strings("tags")))
			}),
		op("updateNoteFields", "Replace the fields of a note.",
			[]Param{required("noteId", KindInt), required("fields", KindStringList)},
			func(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
				return api.UpdateNoteFields(ctx, args.Int64("noteId"), args.Strings("fields"))
			}),
		op("getNote", "Fetch one note.",
			[]Param{required("noteId", KindInt)},
			getNote).withShape(shapeAs(func(n *entities.Note) any { return ShapeNote(*n) })),
		op("previewNewNote", "Render the cards of an unsaved note.",
			[]Param{required("mid", KindInt), required("flds", KindStringList)},
			func(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
				return api.PreviewNewNote(ctx, args.Int64("mid"), args.Strings("flds"))
			}).withShape(shapeAs(func(m map[string]entities.CardPreview) any { return ShapePreviews(m) })),
	}}
}

func addNote(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
	id, err := api.AddNote(ctx, args.Int64("modelId"), args.Int64("deckId"),
		args.Strings("fields"), entities.NormalizeTags(args.Strings("tags")))
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, errNoNoteID
	}
	return id, nil
}

func addNotes(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
	fieldsList := args.StringLists("fieldsList")
	tagsList := args.StringLists("tagsList")
	if len(tagsList) != len(fieldsList) {
		return nil, &domainerrors.ContractViolationError{
			Method: "addNotes",
			Err:    fmt.Errorf("tagsList has %d entries, fieldsList has %d", len(tagsList), len(fieldsList)),
		}
	}
	tagSets := make([][]string, len(tagsList))
	for i, tags := range tagsList {
		tagSets[i] = entities.NormalizeTags(tags)
	}
	return api.AddNotes(ctx, args.Int64("modelId"), args.Int64("deckId"), fieldsList, tagSets)
}

// findDuplicatesForKeys realigns the host's index-keyed answer into one slot
// per key, in key order. Keys without matches get an empty list.
func findDuplicatesForKeys(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
	keys := args.Strings("keys")
	byIndex, err := api.FindDuplicateNotesForKeys(ctx, args.Int64("mid"), keys)
	if err != nil {
		return nil, err
	}
	aligned := make([][]entities.Note, len(keys))
	for i := range aligned {
		aligned[i] = byIndex[i]
	}
	return aligned, nil
}

func getNote(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
	n, err := api.GetNote(ctx, args.Int64("noteId"))
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, errNoNote
	}
	return n, nil
}
