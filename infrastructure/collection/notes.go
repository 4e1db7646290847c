package collection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/reglet-dev/ankibridge/domain/entities"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AddNote creates one note. The model and deck must exist and fields must
// match the model's field count.
func (c *Collection) AddNote(ctx context.Context, modelID, deckID int64, fields, tags []string) (int64, error) {
	if err := c.requireDeck(ctx, c.db, deckID); err != nil {
		return 0, err
	}
	count, err := c.fieldCount(ctx, c.db, modelID)
	if err != nil {
		return 0, err
	}
	if len(fields) != count {
		return 0, fmt.Errorf("model %d has %d fields, got %d", modelID, count, len(fields))
	}
	return insertNote(ctx, c.db, modelID, deckID, fields, tags)
}

// AddNotes creates notes in one transaction. Entries whose field count does
// not match the model get a nil id.
func (c *Collection) AddNotes(ctx context.Context, modelID, deckID int64, fieldsList, tagsList [][]string) ([]*int64, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := c.requireDeck(ctx, tx, deckID); err != nil {
		return nil, err
	}
	count, err := c.fieldCount(ctx, tx, modelID)
	if err != nil {
		return nil, err
	}

	ids := make([]*int64, len(fieldsList))
	for i, fields := range fieldsList {
		if len(fields) != count {
			continue
		}
		var tags []string
		if i < len(tagsList) {
			tags = tagsList[i]
		}
		id, err := insertNote(ctx, tx, modelID, deckID, fields, tags)
		if err != nil {
			return nil, err
		}
		ids[i] = &id
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

func insertNote(ctx context.Context, q querier, modelID, deckID int64, fields, tags []string) (int64, error) {
	first := ""
	if len(fields) > 0 {
		first = fields[0]
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO notes (model_id, deck_id, flds, first_field, tags) VALUES (?, ?, ?, ?, ?)`,
		modelID, deckID, joinFields(fields), first, joinFields(entities.NormalizeTags(tags)))
	if err != nil {
		return 0, fmt.Errorf("insert note: %w", err)
	}
	return res.LastInsertId()
}

// FindDuplicateNotes returns notes of model mid whose first field equals key.
func (c *Collection) FindDuplicateNotes(ctx context.Context, mid int64, key string) ([]entities.Note, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, flds, tags FROM notes WHERE model_id = ? AND first_field = ? ORDER BY id`, mid, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entities.Note
	for rows.Next() {
		var n entities.Note
		var flds, tags string
		if err := rows.Scan(&n.ID, &flds, &tags); err != nil {
			return nil, err
		}
		n.Fields = splitFields(flds)
		n.Tags = splitFields(tags)
		out = append(out, n)
	}
	return out, rows.Err()
}

// FindDuplicateNotesForKeys runs FindDuplicateNotes per key and omits keys
// without matches.
func (c *Collection) FindDuplicateNotesForKeys(ctx context.Context, mid int64, keys []string) (map[int][]entities.Note, error) {
	out := make(map[int][]entities.Note)
	for i, key := range keys {
		notes, err := c.FindDuplicateNotes(ctx, mid, key)
		if err != nil {
			return nil, err
		}
		if len(notes) > 0 {
			out[i] = notes
		}
	}
	return out, nil
}

// GetNoteCount returns the number of notes using model mid.
func (c *Collection) GetNoteCount(ctx context.Context, mid int64) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes WHERE model_id = ?`, mid).Scan(&n)
	return n, err
}

// UpdateNoteTags replaces the tags of a note. False when the note does not exist.
func (c *Collection) UpdateNoteTags(ctx context.Context, noteID int64, tags []string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `UPDATE notes SET tags = ? WHERE id = ?`,
		joinFields(entities.NormalizeTags(tags)), noteID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdateNoteFields replaces the fields of a note. False when the note does not
// exist or the field count does not match its model.
func (c *Collection) UpdateNoteFields(ctx context.Context, noteID int64, fields []string) (bool, error) {
	var modelID int64
	err := c.db.QueryRowContext(ctx, `SELECT model_id FROM notes WHERE id = ?`, noteID).Scan(&modelID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	count, err := c.fieldCount(ctx, c.db, modelID)
	if err != nil {
		return false, err
	}
	if len(fields) != count {
		return false, nil
	}

	first := ""
	if len(fields) > 0 {
		first = fields[0]
	}
	res, err := c.db.ExecContext(ctx, `UPDATE notes SET flds = ?, first_field = ? WHERE id = ?`,
		joinFields(fields), first, noteID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetNote returns one note or an error wrapping ErrNotFound.
func (c *Collection) GetNote(ctx context.Context, noteID int64) (*entities.Note, error) {
	n := entities.Note{ID: noteID}
	var flds, tags string
	err := c.db.QueryRowContext(ctx, `SELECT flds, tags FROM notes WHERE id = ?`, noteID).Scan(&flds, &tags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("note", noteID)
	}
	if err != nil {
		return nil, err
	}
	n.Fields = splitFields(flds)
	n.Tags = splitFields(tags)
	return &n, nil
}

func (c *Collection) requireDeck(ctx context.Context, q querier, deckID int64) error {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM decks WHERE id = ?`, deckID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("deck", deckID)
	}
	return err
}

func (c *Collection) fieldCount(ctx context.Context, q querier, modelID int64) (int, error) {
	var exists, count int
	err := q.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM models WHERE id = ?), (SELECT COUNT(*) FROM fields WHERE model_id = ?)`,
		modelID, modelID).Scan(&exists, &count)
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, notFound("model", modelID)
	}
	return count, nil
}
