package collection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/reglet-dev/ankibridge/domain/entities"
)

const (
	metaCurrentModel = "current_model"

	basicQfmt    = "{{Front}}"
	basicAfmt    = "{{FrontSide}}\n\n<hr id=answer>\n\n{{Back}}"
	reverseQfmt  = "{{Back}}"
	reverseAfmt  = "{{FrontSide}}\n\n<hr id=answer>\n\n{{Front}}"
	defaultCSS   = ".card {\n font-family: arial;\n font-size: 20px;\n text-align: center;\n}\n"
	frontSideTag = "{{FrontSide}}"
)

// AddNewBasicModel creates a Front/Back model with one card.
func (c *Collection) AddNewBasicModel(ctx context.Context, name string) (int64, error) {
	return c.AddNewCustomModel(ctx, entities.ModelSpec{
		Name:   name,
		CSS:    defaultCSS,
		Fields: []string{"Front", "Back"},
		Cards:  []string{"Card 1"},
		Qfmt:   []string{basicQfmt},
		Afmt:   []string{basicAfmt},
	})
}

// AddNewBasic2Model creates a Front/Back model with a forward and a reverse card.
func (c *Collection) AddNewBasic2Model(ctx context.Context, name string) (int64, error) {
	return c.AddNewCustomModel(ctx, entities.ModelSpec{
		Name:   name,
		CSS:    defaultCSS,
		Fields: []string{"Front", "Back"},
		Cards:  []string{"Card 1", "Card 2"},
		Qfmt:   []string{basicQfmt, reverseQfmt},
		Afmt:   []string{basicAfmt, reverseAfmt},
	})
}

// AddNewCustomModel creates a model from spec. Cards, Qfmt and Afmt must have
// equal length.
func (c *Collection) AddNewCustomModel(ctx context.Context, spec entities.ModelSpec) (int64, error) {
	if spec.Name == "" || len(spec.Fields) == 0 || len(spec.Cards) == 0 {
		return 0, errors.New("model needs a name, fields and cards")
	}
	if len(spec.Qfmt) != len(spec.Cards) || len(spec.Afmt) != len(spec.Cards) {
		return 0, fmt.Errorf("model %q: %d cards but %d qfmt and %d afmt",
			spec.Name, len(spec.Cards), len(spec.Qfmt), len(spec.Afmt))
	}
	sortField := 0
	if spec.SortField != nil {
		sortField = *spec.SortField
	}
	if sortField < 0 || sortField >= len(spec.Fields) {
		return 0, fmt.Errorf("model %q: sort field %d out of range", spec.Name, sortField)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() //nolint:errcheck

	var deckID any
	if spec.DeckID != nil {
		if err := c.requireDeck(ctx, tx, *spec.DeckID); err != nil {
			return 0, err
		}
		deckID = *spec.DeckID
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO models (name, css, sort_field, deck_id) VALUES (?, ?, ?, ?)`,
		spec.Name, spec.CSS, sortField, deckID)
	if err != nil {
		return 0, fmt.Errorf("insert model: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for ord, name := range spec.Fields {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fields (model_id, ord, name) VALUES (?, ?, ?)`, id, ord, name); err != nil {
			return 0, fmt.Errorf("insert field %q: %w", name, err)
		}
	}
	for ord, name := range spec.Cards {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO templates (model_id, ord, name, qfmt, afmt) VALUES (?, ?, ?, ?, ?)`,
			id, ord, name, spec.Qfmt[ord], spec.Afmt[ord]); err != nil {
			return 0, fmt.Errorf("insert template %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// SelectModel makes mid the current model.
func (c *Collection) SelectModel(ctx context.Context, mid int64) error {
	if _, err := c.GetModelName(ctx, mid); err != nil {
		return err
	}
	return c.setMeta(ctx, metaCurrentModel, strconv.FormatInt(mid, 10))
}

// CurrentModelID returns the selected model, or the oldest model when none
// was selected.
func (c *Collection) CurrentModelID(ctx context.Context) (int64, error) {
	v, ok, err := c.meta(ctx, metaCurrentModel)
	if err != nil {
		return 0, err
	}
	if ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			if _, err := c.GetModelName(ctx, id); err == nil {
				return id, nil
			}
		}
	}

	var id int64
	err = c.db.QueryRowContext(ctx, `SELECT id FROM models ORDER BY id LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("no models: %w", ErrNotFound)
	}
	return id, err
}

// GetFieldList returns field names in order.
func (c *Collection) GetFieldList(ctx context.Context, modelID int64) ([]string, error) {
	if _, err := c.GetModelName(ctx, modelID); err != nil {
		return nil, err
	}
	rows, err := c.db.QueryContext(ctx, `SELECT name FROM fields WHERE model_id = ? ORDER BY ord`, modelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ModelList returns every model by id.
func (c *Collection) ModelList(ctx context.Context) (map[int64]string, error) {
	return c.GetModelList(ctx, 0)
}

// GetModelList returns models with at least minNumFields fields.
func (c *Collection) GetModelList(ctx context.Context, minNumFields int) (map[int64]string, error) {
	return c.nameMap(ctx, `
		SELECT m.id, m.name FROM models m
		WHERE (SELECT COUNT(*) FROM fields f WHERE f.model_id = m.id) >= ?`, minNumFields)
}

// GetModelName returns the model name or an error wrapping ErrNotFound.
func (c *Collection) GetModelName(ctx context.Context, mid int64) (string, error) {
	var name string
	err := c.db.QueryRowContext(ctx, `SELECT name FROM models WHERE id = ?`, mid).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound("model", mid)
	}
	return name, err
}

// PreviewNewNote renders each card template with fields substituted.
func (c *Collection) PreviewNewNote(ctx context.Context, mid int64, fields []string) (map[string]entities.CardPreview, error) {
	names, err := c.GetFieldList(ctx, mid)
	if err != nil {
		return nil, err
	}

	pairs := make([]string, 0, 2*len(names))
	for i, name := range names {
		value := ""
		if i < len(fields) {
			value = fields[i]
		}
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	render := strings.NewReplacer(pairs...)

	rows, err := c.db.QueryContext(ctx,
		`SELECT name, qfmt, afmt FROM templates WHERE model_id = ? ORDER BY ord`, mid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]entities.CardPreview)
	for rows.Next() {
		var name, qfmt, afmt string
		if err := rows.Scan(&name, &qfmt, &afmt); err != nil {
			return nil, err
		}
		q := render.Replace(qfmt)
		a := render.Replace(strings.ReplaceAll(afmt, frontSideTag, q))
		out[name] = entities.CardPreview{Question: q, Answer: a}
	}
	return out, rows.Err()
}

func (c *Collection) nameMap(ctx context.Context, query string, args ...any) (map[int64]string, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}
