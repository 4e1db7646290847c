package collection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

const (
	metaCurrentDeck = "current_deck"
	defaultDeckID   = 1
)

// AddNewDeck creates a deck, or returns the id of an existing deck with the
// same name.
func (c *Collection) AddNewDeck(ctx context.Context, deckName string) (int64, error) {
	if deckName == "" {
		return 0, errors.New("deck name cannot be empty")
	}
	var id int64
	err := c.db.QueryRowContext(ctx, `SELECT id FROM decks WHERE name = ?`, deckName).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	res, err := c.db.ExecContext(ctx, `INSERT INTO decks (name) VALUES (?)`, deckName)
	if err != nil {
		return 0, fmt.Errorf("insert deck: %w", err)
	}
	return res.LastInsertId()
}

// SelectDeck makes did the selected deck.
func (c *Collection) SelectDeck(ctx context.Context, did int64) error {
	if _, err := c.GetDeckName(ctx, did); err != nil {
		return err
	}
	return c.setMeta(ctx, metaCurrentDeck, strconv.FormatInt(did, 10))
}

// SelectedDeckName returns the selected deck, falling back to the default deck.
func (c *Collection) SelectedDeckName(ctx context.Context) (string, error) {
	v, ok, err := c.meta(ctx, metaCurrentDeck)
	if err != nil {
		return "", err
	}
	if ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			if name, err := c.GetDeckName(ctx, id); err == nil {
				return name, nil
			}
		}
	}
	return c.GetDeckName(ctx, defaultDeckID)
}

// DeckList returns every deck by id.
func (c *Collection) DeckList(ctx context.Context) (map[int64]string, error) {
	return c.nameMap(ctx, `SELECT id, name FROM decks`)
}

// GetDeckName returns the deck name or an error wrapping ErrNotFound.
func (c *Collection) GetDeckName(ctx context.Context, did int64) (string, error) {
	var name string
	err := c.db.QueryRowContext(ctx, `SELECT name FROM decks WHERE id = ?`, did).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound("deck", did)
	}
	return name, err
}
