package hostfuncs

import (
	"context"

	"github.com/reglet-dev/ankibridge/domain/ports"
)

// DeckBundle returns the deck operations:
// addNewDeck, selectedDeckName, deckList, getDeckName.
func DeckBundle() Bundle {
	return &staticBundle{ops: []Operation{
		op("addNewDeck", "Create a deck.",
			[]Param{required("deckName", KindString)},
			func(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
				return api.AddNewDeck(ctx, args.String("deckName"))
			}),
		op("selectedDeckName", "Name of the deck currently selected on the host.", nil,
			func(ctx context.Context, api ports.ContentAPI, _ Args) (any, error) {
				return api.SelectedDeckName(ctx)
			}),
		op("deckList", "All decks by id.", nil,
			func(ctx context.Context, api ports.ContentAPI, _ Args) (any, error) {
				return api.DeckList(ctx)
			}).withShape(shapeAs(func(m map[int64]string) any { return ShapeNameMap(m) })),
		op("getDeckName", "Name of a deck.",
			[]Param{required("did", KindInt)},
			func(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
				return api.GetDeckName(ctx, args.Int64("did"))
			}),
	}}
}
