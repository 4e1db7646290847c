// Package entities defines the records and wire types that cross the bridge.
// Host-owned records (notes, models, decks) are read-only here: every mutation
// is delegated to the host engine through ports.ContentAPI.
package entities
