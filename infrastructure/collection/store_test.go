package collection_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/ankibridge/domain/entities"
	"github.com/reglet-dev/ankibridge/infrastructure/collection"
	"github.com/reglet-dev/ankibridge/infrastructure/fileprovider"
	"github.com/reglet-dev/ankibridge/staging"
)

const hostPackage = "com.example.host"

func openCollection(t *testing.T, opts ...collection.Option) *collection.Collection {
	t.Helper()
	c, err := collection.Open(filepath.Join(t.TempDir(), "collection.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func basicModel(t *testing.T, c *collection.Collection) int64 {
	t.Helper()
	mid, err := c.AddNewBasicModel(context.Background(), entities.BasicModelName)
	require.NoError(t, err)
	return mid
}

func TestOpen_DefaultDeck(t *testing.T) {
	c := openCollection(t)
	ctx := context.Background()

	name, err := c.SelectedDeckName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Default", name)

	decks, err := c.DeckList(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{1: "Default"}, decks)

	v, err := c.APIHostSpecVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, collection.SpecVersion, v)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.db")
	ctx := context.Background()

	c, err := collection.Open(path)
	require.NoError(t, err)
	did, err := c.AddNewDeck(ctx, "Spanish")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = collection.Open(path)
	require.NoError(t, err)
	defer c.Close()

	name, err := c.GetDeckName(ctx, did)
	require.NoError(t, err)
	assert.Equal(t, "Spanish", name)
}

func TestAddNote(t *testing.T) {
	c := openCollection(t)
	ctx := context.Background()
	mid := basicModel(t, c)

	tests := []struct {
		name    string
		modelID int64
		deckID  int64
		fields  []string
		wantErr bool
	}{
		{name: "valid", modelID: mid, deckID: 1, fields: []string{"Q", "A"}},
		{name: "wrong field count", modelID: mid, deckID: 1, fields: []string{"Q"}, wantErr: true},
		{name: "unknown model", modelID: 999, deckID: 1, fields: []string{"Q", "A"}, wantErr: true},
		{name: "unknown deck", modelID: mid, deckID: 999, fields: []string{"Q", "A"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := c.AddNote(ctx, tt.modelID, tt.deckID, tt.fields, []string{"t"})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, id)
		})
	}
}

func TestGetNote(t *testing.T) {
	c := openCollection(t)
	ctx := context.Background()
	mid := basicModel(t, c)

	id, err := c.AddNote(ctx, mid, 1, []string{"Q", "A"}, []string{"b", "a", "b", ""})
	require.NoError(t, err)

	note, err := c.GetNote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, note.ID)
	assert.Equal(t, []string{"Q", "A"}, note.Fields)
	assert.Equal(t, []string{"b", "a"}, note.Tags)

	_, err = c.GetNote(ctx, id+100)
	assert.ErrorIs(t, err, collection.ErrNotFound)
}

func TestAddNotes_MarksRefusedEntries(t *testing.T) {
	c := openCollection(t)
	ctx := context.Background()
	mid := basicModel(t, c)

	ids, err := c.AddNotes(ctx, mid, 1,
		[][]string{{"a", "1"}, {"only one"}, {"c", "3"}},
		[][]string{{"x"}, {}, {"y"}})
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.NotNil(t, ids[0])
	assert.Nil(t, ids[1])
	assert.NotNil(t, ids[2])

	count, err := c.GetNoteCount(ctx, mid)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAddNotes_UnknownModelRollsBack(t *testing.T) {
	c := openCollection(t)
	_, err := c.AddNotes(context.Background(), 42, 1, [][]string{{"a"}}, [][]string{{}})
	assert.ErrorIs(t, err, collection.ErrNotFound)
}

func TestFindDuplicates(t *testing.T) {
	c := openCollection(t)
	ctx := context.Background()
	mid := basicModel(t, c)

	for _, f := range [][]string{{"dup", "1"}, {"dup", "2"}, {"other", "3"}} {
		_, err := c.AddNote(ctx, mid, 1, f, nil)
		require.NoError(t, err)
	}

	notes, err := c.FindDuplicateNotes(ctx, mid, "dup")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "1", notes[0].Fields[1])

	byKey, err := c.FindDuplicateNotesForKeys(ctx, mid, []string{"none", "other", "dup"})
	require.NoError(t, err)
	assert.NotContains(t, byKey, 0)
	assert.Len(t, byKey[1], 1)
	assert.Len(t, byKey[2], 2)
}

func TestUpdateNote(t *testing.T) {
	c := openCollection(t)
	ctx := context.Background()
	mid := basicModel(t, c)

	id, err := c.AddNote(ctx, mid, 1, []string{"Q", "A"}, nil)
	require.NoError(t, err)

	ok, err := c.UpdateNoteTags(ctx, id, []string{"new", "new"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.UpdateNoteFields(ctx, id, []string{"Q2", "A2"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.UpdateNoteFields(ctx, id, []string{"too", "many", "fields"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.UpdateNoteTags(ctx, id+100, []string{"x"})
	require.NoError(t, err)
	assert.False(t, ok)

	note, err := c.GetNote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Q2", "A2"}, note.Fields)
	assert.Equal(t, []string{"new"}, note.Tags)

	dups, err := c.FindDuplicateNotes(ctx, mid, "Q2")
	require.NoError(t, err)
	assert.Len(t, dups, 1)
}

func TestModels(t *testing.T) {
	c := openCollection(t)
	ctx := context.Background()

	_, err := c.CurrentModelID(ctx)
	assert.ErrorIs(t, err, collection.ErrNotFound)

	basic := basicModel(t, c)
	reversed, err := c.AddNewBasic2Model(ctx, entities.Basic2ModelName)
	require.NoError(t, err)

	sortf := 2
	custom, err := c.AddNewCustomModel(ctx, entities.ModelSpec{
		Name:      "Vocab",
		Fields:    []string{"Word", "Meaning", "Example"},
		Cards:     []string{"Recognize"},
		Qfmt:      []string{"{{Word}}"},
		Afmt:      []string{"{{FrontSide}}<hr>{{Meaning}}"},
		SortField: &sortf,
	})
	require.NoError(t, err)

	current, err := c.CurrentModelID(ctx)
	require.NoError(t, err)
	assert.Equal(t, basic, current)

	require.NoError(t, c.SelectModel(ctx, custom))
	current, err = c.CurrentModelID(ctx)
	require.NoError(t, err)
	assert.Equal(t, custom, current)

	fields, err := c.GetFieldList(ctx, custom)
	require.NoError(t, err)
	assert.Equal(t, []string{"Word", "Meaning", "Example"}, fields)

	all, err := c.ModelList(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{
		basic:    entities.BasicModelName,
		reversed: entities.Basic2ModelName,
		custom:   "Vocab",
	}, all)

	wide, err := c.GetModelList(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{custom: "Vocab"}, wide)

	_, err = c.GetModelName(ctx, 12345)
	assert.ErrorIs(t, err, collection.ErrNotFound)
}

func TestAddNewCustomModel_Invalid(t *testing.T) {
	c := openCollection(t)
	ctx := context.Background()
	badSort := 5
	missingDeck := int64(77)

	tests := []struct {
		name string
		spec entities.ModelSpec
	}{
		{name: "no name", spec: entities.ModelSpec{Fields: []string{"F"}, Cards: []string{"C"}, Qfmt: []string{"q"}, Afmt: []string{"a"}}},
		{name: "template mismatch", spec: entities.ModelSpec{Name: "m", Fields: []string{"F"}, Cards: []string{"C"}, Qfmt: []string{}, Afmt: []string{"a"}}},
		{name: "sort field out of range", spec: entities.ModelSpec{Name: "m", Fields: []string{"F"}, Cards: []string{"C"}, Qfmt: []string{"q"}, Afmt: []string{"a"}, SortField: &badSort}},
		{name: "unknown deck", spec: entities.ModelSpec{Name: "m", Fields: []string{"F"}, Cards: []string{"C"}, Qfmt: []string{"q"}, Afmt: []string{"a"}, DeckID: &missingDeck}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.AddNewCustomModel(ctx, tt.spec)
			assert.Error(t, err)
		})
	}

	all, err := c.ModelList(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPreviewNewNote(t *testing.T) {
	c := openCollection(t)
	ctx := context.Background()

	mid, err := c.AddNewBasic2Model(ctx, entities.Basic2ModelName)
	require.NoError(t, err)

	previews, err := c.PreviewNewNote(ctx, mid, []string{"hola", "hello"})
	require.NoError(t, err)
	require.Len(t, previews, 2)
	assert.Equal(t, "hola", previews["Card 1"].Question)
	assert.Equal(t, "hola\n\n<hr id=answer>\n\nhello", previews["Card 1"].Answer)
	assert.Equal(t, "hello", previews["Card 2"].Question)

	count, err := c.GetNoteCount(ctx, mid)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDecks(t *testing.T) {
	c := openCollection(t)
	ctx := context.Background()

	did, err := c.AddNewDeck(ctx, "Spanish")
	require.NoError(t, err)

	again, err := c.AddNewDeck(ctx, "Spanish")
	require.NoError(t, err)
	assert.Equal(t, did, again)

	_, err = c.AddNewDeck(ctx, "")
	assert.Error(t, err)

	require.NoError(t, c.SelectDeck(ctx, did))
	name, err := c.SelectedDeckName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Spanish", name)

	assert.ErrorIs(t, c.SelectDeck(ctx, 999), collection.ErrNotFound)

	_, err = c.GetDeckName(ctx, 999)
	assert.ErrorIs(t, err, collection.ErrNotFound)
}

func TestAddMediaFromURI(t *testing.T) {
	provider, err := fileprovider.New("com.example.bridge.fileprovider", t.TempDir())
	require.NoError(t, err)
	mediaDir := t.TempDir()
	c := openCollection(t,
		collection.WithFileProvider(provider, hostPackage),
		collection.WithMediaDir(mediaDir))
	stager := staging.New(provider.Root(), provider, hostPackage)
	ctx := context.Background()

	add := func(name string, data []byte) string {
		staged, err := stager.Stage(ctx, entities.MediaPayload{PreferredName: name, MimeType: "audio", Bytes: data})
		require.NoError(t, err)
		defer stager.Release(staged)

		got, err := c.AddMediaFromURI(ctx, staged.Token, staged.Name, "audio")
		require.NoError(t, err)
		return got
	}

	first := add("my file.mp3", []byte("one"))
	assert.Equal(t, "my_file.mp3", first)
	assert.Equal(t, "my_file.mp3", add("my file.mp3", []byte("one")))
	assert.Equal(t, "my_file-1.mp3", add("my file.mp3", []byte("two")))

	data, err := os.ReadFile(filepath.Join(mediaDir, "my_file-1.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	mime, err := c.MediaMimeType(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "audio", mime)
}

func TestAddMediaFromURI_Refused(t *testing.T) {
	provider, err := fileprovider.New("com.example.bridge.fileprovider", t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	path := filepath.Join(provider.Root(), "x", "clip.wav")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))
	uri, err := provider.URIForFile(path)
	require.NoError(t, err)
	token := entities.MediaToken{URI: uri, Grantee: hostPackage}

	t.Run("no provider", func(t *testing.T) {
		c := openCollection(t)
		_, err := c.AddMediaFromURI(ctx, token, "clip.wav", "audio")
		assert.ErrorIs(t, err, collection.ErrNoProvider)
	})

	t.Run("not granted", func(t *testing.T) {
		c := openCollection(t, collection.WithFileProvider(provider, hostPackage), collection.WithMediaDir(t.TempDir()))
		_, err := c.AddMediaFromURI(ctx, token, "clip.wav", "audio")
		assert.ErrorIs(t, err, fileprovider.ErrNotGranted)
	})
}
