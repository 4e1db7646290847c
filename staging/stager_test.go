package staging

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/ankibridge/domain/entities"
	"github.com/reglet-dev/ankibridge/infrastructure/fileprovider"
)

const hostPackage = "com.ichi2.anki"

func newStager(t *testing.T) (*Stager, *fileprovider.Provider) {
	t.Helper()
	root := t.TempDir()
	provider, err := fileprovider.New("com.example.app.fileprovider", root)
	require.NoError(t, err)
	return New(filepath.Join(root, "media"), provider, hostPackage), provider
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"my file.mp3", "my_file.mp3"},
		{"tab\there.png", "tab_here.png"},
		{"a  b", "a__b"},
		{"../../etc/passwd", ".._.._etc_passwd"},
		{"", DefaultName},
		{"..", DefaultName},
		{"plain.jpg", "plain.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.in))
		})
	}
}

func TestStage_WritesAndGrants(t *testing.T) {
	stager, provider := newStager(t)

	staged, err := stager.Stage(context.Background(), entities.MediaPayload{
		PreferredName: "my file.mp3",
		MimeType:      "audio/mpeg",
		Bytes:         []byte("ID3"),
	})
	require.NoError(t, err)

	assert.Equal(t, "my_file.mp3", staged.Name)
	assert.Equal(t, "my_file.mp3", filepath.Base(staged.Path))
	assert.Equal(t, hostPackage, staged.Token.Grantee)
	assert.Contains(t, staged.Token.URI, "content://com.example.app.fileprovider/media/")

	info, err := os.Stat(staged.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	rc, err := provider.Open(hostPackage, staged.Token.URI)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "ID3", string(data))

	_, err = provider.Open("com.other", staged.Token.URI)
	assert.ErrorIs(t, err, fileprovider.ErrNotGranted)
}

func TestStage_UniqueLocations(t *testing.T) {
	stager, _ := newStager(t)
	payload := entities.MediaPayload{PreferredName: "same.png", Bytes: []byte{1}}

	a, err := stager.Stage(context.Background(), payload)
	require.NoError(t, err)
	b, err := stager.Stage(context.Background(), payload)
	require.NoError(t, err)

	assert.NotEqual(t, a.Path, b.Path)
	assert.NotEqual(t, a.Token.URI, b.Token.URI)
}

func TestRelease_RemovesFileAndGrant(t *testing.T) {
	stager, provider := newStager(t)

	staged, err := stager.Stage(context.Background(), entities.MediaPayload{PreferredName: "my file.mp3", Bytes: []byte("x")})
	require.NoError(t, err)

	stager.Release(staged)

	_, err = os.Stat(staged.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, err = os.Stat(filepath.Dir(staged.Path))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = provider.Open(hostPackage, staged.Token.URI)
	assert.ErrorIs(t, err, fileprovider.ErrNotGranted)

	stager.Release(staged)
}

func TestStage_OutsideProviderRoot(t *testing.T) {
	provider, err := fileprovider.New("auth", t.TempDir())
	require.NoError(t, err)
	outside := t.TempDir()
	stager := New(outside, provider, hostPackage)

	_, err = stager.Stage(context.Background(), entities.MediaPayload{PreferredName: "a", Bytes: []byte{1}})
	require.ErrorIs(t, err, fileprovider.ErrOutsideRoot)

	entries, err := os.ReadDir(outside)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStage_CanceledContext(t *testing.T) {
	stager, _ := newStager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := stager.Stage(ctx, entities.MediaPayload{PreferredName: "a"})
	assert.ErrorIs(t, err, context.Canceled)
}
