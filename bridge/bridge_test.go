package bridge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/ankibridge/domain/entities"
	domainerrors "github.com/reglet-dev/ankibridge/domain/errors"
	"github.com/reglet-dev/ankibridge/domain/policy"
	"github.com/reglet-dev/ankibridge/infrastructure/fileprovider"
	"github.com/reglet-dev/ankibridge/internal/testutil"
	"github.com/reglet-dev/ankibridge/permission"
	"github.com/reglet-dev/ankibridge/staging"
)

const perm = permission.DefaultPermission

type fixture struct {
	os      *testutil.FakePermissionOS
	spy     *testutil.SpyContentAPI
	denials *policy.RecordingDenialHandler
	bridge  *Bridge
}

func newFixture(t *testing.T, granted bool, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		os:      testutil.NewFakePermissionOS(),
		spy:     testutil.NewSpyContentAPI(),
		denials: &policy.RecordingDenialHandler{},
	}
	f.os.SetGranted(perm, granted)

	b, err := New(permission.NewGate(f.os), append([]Option{WithDenialHandler(f.denials)}, opts...)...)
	require.NoError(t, err)
	b.Attach(f.spy)
	f.bridge = b
	return f
}

func (f *fixture) call(t *testing.T, method string, args map[string]any) entities.Outcome {
	t.Helper()
	out, err := f.bridge.Call(context.Background(), method, args)
	require.NoError(t, err)
	return out
}

func TestNew_RequiresGate(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestDispatch_DeniedNeverReachesHost(t *testing.T) {
	methods := []string{
		"test", "addNote", "addNotes", "addMedia", "findDuplicateNotesWithKey",
		"findDuplicateNotesWithKeys", "getNote", "modelList", "deckList", "bogusOp",
	}

	for _, method := range methods {
		t.Run(method, func(t *testing.T) {
			f := newFixture(t, false)

			out := f.call(t, method, map[string]any{"modelId": 1})

			testutil.AssertFailure(t, out, entities.ErrorTypePermissionDenied)
			assert.Equal(t, domainerrors.PermissionDeniedMessage, out.Error.Message)
			assert.Empty(t, f.spy.Calls())
			assert.Equal(t, []string{method}, f.denials.Methods())
		})
	}
}

func TestDispatch_CheckPermission(t *testing.T) {
	for _, granted := range []bool{true, false} {
		f := newFixture(t, granted)
		out := f.call(t, "checkPermission", nil)
		assert.Equal(t, granted, testutil.RequireSuccess(t, out))
		assert.Empty(t, f.denials.Methods())
	}
}

func TestDispatch_UnknownMethod(t *testing.T) {
	f := newFixture(t, true)

	out := f.call(t, "bogusOp", map[string]any{})

	testutil.AssertNotImplemented(t, out)
	assert.Empty(t, f.spy.Calls())
}

func TestDispatch_Test(t *testing.T) {
	f := newFixture(t, true)
	assert.Equal(t, "Test Successful!", testutil.RequireSuccess(t, f.call(t, "test", nil)))
}

func TestDispatch_ContractViolationBeforeHost(t *testing.T) {
	f := newFixture(t, true)
	f.spy.Models[1] = "Basic"

	out := f.call(t, "addNote", map[string]any{
		"modelId": 1,
		"deckId":  1,
		"fields":  map[string]any{"front": "Q"},
		"tags":    []string{},
	})

	testutil.AssertFailure(t, out, entities.ErrorTypeContractViolation)
	assert.Contains(t, out.Error.Message, `"fields"`)
	assert.Empty(t, f.spy.Calls())
}

func TestDispatch_HostFailure(t *testing.T) {
	f := newFixture(t, true)

	out := f.call(t, "getNote", map[string]any{"noteId": 12345})

	testutil.AssertFailure(t, out, entities.ErrorTypeHostCallFailed)
	assert.Equal(t, "getNote", out.Error.Code)
}

func TestDispatch_DuplicatesAligned(t *testing.T) {
	f := newFixture(t, true)
	f.spy.Notes[8] = entities.Note{ID: 8, Fields: []string{"b", "B"}, Tags: []string{"y", "x"}}

	out := f.call(t, "findDuplicateNotesWithKeys", map[string]any{"mid": 1, "keys": []any{"a", "b", "c"}})

	testutil.RequireSuccess(t, out)
	data, err := jsonOf(out.Value)
	require.NoError(t, err)
	testutil.AssertJSONEqual(t, `[[],[{"id":8,"fields":["b","B"],"tags":["x","y"]}],[]]`, data)
}

func TestDispatch_Unattached(t *testing.T) {
	f := newFixture(t, true)
	f.bridge.Detach()
	assert.Equal(t, StateUnattached, f.bridge.State())

	out := f.call(t, "deckList", nil)
	testutil.AssertFailure(t, out, entities.ErrorTypeHostCallFailed)
	assert.Contains(t, out.Error.Message, domainerrors.ErrNotAttached.Error())

	testutil.AssertNotImplemented(t, f.call(t, "bogusOp", nil))
	assert.Equal(t, true, testutil.RequireSuccess(t, f.call(t, "checkPermission", nil)))
}

func TestDispatch_PanicBecomesHostCallFailed(t *testing.T) {
	f := newFixture(t, true)
	f.bridge.Attach(panickingAPI{f.spy})

	out := f.call(t, "deckList", nil)
	testutil.AssertFailure(t, out, entities.ErrorTypeHostCallFailed)
	assert.Contains(t, out.Error.Message, "panic")
}

type panickingAPI struct {
	*testutil.SpyContentAPI
}

func (panickingAPI) DeckList(context.Context) (map[int64]string, error) {
	panic("engine crashed")
}

func TestState(t *testing.T) {
	f := newFixture(t, true)
	assert.Equal(t, StateAttached, f.bridge.State())

	f.bridge.AttachUI(testutil.UI("main"))
	assert.Equal(t, StateAttachedUI, f.bridge.State())
	assert.Equal(t, "attached_ui", f.bridge.State().String())

	f.bridge.DetachUI()
	assert.Equal(t, StateAttached, f.bridge.State())
}

func TestRequestPermission_AlreadyGranted(t *testing.T) {
	f := newFixture(t, true)
	f.bridge.AttachUI(testutil.UI("main"))

	out := f.call(t, "requestPremission", nil)

	assert.Equal(t, true, testutil.RequireSuccess(t, out))
	assert.Empty(t, f.os.Requests())
	assert.False(t, f.os.Deliver(9999, []string{perm}, []entities.GrantResult{entities.PermissionGranted}))
}

func TestRequestPermission_NoUI(t *testing.T) {
	f := newFixture(t, false)

	out := f.call(t, "requestPermission", nil)

	assert.Equal(t, false, testutil.RequireSuccess(t, out))
	assert.Empty(t, f.os.Requests())
}

func TestRequestPermission_Handshake(t *testing.T) {
	tests := []struct {
		name    string
		results []entities.GrantResult
		want    bool
	}{
		{"granted", []entities.GrantResult{entities.PermissionGranted}, true},
		{"denied", []entities.GrantResult{entities.PermissionDenied}, false},
		{"empty results", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			f.bridge.AttachUI(testutil.UI("main"))

			outcomes := make(chan entities.Outcome, 2)
			f.bridge.Dispatch(context.Background(), "requestPremission", nil, func(o entities.Outcome) {
				outcomes <- o
			})

			require.Len(t, f.os.Requests(), 1)
			assert.Equal(t, permission.DefaultRequestCode, f.os.Requests()[0].Code)
			assert.Empty(t, outcomes)

			go f.os.Deliver(permission.DefaultRequestCode, []string{perm}, tt.results)

			select {
			case out := <-outcomes:
				assert.Equal(t, tt.want, testutil.RequireSuccess(t, out))
			case <-time.After(time.Second):
				t.Fatal("permission request never resolved")
			}

			assert.True(t, f.os.Deliver(permission.DefaultRequestCode, []string{perm}, tt.results))
			assert.Empty(t, outcomes)
		})
	}
}

func TestRequestPermission_SecondWhilePending(t *testing.T) {
	f := newFixture(t, false)
	f.bridge.AttachUI(testutil.UI("main"))

	var mu sync.Mutex
	var first []entities.Outcome
	f.bridge.Dispatch(context.Background(), "requestPremission", nil, func(o entities.Outcome) {
		mu.Lock()
		first = append(first, o)
		mu.Unlock()
	})

	out := f.call(t, "requestPremission", nil)
	testutil.AssertFailure(t, out, entities.ErrorTypePermissionDenied)
	assert.Equal(t, domainerrors.ErrRequestPending.Error(), out.Error.Message)
	assert.Len(t, f.os.Requests(), 1)

	require.True(t, f.os.Deliver(permission.DefaultRequestCode, []string{perm}, []entities.GrantResult{entities.PermissionGranted}))
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, first, 1)
	assert.Equal(t, true, first[0].Value)

	assert.Equal(t, "Test Successful!", testutil.RequireSuccess(t, f.call(t, "test", nil)))
}

func TestRequestPermission_ForeignCallbackIgnored(t *testing.T) {
	f := newFixture(t, false)
	f.bridge.AttachUI(testutil.UI("main"))

	resolved := false
	f.bridge.Dispatch(context.Background(), "requestPremission", nil, func(entities.Outcome) { resolved = true })

	assert.False(t, f.os.Deliver(1, []string{perm}, []entities.GrantResult{entities.PermissionGranted}))
	assert.False(t, f.os.Deliver(permission.DefaultRequestCode, []string{"android.permission.CAMERA"}, []entities.GrantResult{entities.PermissionGranted}))
	assert.False(t, resolved)
}

func TestDetachUI_AbandonsPending(t *testing.T) {
	f := newFixture(t, false)
	f.bridge.AttachUI(testutil.UI("main"))

	resolved := false
	f.bridge.Dispatch(context.Background(), "requestPremission", nil, func(entities.Outcome) { resolved = true })
	f.bridge.DetachUI()

	assert.True(t, f.os.Deliver(permission.DefaultRequestCode, []string{perm}, []entities.GrantResult{entities.PermissionGranted}))
	assert.False(t, resolved)
}

func TestCall_ContextCanceled(t *testing.T) {
	f := newFixture(t, false)
	f.bridge.AttachUI(testutil.UI("main"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.bridge.Call(ctx, "requestPremission", nil)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestAddMedia_EndToEnd(t *testing.T) {
	root := t.TempDir()
	provider, err := fileprovider.New("com.example.app.fileprovider", root)
	require.NoError(t, err)
	stager := staging.New(filepath.Join(root, "media"), provider, "com.ichi2.anki")

	f := newFixture(t, true, WithStager(stager))
	f.spy.Provider = provider
	f.spy.HostPackage = "com.ichi2.anki"

	out := f.call(t, "addMedia", map[string]any{
		"bytes":         []byte("ID3\x03"),
		"preferredName": "my file.mp3",
		"mimeType":      "audio/mpeg",
	})

	assert.Equal(t, "my_file.mp3", testutil.RequireSuccess(t, out))
	assert.Equal(t, []byte("ID3\x03"), f.spy.MediaData["my_file.mp3"])

	entries, err := os.ReadDir(filepath.Join(root, "media"))
	require.NoError(t, err)
	assert.Empty(t, entries, "staged media left behind")
}

func TestAddMedia_WithoutStager(t *testing.T) {
	f := newFixture(t, true)
	testutil.AssertNotImplemented(t, f.call(t, "addMedia", map[string]any{}))
}
