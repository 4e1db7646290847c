package permission

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/reglet-dev/ankibridge/domain/errors"
	"github.com/reglet-dev/ankibridge/domain/entities"
	"github.com/reglet-dev/ankibridge/internal/testutil"
)

var granted = []entities.GrantResult{entities.PermissionGranted}

func newGate(t *testing.T) (*Gate, *testutil.FakePermissionOS) {
	t.Helper()
	os := testutil.NewFakePermissionOS()
	return NewGate(os), os
}

func TestGate_CheckGranted(t *testing.T) {
	g, os := newGate(t)
	assert.False(t, g.CheckGranted())

	os.SetGranted(DefaultPermission, true)
	assert.True(t, g.CheckGranted())
}

func TestGate_RequestGranted_AlreadyGranted(t *testing.T) {
	g, os := newGate(t)
	os.SetGranted(DefaultPermission, true)

	var got []bool
	require.NoError(t, g.RequestGranted(testutil.UI("main"), func(b bool) { got = append(got, b) }))

	assert.Equal(t, []bool{true}, got)
	assert.False(t, g.Pending(), "already-granted request must not arm the slot")
	assert.Empty(t, os.Requests(), "no prompt for an already-granted permission")

	// A later callback has nothing to resolve and must not crash.
	assert.NotPanics(t, func() {
		os.Deliver(DefaultRequestCode, []string{DefaultPermission}, granted)
	})
	assert.Equal(t, []bool{true}, got)
}

func TestGate_RequestGranted_NoUIContext(t *testing.T) {
	g, os := newGate(t)

	var got []bool
	require.NoError(t, g.RequestGranted(nil, func(b bool) { got = append(got, b) }))

	assert.Equal(t, []bool{false}, got)
	assert.False(t, g.Pending())
	assert.Empty(t, os.Requests())
}

func TestGate_RequestGranted_PromptAndResolve(t *testing.T) {
	g, os := newGate(t)

	var got []bool
	require.NoError(t, g.RequestGranted(testutil.UI("main"), func(b bool) { got = append(got, b) }))

	require.Len(t, os.Requests(), 1)
	assert.Equal(t, testutil.Request{UI: "main", Names: []string{DefaultPermission}, Code: DefaultRequestCode}, os.Requests()[0])
	assert.True(t, g.Pending())
	assert.Empty(t, got)

	assert.True(t, os.Deliver(DefaultRequestCode, []string{DefaultPermission}, granted))
	assert.Equal(t, []bool{true}, got)
	assert.False(t, g.Pending())
}

func TestGate_ExactlyOnceResolution(t *testing.T) {
	g, os := newGate(t)

	var got []bool
	require.NoError(t, g.RequestGranted(testutil.UI("main"), func(b bool) { got = append(got, b) }))

	assert.True(t, os.Deliver(DefaultRequestCode, []string{DefaultPermission}, []entities.GrantResult{entities.PermissionDenied}))
	assert.True(t, os.Deliver(DefaultRequestCode, []string{DefaultPermission}, granted), "duplicate is still ours, but a no-op")

	assert.Equal(t, []bool{false}, got)
}

func TestGate_SecondRequestWhilePending(t *testing.T) {
	g, _ := newGate(t)

	require.NoError(t, g.RequestGranted(testutil.UI("main"), func(bool) {}))

	called := false
	err := g.RequestGranted(testutil.UI("main"), func(bool) { called = true })

	assert.ErrorIs(t, err, domainerrors.ErrRequestPending)
	assert.False(t, called)
}

func TestGate_IgnoresForeignCallbacks(t *testing.T) {
	g, _ := newGate(t)
	require.NoError(t, g.RequestGranted(testutil.UI("main"), func(bool) {}))

	tests := []struct {
		name  string
		code  int
		perms []string
	}{
		{"other code", 1, []string{DefaultPermission}},
		{"other permission", DefaultRequestCode, []string{"android.permission.CAMERA"}},
		{"no permissions", DefaultRequestCode, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, g.OnRequestPermissionsResult(tt.code, tt.perms, granted))
			assert.True(t, g.Pending())
		})
	}
}

func TestGate_EmptyResultsMeanDenied(t *testing.T) {
	g, _ := newGate(t)

	var got []bool
	require.NoError(t, g.RequestGranted(testutil.UI("main"), func(b bool) { got = append(got, b) }))

	assert.True(t, g.OnRequestPermissionsResult(DefaultRequestCode, []string{DefaultPermission}, nil))
	assert.Equal(t, []bool{false}, got)
}

func TestGate_ResultSlotFollowsPermissionIndex(t *testing.T) {
	g, _ := newGate(t)

	var got []bool
	require.NoError(t, g.RequestGranted(testutil.UI("main"), func(b bool) { got = append(got, b) }))

	perms := []string{"android.permission.CAMERA", DefaultPermission}
	results := []entities.GrantResult{entities.PermissionDenied, entities.PermissionGranted}
	assert.True(t, g.OnRequestPermissionsResult(DefaultRequestCode, perms, results))
	assert.Equal(t, []bool{true}, got)
}

func TestGate_PromptFailureResolvesFalse(t *testing.T) {
	g, os := newGate(t)
	os.RequestErr = errors.New("activity finishing")

	var got []bool
	require.NoError(t, g.RequestGranted(testutil.UI("main"), func(b bool) { got = append(got, b) }))

	assert.Equal(t, []bool{false}, got)
	assert.False(t, g.Pending())
}

func TestGate_Abandon(t *testing.T) {
	g, os := newGate(t)

	called := false
	require.NoError(t, g.RequestGranted(testutil.UI("main"), func(bool) { called = true }))
	g.Abandon()

	assert.False(t, g.Pending())
	os.Deliver(DefaultRequestCode, []string{DefaultPermission}, granted)
	assert.False(t, called)
}

func TestGate_CustomPermissionAndCode(t *testing.T) {
	os := testutil.NewFakePermissionOS()
	g := NewGate(os, WithPermission("perm.custom"), WithRequestCode(99), WithLogger(nil))

	assert.Equal(t, "perm.custom", g.Permission())

	var got []bool
	require.NoError(t, g.RequestGranted(testutil.UI("main"), func(b bool) { got = append(got, b) }))
	assert.False(t, os.Deliver(DefaultRequestCode, []string{"perm.custom"}, granted))
	assert.True(t, os.Deliver(99, []string{"perm.custom"}, granted))
	assert.Equal(t, []bool{true}, got)
}

func TestGate_CallbackRacesDispatch(t *testing.T) {
	for range 50 {
		g, os := newGate(t)

		var resolved atomic.Int32
		require.NoError(t, g.RequestGranted(testutil.UI("main"), func(bool) { resolved.Add(1) }))

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				os.Deliver(DefaultRequestCode, []string{DefaultPermission}, granted)
			}()
			go func() {
				defer wg.Done()
				_ = g.CheckGranted()
				_ = g.Pending()
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), resolved.Load())
	}
}
