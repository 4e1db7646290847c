package hostfuncs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/reglet-dev/ankibridge/domain/errors"
	"github.com/reglet-dev/ankibridge/domain/ports"
	"github.com/reglet-dev/ankibridge/internal/testutil"
)

func echoOp(name string, params ...Param) Operation {
	return Operation{
		Name:   name,
		Params: params,
		Invoke: func(_ context.Context, _ ports.ContentAPI, args Args) (any, error) {
			return args, nil
		},
	}
}

func TestNewRegistry_Empty(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)
	assert.Empty(t, registry.Names())
}

func TestNewRegistry_WithOperation(t *testing.T) {
	registry, err := NewRegistry(WithOperation(echoOp("ping")))
	require.NoError(t, err)

	assert.True(t, registry.Has("ping"))
	assert.False(t, registry.Has("pong"))
	assert.Equal(t, []string{"ping"}, registry.Names())
}

func TestNewRegistry_Errors(t *testing.T) {
	tests := []struct {
		name    string
		ops     []Operation
		wantErr string
	}{
		{"duplicate", []Operation{echoOp("dup"), echoOp("dup")}, `duplicate operation name: "dup"`},
		{"empty name", []Operation{echoOp("")}, "operation name cannot be empty"},
		{"missing invoke", []Operation{{Name: "x"}}, `operation "x" has no invoke function`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(WithOperation(tt.ops...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRegistry_Invoke_Unknown(t *testing.T) {
	registry, err := NewRegistry(WithOperation(echoOp("ping")))
	require.NoError(t, err)

	_, err = registry.Invoke(context.Background(), nil, "bogusOp", Args{})

	var nie *domainerrors.NotImplementedError
	require.ErrorAs(t, err, &nie)
	assert.Equal(t, "bogusOp", nie.Method)
}

func TestRegistry_Invoke_NilArgs(t *testing.T) {
	registry, err := NewRegistry(WithOperation(echoOp("ping")))
	require.NoError(t, err)

	got, err := registry.Invoke(context.Background(), nil, "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, Args{}, got)
}

func TestRegistry_Invoke_ValidatesBeforeCalling(t *testing.T) {
	called := false
	o := Operation{
		Name:   "addThing",
		Params: []Param{required("fields", KindStringList)},
		Invoke: func(context.Context, ports.ContentAPI, Args) (any, error) {
			called = true
			return nil, nil
		},
	}
	registry, err := NewRegistry(WithOperation(o))
	require.NoError(t, err)

	_, err = registry.Invoke(context.Background(), nil, "addThing", Args{"fields": "not a list"})

	var cve *domainerrors.ContractViolationError
	require.ErrorAs(t, err, &cve)
	assert.Equal(t, "fields", cve.Argument)
	assert.False(t, called)
}

func TestRegistry_Invoke_WrapsHostErrors(t *testing.T) {
	hostErr := errors.New("database locked")
	o := Operation{
		Name: "getThing",
		Invoke: func(context.Context, ports.ContentAPI, Args) (any, error) {
			return nil, hostErr
		},
	}
	registry, err := NewRegistry(WithOperation(o))
	require.NoError(t, err)

	_, err = registry.Invoke(context.Background(), nil, "getThing", nil)

	var hcf *domainerrors.HostCallFailedError
	require.ErrorAs(t, err, &hcf)
	assert.Equal(t, "getThing", hcf.Method)
	assert.ErrorIs(t, err, hostErr)
}

func TestRegistry_Invoke_KeepsTaxonomyErrors(t *testing.T) {
	o := Operation{
		Name: "addMedia",
		Invoke: func(context.Context, ports.ContentAPI, Args) (any, error) {
			return nil, &domainerrors.MediaAddFailedError{PreferredName: "a.mp3"}
		},
	}
	registry, err := NewRegistry(WithOperation(o))
	require.NoError(t, err)

	_, err = registry.Invoke(context.Background(), nil, "addMedia", nil)

	var maf *domainerrors.MediaAddFailedError
	assert.ErrorAs(t, err, &maf)
}

func TestRegistry_Invoke_AppliesShape(t *testing.T) {
	o := Operation{
		Name:   "count",
		Invoke: func(context.Context, ports.ContentAPI, Args) (any, error) { return 2, nil },
		Shape:  func(r any) any { return r.(int) * 10 },
	}
	registry, err := NewRegistry(WithOperation(o))
	require.NoError(t, err)

	got, err := registry.Invoke(context.Background(), nil, "count", nil)
	require.NoError(t, err)
	assert.Equal(t, 20, got)
}

func TestRegistry_Invoke_SetsCallContext(t *testing.T) {
	var captured CallContext
	o := Operation{
		Name: "capture",
		Invoke: func(ctx context.Context, _ ports.ContentAPI, _ Args) (any, error) {
			captured, _ = ctx.(CallContext)
			return nil, nil
		},
	}
	registry, err := NewRegistry(WithOperation(o))
	require.NoError(t, err)

	_, err = registry.Invoke(context.Background(), nil, "capture", nil)
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "capture", captured.Method())
	assert.NotEmpty(t, captured.CallID())
}

func TestRegistry_Invoke_ReplacesStaleCallContext(t *testing.T) {
	var captured CallContext
	o := Operation{
		Name: "capture",
		Invoke: func(ctx context.Context, _ ports.ContentAPI, _ Args) (any, error) {
			captured, _ = ctx.(CallContext)
			return nil, nil
		},
	}
	registry, err := NewRegistry(WithOperation(o))
	require.NoError(t, err)

	stale := NewCallContext(context.Background(), "addNote")
	_, err = registry.Invoke(stale, nil, "capture", nil)
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "capture", captured.Method())
	assert.NotEqual(t, stale.CallID(), captured.CallID())
}

func TestRegistry_Names_Sorted(t *testing.T) {
	registry, err := NewRegistry(WithOperation(echoOp("zebra"), echoOp("alpha"), echoOp("middle")))
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "middle", "zebra"}, registry.Names())

	names := registry.Names()
	names[0] = "mutated"
	assert.Equal(t, "alpha", registry.Names()[0])
}

func TestRegistry_LookupAndOperations(t *testing.T) {
	registry, err := NewRegistry(WithBundle(DefaultBundles(&testutil.FakeStager{})...))
	require.NoError(t, err)

	o, ok := registry.Lookup("addNote")
	require.True(t, ok)
	assert.Len(t, o.Params, 4)

	_, ok = registry.Lookup("bogusOp")
	assert.False(t, ok)

	ops := registry.Operations()
	require.Len(t, ops, len(registry.Names()))
	for i, name := range registry.Names() {
		assert.Equal(t, name, ops[i].Name)
	}
}
