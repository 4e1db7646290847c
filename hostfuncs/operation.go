package hostfuncs

import (
	"context"

	"github.com/reglet-dev/ankibridge/domain/ports"
)

// OperationFunc performs one operation against the host engine.
// Args have already been validated against the operation's Params.
type OperationFunc func(ctx context.Context, api ports.ContentAPI, args Args) (any, error)

// ShapeFunc converts a host result into transport-friendly primitives.
type ShapeFunc func(result any) any

// Operation describes one named method of the bridge.
type Operation struct {
	// Invoke performs the host call.
	Invoke OperationFunc

	// Shape, when set, is applied to a successful result.
	Shape ShapeFunc

	// Name is the method name callers use.
	Name string

	// Description is a one-line summary used in schema output.
	Description string

	// Params is the ordered argument schema.
	Params []Param
}

// op is shorthand for building table entries.
func op(name, description string, params []Param, invoke OperationFunc) Operation {
	return Operation{Name: name, Description: description, Params: params, Invoke: invoke}
}

// withShape returns a copy of o with a result shaper.
func (o Operation) withShape(shape ShapeFunc) Operation {
	o.Shape = shape
	return o
}

func required(key string, kind ArgKind) Param {
	return Param{Key: key, Kind: kind}
}

func optional(key string, kind ArgKind) Param {
	return Param{Key: key, Kind: kind, Optional: true}
}
