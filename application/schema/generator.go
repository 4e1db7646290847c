// Package schema generates JSON Schemas for the bridge's configuration and
// for the argument shape of every operation.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/reglet-dev/ankibridge/hostfuncs"
)

// GenerateSchema creates a JSON schema from a Go struct.
// It uses the `invopop/jsonschema` library to reflect on the struct
// and generate a standard JSON Schema (Draft 2020-12).
func GenerateSchema(v interface{}) ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true, // Expand struct definitions inline
	}
	schema := reflector.Reflect(v)

	jsonBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	return jsonBytes, nil
}

// OperationSchema describes the argument object of op. Properties keep the
// declared parameter order.
func OperationSchema(op hostfuncs.Operation) *jsonschema.Schema {
	props := jsonschema.NewProperties()
	required := []string{}

	for _, p := range op.Params {
		props.Set(p.Key, paramSchema(p.Kind))
		if !p.Optional {
			required = append(required, p.Key)
		}
	}

	return &jsonschema.Schema{
		Title:                op.Name,
		Description:          op.Description,
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

func paramSchema(kind hostfuncs.ArgKind) *jsonschema.Schema {
	s := &jsonschema.Schema{Type: kind.JSONType()}
	switch kind {
	case hostfuncs.KindBytes:
		s.ContentEncoding = "base64"
	case hostfuncs.KindStringList:
		s.Items = &jsonschema.Schema{Type: "string"}
	case hostfuncs.KindStringListList:
		s.Items = &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}}
	}
	return s
}

// GenerateCatalog returns an indented JSON object mapping every operation
// name to its argument schema, in the order given.
func GenerateCatalog(ops []hostfuncs.Operation) ([]byte, error) {
	catalog := orderedmap.New[string, *jsonschema.Schema](len(ops))
	for _, op := range ops {
		catalog.Set(op.Name, OperationSchema(op))
	}

	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return data, nil
}
