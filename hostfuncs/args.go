package hostfuncs

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"

	domainerrors "github.com/reglet-dev/ankibridge/domain/errors"
)

// ArgKind is the shape an argument must have.
type ArgKind int

const (
	KindInt ArgKind = iota
	KindString
	KindBytes
	KindStringList
	KindStringListList
)

// String returns the human-readable shape used in error messages.
func (k ArgKind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindStringList:
		return "list of strings"
	case KindStringListList:
		return "list of string lists"
	default:
		return "unknown"
	}
}

// JSONType returns the JSON Schema type of the kind.
func (k ArgKind) JSONType() string {
	switch k {
	case KindInt:
		return "integer"
	case KindString, KindBytes:
		return "string"
	default:
		return "array"
	}
}

// Param is one entry of an operation's argument schema.
type Param struct {
	Key      string
	Kind     ArgKind
	Optional bool
}

// Args are the named arguments of one call.
//
// Values may come straight from Go callers ([]string, int64, []byte) or from a
// JSON transport ([]any, json.Number or float64, base64 strings); the
// accessors accept both.
type Args map[string]any

// DecodeArgs decodes a JSON object into Args. Numbers stay json.Number so
// ids above 2^53 reach validation exactly. A JSON null yields empty Args.
func DecodeArgs(data []byte) (Args, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var args Args
	if err := dec.Decode(&args); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after arguments object")
	}
	if args == nil {
		args = Args{}
	}
	return args, nil
}

// validateArgs checks every declared parameter before the host is touched.
// A null value counts as absent.
func validateArgs(method string, params []Param, args Args) error {
	for _, p := range params {
		v, ok := args[p.Key]
		if !ok || v == nil {
			if p.Optional {
				continue
			}
			return &domainerrors.ContractViolationError{Method: method, Argument: p.Key, Expected: p.Kind.String()}
		}
		if !accepts(p.Kind, v) {
			return &domainerrors.ContractViolationError{
				Method:   method,
				Argument: p.Key,
				Expected: p.Kind.String(),
				Got:      fmt.Sprintf("%T", v),
			}
		}
	}
	return nil
}

func accepts(kind ArgKind, v any) bool {
	switch kind {
	case KindInt:
		_, ok := toInt64(v)
		return ok
	case KindString:
		_, ok := v.(string)
		return ok
	case KindBytes:
		_, ok := toBytes(v)
		return ok
	case KindStringList:
		_, ok := toStrings(v)
		return ok
	case KindStringListList:
		_, ok := toStringLists(v)
		return ok
	default:
		return false
	}
}

// Has reports whether key is present and non-null.
func (a Args) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// Int64 returns an integer argument. Zero if absent.
func (a Args) Int64(key string) int64 {
	n, _ := toInt64(a[key])
	return n
}

// Int returns an integer argument as int.
func (a Args) Int(key string) int {
	return int(a.Int64(key))
}

// String returns a string argument.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Bytes returns a byte argument.
func (a Args) Bytes(key string) []byte {
	b, _ := toBytes(a[key])
	return b
}

// Strings returns a list-of-strings argument. Never nil once validated.
func (a Args) Strings(key string) []string {
	s, _ := toStrings(a[key])
	return s
}

// StringLists returns a list-of-lists argument.
func (a Args) StringLists(key string) [][]string {
	s, _ := toStringLists(a[key])
	return s
}

// OptionalInt64 returns a pointer to the argument, or nil when absent.
func (a Args) OptionalInt64(key string) *int64 {
	if !a.Has(key) {
		return nil
	}
	n := a.Int64(key)
	return &n
}

// maxExactFloat is the largest magnitude a float64 holds without rounding.
const maxExactFloat = 1 << 53

// toInt64 handles int, int32, int64, json.Number and integral float64.
// A float64 beyond ±2^53 may already have been rounded, so it is refused.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > maxExactFloat {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// toBytes accepts raw bytes or a base64 string, which is how JSON carries them.
func toBytes(v any) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return b, true
	case string:
		decoded, err := base64.StdEncoding.DecodeString(b)
		if err != nil {
			return nil, false
		}
		return decoded, true
	default:
		return nil, false
	}
}

func toStrings(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}

func toStringLists(v any) ([][]string, bool) {
	switch s := v.(type) {
	case [][]string:
		return s, true
	case []any:
		out := make([][]string, 0, len(s))
		for _, item := range s {
			inner, ok := toStrings(item)
			if !ok {
				return nil, false
			}
			out = append(out, inner)
		}
		return out, true
	default:
		return nil, false
	}
}
