package hostfuncs

import "github.com/reglet-dev/ankibridge/domain/ports"

// Bundle is a pre-configured set of related operations.
// Bundles allow registering multiple operations at once.
type Bundle interface {
	// Operations returns the descriptors in the bundle.
	Operations() []Operation
}

// staticBundle implements Bundle with a fixed set of operations.
type staticBundle struct {
	ops []Operation
}

func (b *staticBundle) Operations() []Operation {
	return b.ops
}

// DefaultBundles returns every bundle the bridge exposes. The media bundle is
// only included when a stager is supplied; without it addMedia is not implemented.
func DefaultBundles(stager ports.MediaStager) []Bundle {
	bundles := []Bundle{
		SystemBundle(),
		NoteBundle(),
		ModelBundle(),
		DeckBundle(),
	}
	if stager != nil {
		bundles = append(bundles, MediaBundle(stager))
	}
	return bundles
}

// WithBundle registers every operation of the given bundles.
// Returns an error on duplicate names, same as WithOperation.
func WithBundle(bundles ...Bundle) RegistryOption {
	return func(b *registryBuilder) {
		for _, bundle := range bundles {
			for _, o := range bundle.Operations() {
				if err := b.addOperation(o); err != nil {
					b.errors = append(b.errors, err)
				}
			}
		}
	}
}

// shapeAs adapts a typed shaping function to ShapeFunc.
func shapeAs[T any](fn func(T) any) ShapeFunc {
	return func(result any) any {
		v, ok := result.(T)
		if !ok {
			return result
		}
		return fn(v)
	}
}
