package hostfuncs

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/reglet-dev/ankibridge/domain/entities"
	domainerrors "github.com/reglet-dev/ankibridge/domain/errors"
)

// validate is a package-level singleton for better performance.
// Creating a new validator on each call is expensive; reusing is recommended.
var validate = validator.New()

// validateModelSpec checks the cross-field rules of a custom model before it
// reaches the host: one qfmt and afmt per card, and a sort field in range.
func validateModelSpec(method string, spec entities.ModelSpec) error {
	if err := validate.Struct(spec); err != nil {
		return &domainerrors.ContractViolationError{Method: method, Err: err}
	}
	if spec.SortField != nil && *spec.SortField >= len(spec.Fields) {
		return &domainerrors.ContractViolationError{
			Method: method,
			Err:    fmt.Errorf("sortf %d out of range for %d fields", *spec.SortField, len(spec.Fields)),
		}
	}
	return nil
}
