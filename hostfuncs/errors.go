package hostfuncs

import (
	stdErrors "errors"

	domainerrors "github.com/reglet-dev/ankibridge/domain/errors"
)

// asHostFailure keeps taxonomy errors as they are and wraps anything else the
// host returned in a HostCallFailedError for method.
func asHostFailure(method string, err error) error {
	if err == nil {
		return nil
	}
	var de domainerrors.DetailedError
	if stdErrors.As(err, &de) {
		return err
	}
	return &domainerrors.HostCallFailedError{Method: method, Err: err}
}
