package hostfuncs

import (
	"context"
	"errors"

	"github.com/reglet-dev/ankibridge/domain/entities"
	domainerrors "github.com/reglet-dev/ankibridge/domain/errors"
	"github.com/reglet-dev/ankibridge/domain/ports"
)

var errEmptyMediaName = errors.New("host assigned no filename")

// MediaBundle returns the media operations: addMedia.
func MediaBundle(stager ports.MediaStager) Bundle {
	return &staticBundle{ops: []Operation{
		op("addMedia", "Stage bytes and add them to the host media collection.",
			[]Param{required("bytes", KindBytes), required("preferredName", KindString), required("mimeType", KindString)},
			addMediaWith(stager)),
	}}
}

// addMediaWith stages the payload, hands the token to the host and releases
// the staged file once the host call returns, whatever its result.
func addMediaWith(stager ports.MediaStager) OperationFunc {
	return func(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
		payload := entities.MediaPayload{
			PreferredName: args.String("preferredName"),
			MimeType:      args.String("mimeType"),
			Bytes:         args.Bytes("bytes"),
		}
		fail := func(err error) error {
			return &domainerrors.MediaAddFailedError{PreferredName: payload.PreferredName, MimeType: payload.MimeType, Err: err}
		}

		staged, err := stager.Stage(ctx, payload)
		if err != nil {
			return nil, fail(err)
		}
		defer stager.Release(staged)

		name, err := api.AddMediaFromURI(ctx, staged.Token, staged.Name, payload.MimeType)
		if err != nil {
			return nil, fail(err)
		}
		if name == "" {
			return nil, fail(errEmptyMediaName)
		}
		return name, nil
	}
}
