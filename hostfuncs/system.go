package hostfuncs

import (
	"context"

	"github.com/reglet-dev/ankibridge/domain/ports"
)

// TestReply is the fixed value returned by the test liveness probe.
const TestReply = "Test Successful!"

// SystemBundle returns the liveness probe and host version query:
// test, apiHostSpecVersion.
func SystemBundle() Bundle {
	return &staticBundle{ops: []Operation{
		op("test", "Liveness probe; returns a fixed string.", nil,
			func(context.Context, ports.ContentAPI, Args) (any, error) {
				return TestReply, nil
			}),
		op("apiHostSpecVersion", "Version of the host content API.", nil,
			func(ctx context.Context, api ports.ContentAPI, _ Args) (any, error) {
				return api.APIHostSpecVersion(ctx)
			}),
	}}
}
