package guest

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/reglet-dev/ankibridge/domain/entities"
)

// ErrEmptyResponse is returned when the host answers with no bytes.
var ErrEmptyResponse = errors.New("empty response from host")

// Transport carries one encoded request to the host and returns its answer.
type Transport func(request []byte) []byte

// Client invokes bridge methods over a Transport.
type Client struct {
	transport Transport
}

// NewClient creates a client over t.
func NewClient(t Transport) *Client {
	return &Client{transport: t}
}

type invokeRequest struct {
	Args   map[string]any `json:"args,omitempty"`
	Method string         `json:"method"`
}

// Invoke calls method with args. The error covers transport and encoding
// problems only; bridge failures come back as an error Outcome.
func (c *Client) Invoke(method string, args map[string]any) (entities.Outcome, error) {
	req, err := json.Marshal(invokeRequest{Method: method, Args: args})
	if err != nil {
		return entities.Outcome{}, fmt.Errorf("encode request: %w", err)
	}

	resp := c.transport(req)
	if len(resp) == 0 {
		return entities.Outcome{}, ErrEmptyResponse
	}

	var out entities.Outcome
	if err := json.Unmarshal(resp, &out); err != nil {
		return entities.Outcome{}, fmt.Errorf("decode outcome: %w", err)
	}
	return out, nil
}

// InvokeInto calls method and decodes a success value into v. Error and
// not_implemented outcomes are returned as errors.
func (c *Client) InvokeInto(method string, args map[string]any, v any) error {
	out, err := c.Invoke(method, args)
	if err != nil {
		return err
	}
	if out.IsNotImplemented() {
		return fmt.Errorf("%s: not implemented", method)
	}
	if out.IsError() {
		if out.Error != nil {
			return out.Error
		}
		return fmt.Errorf("%s: failed", method)
	}
	if v == nil {
		return nil
	}

	// Value arrives as generic JSON; round-trip it into the caller's type.
	raw, err := json.Marshal(out.Value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
