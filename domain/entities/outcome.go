package entities

// OutcomeStatus represents how a dispatched call ended.
type OutcomeStatus string

const (
	// OutcomeSuccess indicates the call produced a value.
	OutcomeSuccess OutcomeStatus = "success"

	// OutcomeError indicates the call failed; Error is set.
	OutcomeError OutcomeStatus = "error"

	// OutcomeNotImplemented indicates the method name is unknown to this bridge.
	// It is a soft result that callers use for capability probing.
	OutcomeNotImplemented OutcomeStatus = "not_implemented"
)

// Outcome is the single result of one call on the bridge.
type Outcome struct {
	// Value is the shaped result. Only meaningful on success; may be nil or false.
	Value any `json:"value"`

	// Error is set when Status is OutcomeError.
	Error *ErrorDetail `json:"error,omitempty"`

	// Status tells the caller which branch to take.
	Status OutcomeStatus `json:"status"`
}

// Success creates a successful Outcome carrying v.
func Success(v any) Outcome {
	return Outcome{Status: OutcomeSuccess, Value: v}
}

// Failure creates an error Outcome from the given detail.
func Failure(err *ErrorDetail) Outcome {
	return Outcome{Status: OutcomeError, Error: err}
}

// NotImplemented creates the soft outcome returned for unknown methods.
func NotImplemented() Outcome {
	return Outcome{Status: OutcomeNotImplemented}
}

// IsSuccess returns true if the outcome carries a value.
func (o Outcome) IsSuccess() bool {
	return o.Status == OutcomeSuccess
}

// IsError returns true if the outcome is a failure.
func (o Outcome) IsError() bool {
	return o.Status == OutcomeError
}

// IsNotImplemented returns true if the method was unknown.
func (o Outcome) IsNotImplemented() bool {
	return o.Status == OutcomeNotImplemented
}

// ErrorType returns the failure type, or "" for non-error outcomes.
func (o Outcome) ErrorType() string {
	if o.Error == nil {
		return ""
	}
	return o.Error.Type
}
