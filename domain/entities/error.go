package entities

import "fmt"

// Error types carried by ErrorDetail.Type.
const (
	ErrorTypePermissionDenied  = "PermissionDenied"
	ErrorTypeNotImplemented    = "NotImplemented"
	ErrorTypeMediaAddFailed    = "MediaAddFailed"
	ErrorTypeHostCallFailed    = "HostCallFailed"
	ErrorTypeContractViolation = "ContractViolation"
)

// ErrorDetail provides structured error information.
// It is the failure half of an Outcome and the error format on every transport.
type ErrorDetail struct {
	// Details contains additional error context.
	Details map[string]any `json:"details,omitempty"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Type categorizes the error (one of the ErrorType constants).
	Type string `json:"type"`

	// Code is a machine-readable code, usually the method or argument involved.
	Code string `json:"code,omitempty"`
}

// Error implements the error interface.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Type != "" {
		msg = fmt.Sprintf("%s: %s", e.Type, msg)
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Code)
	}
	return msg
}

// NewErrorDetail creates a new ErrorDetail with the given type and message.
func NewErrorDetail(errorType, message string) *ErrorDetail {
	return &ErrorDetail{
		Type:    errorType,
		Message: message,
	}
}

// WithDetails attaches details and returns the same ErrorDetail.
func (e *ErrorDetail) WithDetails(details map[string]any) *ErrorDetail {
	e.Details = details
	return e
}

// WithCode attaches a code and returns the same ErrorDetail.
func (e *ErrorDetail) WithCode(code string) *ErrorDetail {
	e.Code = code
	return e
}
