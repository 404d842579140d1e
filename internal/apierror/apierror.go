// Package apierror defines the cellar service errors and the JSON bodies they
// turn into. Handlers never build error bodies by hand: they call HTTPStatus
// and Envelope so storage failures are reported without their cause.
package apierror

// APIError is the body of every 4xx/5xx response:
//
//	{"detail": "container ... holds 100 L, cannot transfer 150 L", "code": "insufficient_volume"}
//
// Code is set for conflicts only.
type APIError struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// New builds a body that carries no code, for transport-level rejections
// (auth, malformed JSON, rate limiting).
func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError is the 422 body listing each rejected field by its JSON name.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// Envelope builds the client-facing body for a service error. Unclassified
// and storage errors collapse into one generic message.
func Envelope(err error) *APIError {
	e, ok := As(err)
	if !ok || e.Kind == KindStorage {
		return New("internal server error")
	}
	return &APIError{Detail: e.Message, Code: e.Code}
}
