package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a service error. It decides the HTTP status and whether the
// message may be shown to the caller.
type Kind int

const (
	KindStorage Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "storage"
	}
}

// Machine-readable codes attached to conflicts.
const (
	CodeInsufficientVolume   = "insufficient_volume"
	CodeCapacityExceeded     = "capacity_exceeded"
	CodeContainerLotMismatch = "container_lot_mismatch"
	CodeContainerOccupied    = "container_occupied"
	CodeContainerUnavailable = "container_unavailable"
	CodeDrainMismatch        = "drain_mismatch"
	CodeDuplicateSKU         = "duplicate_sku"
	CodeInvalidState         = "invalid_state"
	CodeIdempotencyMismatch  = "idempotency_mismatch"
	CodeOperationInProgress  = "operation_in_progress"
	CodeNothingToPrepare     = "nothing_to_prepare"
)

// Error is the error type returned by services. Message is safe to show to
// clients for every kind except KindStorage.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(code, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a persistence failure. The wrapped error is logged, never shown.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Message: "storage failure", Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == k
}

// HTTPStatus maps err to a response status. Unclassified errors are treated as
// storage failures.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
