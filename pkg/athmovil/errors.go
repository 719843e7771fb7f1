package athmovil

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies an *Error.
type ErrorKind string

const (
	KindAuthentication ErrorKind = "authentication"
	KindValidation     ErrorKind = "validation"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindTransaction    ErrorKind = "transaction"
	KindTimeout        ErrorKind = "timeout"
	KindRateLimited    ErrorKind = "rate_limited"
	KindNetwork        ErrorKind = "network"
	KindInternal       ErrorKind = "internal"
	KindUnknown        ErrorKind = "unknown"
)

// Kind sentinels. errors.Is(err, ErrValidation) reports whether err is an *Error of
// that kind.
var (
	ErrAuthentication = errors.New("athmovil: authentication error")
	ErrValidation     = errors.New("athmovil: validation error")
	ErrInvalidRequest = errors.New("athmovil: invalid request")
	ErrTransaction    = errors.New("athmovil: transaction error")
	ErrTimeout        = errors.New("athmovil: timeout")
	ErrRateLimited    = errors.New("athmovil: rate limited")
	ErrNetwork        = errors.New("athmovil: network error")
	ErrInternal       = errors.New("athmovil: internal server error")
	ErrUnknown        = errors.New("athmovil: api error")
)

// Detail sentinels, reachable through Unwrap.
var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidPhoneNumber   = errors.New("invalid phone number")
	ErrTotalMismatch        = errors.New("total mismatch")
	ErrMalformedResponse    = errors.New("malformed response")
	ErrNoAuthToken          = errors.New("no auth token available")
	ErrPrivateTokenRequired = errors.New("private token required")
	ErrPaymentCancelled     = errors.New("payment cancelled")
)

var kindSentinels = map[ErrorKind]error{
	KindAuthentication: ErrAuthentication,
	KindValidation:     ErrValidation,
	KindInvalidRequest: ErrInvalidRequest,
	KindTransaction:    ErrTransaction,
	KindTimeout:        ErrTimeout,
	KindRateLimited:    ErrRateLimited,
	KindNetwork:        ErrNetwork,
	KindInternal:       ErrInternal,
	KindUnknown:        ErrUnknown,
}

// FieldError describes a single invalid field, named by its wire path.
type FieldError struct {
	Field   string
	Message string
	Value   any
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

// Error is returned for every expected failure: local validation, classified API
// error bodies and exhausted transport retries. Errors of any other type indicate a
// bug or an environment problem.
type Error struct {
	Kind       ErrorKind
	Message    string
	Code       string
	StatusCode int
	Body       map[string]any

	// Fields is set for validation errors detected locally.
	Fields []FieldError
	// EcommerceID is set when the error concerns a specific payment.
	EcommerceID string

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "athmovil %s error: %s", e.Kind, e.Message)

	var details []string
	if e.Code != "" {
		details = append(details, "code="+e.Code)
	}
	if e.StatusCode != 0 {
		details = append(details, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if len(details) > 0 {
		b.WriteString(" (" + strings.Join(details, ", ") + ")")
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

// Field returns the message recorded for a field, if any.
func (e *Error) Field(name string) (string, bool) {
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Message, true
		}
	}
	return "", false
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}
