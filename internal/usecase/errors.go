package usecase

import "errors"

const (
	CodeInvalidShape    = "INVALID_SHAPE"
	CodeInvalidEmail    = "INVALID_EMAIL"
	CodeInvalidPhone    = "INVALID_PHONE"
	CodeFieldTooLong    = "FIELD_TOO_LONG"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"

	CodeSinkUnconfigured = "SINK_UNCONFIGURED"
	CodeSinkTimeout      = "SINK_TIMEOUT"
	CodeSinkError        = "SINK_ERROR"
	CodeSinkUnreachable  = "SINK_UNREACHABLE"
)

// DomainError is a client-input problem. Message is safe to show to the
// visitor.
type DomainError struct {
	Code    string
	Field   string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError is an operator-facing failure. Err carries the diagnostic
// and must only be logged.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// ErrorCode returns the code of a DomainError or TechnicalError, or "".
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
