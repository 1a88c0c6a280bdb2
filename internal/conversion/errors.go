package conversion

import (
	"fmt"
)

// SerializationError reports a report object that cannot be written as TAC:
// an unsupported unit, a missing companion field, or a value outside what
// the token format can carry. It aborts only the call that raised it.
type SerializationError struct {
	Token  string // identity name of the token being built
	Field  string
	Reason string
	Err    error
}

func (e *SerializationError) Error() string {
	msg := "cannot serialize " + e.Token
	if e.Field != "" {
		msg += " " + e.Field
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Serializationf builds a SerializationError with a formatted reason.
func Serializationf(token, field, format string, args ...any) *SerializationError {
	return &SerializationError{Token: token, Field: field, Reason: fmt.Sprintf(format, args...)}
}
