package manager

import "fmt"

// Error codes for initialization failures. Initialization is the only place
// a fatal error can occur: once a manager exists, every per-file failure is
// reported through its Descriptor instead of an error.
const (
	ErrCodeOptions = "INVALID_OPTIONS"
	ErrCodeSchema  = "SCHEMA_UNRESOLVED"
	ErrCodeState   = "STATE_INVALID"
)

// InitError is a fatal initialization error with a programmatic code.
type InitError struct {
	// Code identifies the failure class.
	Code string

	// Message is the human-readable error message.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *InitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *InitError) Unwrap() error {
	return e.Err
}

// Is implements error equality for errors.Is.
func (e *InitError) Is(target error) bool {
	t, ok := target.(*InitError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newInitError(code, message string, err error) *InitError {
	return &InitError{Code: code, Message: message, Err: err}
}
