// Package verdict defines the error taxonomy shared by the rule evaluators:
// denials are expected user-facing outcomes, conflicts mean a transition lost
// a race against the current row state, and config errors are defects that
// must surface loudly instead of silently granting access.
package verdict

import (
	"errors"
	"fmt"
)

// ErrConflict is returned when a conditional state transition matched zero
// rows: the request was already resolved by a concurrent or earlier call.
var ErrConflict = errors.New("request already resolved")

// ErrConfig marks missing or malformed rule configuration (unknown plan,
// unknown feature key, section weights that do not sum to 100). Callers map
// it to an internal error, never to a denial.
var ErrConfig = errors.New("configuration error")

// DenialError is an expected "not allowed" outcome carrying the message shown
// to the user. It is an error so transition guards can abort with it, but it
// is not exceptional.
type DenialError struct {
	Message string
}

func (e *DenialError) Error() string {
	return e.Message
}

// Deny builds a denial with a formatted user-facing message.
func Deny(format string, args ...interface{}) error {
	return &DenialError{Message: fmt.Sprintf(format, args...)}
}

// AsDenial extracts the denial message when err is a DenialError.
func AsDenial(err error) (string, bool) {
	var d *DenialError
	if errors.As(err, &d) {
		return d.Message, true
	}
	return "", false
}

// ConfigErr wraps a defect description so errors.Is(err, ErrConfig) holds.
func ConfigErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}
