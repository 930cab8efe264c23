package backend

import (
	"errors"
	"fmt"
)

// ErrUnreachable marks transport failures: no response, or a response that is
// not a backend envelope.
var ErrUnreachable = errors.New("unable to reach server")

// RejectedError is an application-level failure: the backend answered with
// success=false.
type RejectedError struct {
	Op      string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: rejected by server", e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Reason is the message meant for the customer, with a fallback when the
// backend did not send one.
func (e *RejectedError) Reason(fallback string) string {
	if e.Message == "" {
		return fallback
	}
	return e.Message
}

// IsRejected reports whether err carries a RejectedError.
func IsRejected(err error) bool {
	var rejected *RejectedError
	return errors.As(err, &rejected)
}
