package checkout

import (
	"errors"
	"fmt"

	"food-storefront/backend"
)

// ValidationError is a checkout problem detected before anything is sent to
// the backend. Message is meant for the customer.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func remoteMessage(err error, fallback string) string {
	var rejected *backend.RejectedError
	if errors.As(err, &rejected) {
		return rejected.Reason(fallback)
	}
	return fallback
}
