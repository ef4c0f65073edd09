package llm

import (
	"errors"
	"fmt"
)

// ErrInvalidModelID is returned when a model id cannot be mapped onto an endpoint.
var ErrInvalidModelID = errors.New("invalid model identifier")

// MissingCredentialError means no API key could be resolved for a provider.
type MissingCredentialError struct {
	Provider string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing API key configuration for %s provider", e.Provider)
}

// IsMissingCredential reports whether err (or anything it wraps) is a MissingCredentialError.
func IsMissingCredential(err error) bool {
	var target *MissingCredentialError
	return errors.As(err, &target)
}
