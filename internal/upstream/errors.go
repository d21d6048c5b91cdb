package upstream

import (
	"errors"
	"fmt"
)

// UnavailableError represents a required upstream source that could not be
// retrieved. This allows callers to distinguish retrieval failures from
// malformed-input failures; both are fatal, but they are reported
// differently.
type UnavailableError struct {
	Repo string
	Err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("upstream '%s' unavailable: %v", e.Repo, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable returns true if the error is an UnavailableError, including
// when wrapped.
func IsUnavailable(err error) bool {
	var unavailable *UnavailableError
	return errors.As(err, &unavailable)
}
