package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSubmissionInProgress is returned when a form is submitted while the
// photo of a previous submission is still being encoded.
var ErrSubmissionInProgress = errors.New("catalog: a submission is already in progress")

// ErrPhotoRequired is the validation failure for a missing or empty photo.
var ErrPhotoRequired = errors.New("catalog: photo is required")

// ValidationError reports user input that cannot become a Product.
// The store is never mutated when one is returned.
type ValidationError struct {
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("catalog: validation failed: %v", e.Err)
	}
	return fmt.Sprintf("catalog: validation failed on %s: %v", strings.Join(e.Fields, ", "), e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StorageError reports a failure to read or write the persisted snapshot:
// quota exhaustion, serialization failure or an unreachable medium.
type StorageError struct {
	Op  string // "load" or "save"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("catalog: %s snapshot: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStorage reports whether err is (or wraps) a *StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
