package store

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when a required address or message is
// missing, or a message cannot be stored as given. It is raised before any
// storage access.
var ErrInvalidArgument = errors.New("invalid argument")

// invalidArgument wraps ErrInvalidArgument with a description.
func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// MalformedRecordError reports an archive row that could not be decoded.
// A read that meets one fails as a whole; the row is never skipped.
type MalformedRecordError struct {
	// ID is the archive row id.
	ID int64

	// Stamp is the raw storage timestamp column.
	Stamp string

	// Raw is the stored payload.
	Raw string

	// Err is the decoding failure.
	Err error
}

// Error implements the error interface.
func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed archive record %d (stamp %s): %v: %q", e.ID, e.Stamp, e.Err, e.Raw)
}

// Unwrap returns the decoding failure.
func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// IsMalformedRecord returns true if err is or wraps a MalformedRecordError.
func IsMalformedRecord(err error) bool {
	var me *MalformedRecordError
	return errors.As(err, &me)
}
