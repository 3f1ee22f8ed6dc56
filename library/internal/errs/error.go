package errs

import (
	"errors"
	"fmt"
)

// Kinds. Every error returned by the service matches exactly one of them
// with errors.Is.
var (
	ErrValidation  = errors.New("validation failed")
	ErrForbidden   = errors.New("current logged user doesn't have the privilege to execute this function")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrPersistence = errors.New("error happened while dealing with the database")
)

var (
	ErrNoSession         = fmt.Errorf("%w: no logged user", ErrForbidden)
	ErrMemberNotFound    = fmt.Errorf("member %w", ErrNotFound)
	ErrBookNotFound      = fmt.Errorf("book %w", ErrNotFound)
	ErrNoAvailableCopies = fmt.Errorf("%w: there is no available copies", ErrConflict)
	ErrDuplicateISBN     = fmt.Errorf("%w: book with this isbn already exists", ErrConflict)
)

func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// IsDomain reports whether err belongs to a kind the caller is expected to
// handle, as opposed to an infrastructure failure.
func IsDomain(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrPersistence)
}
