package service

import "errors"

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned on duplicate membership or uniqueness conflicts.
	ErrAlreadyExists = errors.New("already exists")
	// ErrForbidden is returned when a non-author attempts a mutation.
	ErrForbidden = errors.New("forbidden")
	// ErrSelfSubscription is returned when a user subscribes to themselves.
	ErrSelfSubscription = errors.New("cannot subscribe to yourself")
	// ErrNotInList is returned when removing a membership pair that is absent.
	ErrNotInList = errors.New("not in list")
	// ErrInvalidCredentials is returned on failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError describes semantically invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
