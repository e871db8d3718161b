package book

import (
	"errors"
	"strings"
)

var (
	ErrNotFound      = errors.New("book not found")
	ErrDuplicateISBN = errors.New("isbn already exists")
)

// ValidationError lists every problem found in a book payload
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// IsValidation reports whether err means the payload cannot be stored as sent
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) || errors.Is(err, ErrDuplicateISBN)
}
