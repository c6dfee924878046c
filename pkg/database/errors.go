package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// SQLSTATE codes the application reacts to
const (
	CodeUniqueViolation           = "23505"
	CodeNotNullViolation          = "23502"
	CodeForeignKeyViolation       = "23503"
	CodeInvalidTextRepresentation = "22P02"
)

var (
	ErrUniqueViolation           = errors.New("unique violation")
	ErrNotNullViolation          = errors.New("not null violation")
	ErrForeignKeyViolation       = errors.New("foreign key violation")
	ErrInvalidTextRepresentation = errors.New("invalid text representation")
)

// Error is a storage failure carrying the vendor error code
type Error struct {
	Code       string
	Message    string
	Detail     string
	Constraint string
	Err        error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("database error %s: %s (%s)", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("database error %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the code-level sentinels
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUniqueViolation:
		return e.Code == CodeUniqueViolation
	case ErrNotNullViolation:
		return e.Code == CodeNotNullViolation
	case ErrForeignKeyViolation:
		return e.Code == CodeForeignKeyViolation
	case ErrInvalidTextRepresentation:
		return e.Code == CodeInvalidTextRepresentation
	}
	return false
}

// WrapError converts a *pq.Error into *Error and passes everything else through
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var dbErr *Error
	if errors.As(err, &dbErr) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &Error{
			Code:       string(pqErr.Code),
			Message:    pqErr.Message,
			Detail:     pqErr.Detail,
			Constraint: pqErr.Constraint,
			Err:        err,
		}
	}

	return err
}
