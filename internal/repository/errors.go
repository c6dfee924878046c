package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when trying to create a user with an existing email
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateSlug is returned when a page slug is already taken
	ErrDuplicateSlug = errors.New("page with this slug already exists")

	// ErrDuplicateToken is returned when trying to store a token with an existing hash
	ErrDuplicateToken = errors.New("token with this hash already exists")

	// ErrNothingToUpdate is returned by partial updates with no fields set
	ErrNothingToUpdate = errors.New("no fields to update")

	ErrInvalidOrderColumn    = errors.New("invalid order column")
	ErrInvalidOrderDirection = errors.New("invalid order direction")
)
