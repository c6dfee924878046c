package service

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrInvalidToken        = errors.New("invalid or revoked access token")
	ErrIncorrectPassword   = errors.New("current password is incorrect")
	ErrPasswordNotSet      = errors.New("no password set for this account")

	// ErrForbidden is returned when the caller is authenticated but does not own the resource
	ErrForbidden = errors.New("forbidden")
)
