package domain

import "time"

// User represents a user in the system
type User struct {
	ID                int64      `json:"id" db:"id"`
	Name              string     `json:"name" db:"name"`
	Email             string     `json:"email" db:"email"`
	Age               *int       `json:"age" db:"age"`
	Phone             *string    `json:"phone" db:"phone"`
	ImagePath         *string    `json:"image_path" db:"image_path"`
	PasswordHash      *string    `json:"-" db:"password_hash"`
	EmailVerified     bool       `json:"email_verified" db:"email_verified"`
	ResetToken        *string    `json:"-" db:"reset_token"`
	ResetTokenExpires *time.Time `json:"-" db:"reset_token_expires"`
	LastLogin         *time.Time `json:"last_login" db:"last_login"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}

// HasPassword reports whether the account can log in with a password
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// RefreshToken is a persisted refresh token. Token holds the SHA-256 hex of the signed JWT.
type RefreshToken struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Token     string    `json:"-" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
