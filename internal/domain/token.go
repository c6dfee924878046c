package domain

import "time"

// Access tokens carry no type claim
const (
	TokenTypeRefresh = "refresh"
	TokenTypeReset   = "reset"
)

// TokenClaims represents JWT token claims
type TokenClaims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email,omitempty"`
	Type   string `json:"type,omitempty"`
	JTI    string `json:"jti"`
	Exp    int64  `json:"exp"`
	Iat    int64  `json:"iat"`
}

// ExpiresAt returns the expiry as a time
func (tc TokenClaims) ExpiresAt() time.Time {
	return time.Unix(tc.Exp, 0)
}
