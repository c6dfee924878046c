package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prperemyshlev/pages-service/internal/domain"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidTokenType = errors.New("invalid token type")
)

// JWTManager manages JWT token operations
type JWTManager struct {
	secret             []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	resetTokenExpiry   time.Duration
	now                func() time.Time
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, accessTokenExpiry, refreshTokenExpiry, resetTokenExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:             []byte(secret),
		accessTokenExpiry:  accessTokenExpiry,
		refreshTokenExpiry: refreshTokenExpiry,
		resetTokenExpiry:   resetTokenExpiry,
		now:                time.Now,
	}
}

// GenerateAccessToken generates a new access token
func (j *JWTManager) GenerateAccessToken(userID int64, email string) (string, error) {
	now := j.now()
	claims := jwt.MapClaims{
		"userId": userID,
		"email":  email,
		"jti":    uuid.NewString(),
		"iat":    now.Unix(),
		"exp":    now.Add(j.accessTokenExpiry).Unix(),
	}
	return j.sign(claims, "token")
}

// GenerateRefreshToken generates a new refresh token
func (j *JWTManager) GenerateRefreshToken(userID int64) (string, error) {
	return j.generateTyped(userID, domain.TokenTypeRefresh, j.refreshTokenExpiry)
}

// GenerateResetToken generates a single-purpose password reset token
func (j *JWTManager) GenerateResetToken(userID int64) (string, error) {
	return j.generateTyped(userID, domain.TokenTypeReset, j.resetTokenExpiry)
}

func (j *JWTManager) generateTyped(userID int64, tokenType string, ttl time.Duration) (string, error) {
	now := j.now()
	claims := jwt.MapClaims{
		"userId": userID,
		"type":   tokenType,
		"jti":    uuid.NewString(),
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}
	return j.sign(claims, tokenType+" token")
}

func (j *JWTManager) sign(claims jwt.MapClaims, what string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s: %w", what, err)
	}
	return tokenString, nil
}

// ValidateToken validates an access token and returns its claims
func (j *JWTManager) ValidateToken(tokenString string) (*domain.TokenClaims, error) {
	claims, err := j.parse(tokenString)
	if err != nil {
		return nil, err
	}

	// refresh and reset tokens are not accepted as access tokens
	if claims.Type != "" {
		return nil, ErrInvalidTokenType
	}

	if claims.Email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrInvalidToken)
	}

	return claims, nil
}

// ValidateRefreshToken validates a refresh token and returns its claims
func (j *JWTManager) ValidateRefreshToken(tokenString string) (*domain.TokenClaims, error) {
	return j.validateTyped(tokenString, domain.TokenTypeRefresh)
}

// ValidateResetToken validates a password reset token and returns its claims
func (j *JWTManager) ValidateResetToken(tokenString string) (*domain.TokenClaims, error) {
	return j.validateTyped(tokenString, domain.TokenTypeReset)
}

func (j *JWTManager) validateTyped(tokenString, tokenType string) (*domain.TokenClaims, error) {
	claims, err := j.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.Type != tokenType {
		return nil, ErrInvalidTokenType
	}

	return claims, nil
}

func (j *JWTManager) parse(tokenString string) (*domain.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(j.now))

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid token claims", ErrInvalidToken)
	}

	userID, ok := mc["userId"].(float64)
	if !ok || userID <= 0 {
		return nil, fmt.Errorf("%w: invalid userId in token", ErrInvalidToken)
	}

	exp, ok := mc["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: invalid exp in token", ErrInvalidToken)
	}

	iat, _ := mc["iat"].(float64)
	email, _ := mc["email"].(string)
	tokenType, _ := mc["type"].(string)
	jti, _ := mc["jti"].(string)

	return &domain.TokenClaims{
		UserID: int64(userID),
		Email:  email,
		Type:   tokenType,
		JTI:    jti,
		Exp:    int64(exp),
		Iat:    int64(iat),
	}, nil
}

// GetAccessTokenExpiry returns the access token expiry duration in seconds
func (j *JWTManager) GetAccessTokenExpiry() int {
	return int(j.accessTokenExpiry.Seconds())
}

// RefreshTokenExpiry returns how long refresh tokens live
func (j *JWTManager) RefreshTokenExpiry() time.Duration {
	return j.refreshTokenExpiry
}

// ResetTokenExpiry returns how long reset tokens live
func (j *JWTManager) ResetTokenExpiry() time.Duration {
	return j.resetTokenExpiry
}
