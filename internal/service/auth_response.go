package service

import (
	"context"
	"fmt"

	"github.com/prperemyshlev/pages-service/internal/domain"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/prperemyshlev/pages-service/internal/utils"
)

// AuthResult is the outcome of register, login and refresh
type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

// Response converts the result into the API payload
func (r *AuthResult) Response() dto.AuthResponse {
	return dto.AuthResponse{
		User:         dto.NewUserResponse(r.User),
		Token:        r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
}

// issueTokens signs a new access/refresh pair. The refresh token is not stored.
func (s *authService) issueTokens(user *domain.User) (*AuthResult, *domain.RefreshToken, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	stored := &domain.RefreshToken{
		UserID:    user.ID,
		Token:     utils.HashToken(refreshToken),
		ExpiresAt: s.now().Add(s.jwtManager.RefreshTokenExpiry()),
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, stored, nil
}

// generateAuthResult issues a token pair and persists the refresh token hash
func (s *authService) generateAuthResult(ctx context.Context, user *domain.User) (*AuthResult, error) {
	result, stored, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.Create(ctx, stored); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return result, nil
}
