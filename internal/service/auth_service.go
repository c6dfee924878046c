package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prperemyshlev/pages-service/internal/domain"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/prperemyshlev/pages-service/internal/repository"
	"github.com/prperemyshlev/pages-service/internal/utils"
	"github.com/prperemyshlev/pages-service/internal/validation"
	"github.com/prperemyshlev/pages-service/pkg/observability"
	"go.uber.org/zap"
)

// resetEmailTimeout bounds a reset email sent after the response has gone out
const resetEmailTimeout = 30 * time.Second

// authService implements AuthService interface
type authService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.TokenRepository
	jwtManager *utils.JWTManager
	blacklist  TokenBlacklist
	notifier   NotificationSender
	bcryptCost int
	logger     *zap.Logger
	metrics    *observability.Metrics

	// compared against when the account is unknown so that both paths cost one bcrypt run
	dummyHash string
	now       func() time.Time

	// reset emails in flight
	sending sync.WaitGroup
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	jwtManager *utils.JWTManager,
	blacklist TokenBlacklist,
	notifier NotificationSender,
	bcryptCost int,
	logger *zap.Logger,
	metrics *observability.Metrics,
) (AuthService, error) {
	dummyHash, err := utils.HashPassword("not-a-real-password", bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &authService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtManager: jwtManager,
		blacklist:  blacklist,
		notifier:   notifier,
		bcryptCost: bcryptCost,
		logger:     logger,
		metrics:    metrics,
		dummyHash:  dummyHash,
		now:        time.Now,
	}, nil
}

// Register creates a password account and signs the user in
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*AuthResult, error) {
	email := validation.SanitizeEmail(req.Email)

	// Fast path only: the unique constraint on users.email decides races
	exists, err := s.userRepo.EmailExists(ctx, email, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("user with email %s already exists: %w", email, repository.ErrDuplicateEmail)
	}

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Age:          req.Age,
		Phone:        req.Phone,
		PasswordHash: &passwordHash,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))

	return s.generateAuthResult(ctx, user)
}

// Login authenticates a user by email and password
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, validation.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.CheckPasswordHash(req.Password, s.dummyHash)
			s.metrics.LoginAttempt(ctx, "failure")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		utils.CheckPasswordHash(req.Password, s.dummyHash)
		s.metrics.LoginAttempt(ctx, "failure")
		return nil, ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(req.Password, *user.PasswordHash) {
		s.metrics.LoginAttempt(ctx, "failure")
		return nil, ErrInvalidCredentials
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		// Log error but don't fail the login
		s.logger.Warn("failed to update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	} else {
		now := s.now()
		user.LastLogin = &now
	}

	s.metrics.LoginAttempt(ctx, "success")

	return s.generateAuthResult(ctx, user)
}

// RefreshToken exchanges a stored refresh token for a new pair.
// The presented token is consumed; replaying it fails.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRefreshToken, err)
	}

	tokenHash := utils.HashToken(refreshToken)

	stored, err := s.tokenRepo.GetValid(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if stored.UserID != claims.UserID {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	result, next, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.Rotate(ctx, user.ID, tokenHash, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return result, nil
}

// Logout revokes one refresh token of the user and the access token in use
func (s *authService) Logout(ctx context.Context, userID int64, refreshToken, accessToken string) error {
	if refreshToken != "" {
		err := s.tokenRepo.DeleteForUser(ctx, userID, utils.HashToken(refreshToken))
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to delete refresh token: %w", err)
		}
	}

	if accessToken != "" {
		s.revokeAccessToken(ctx, accessToken)
	}

	return nil
}

func (s *authService) revokeAccessToken(ctx context.Context, accessToken string) {
	claims, err := s.jwtManager.ValidateToken(accessToken)
	if err != nil {
		return
	}

	ttl := claims.ExpiresAt().Sub(s.now())
	if ttl <= 0 {
		return
	}

	if err := s.blacklist.Add(ctx, accessToken, ttl); err != nil {
		s.logger.Warn("failed to blacklist access token", zap.Int64("user_id", claims.UserID), zap.Error(err))
	}
}

// LogoutAll revokes every refresh token of the user
func (s *authService) LogoutAll(ctx context.Context, userID int64) error {
	deleted, err := s.tokenRepo.DeleteAllForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	s.logger.Debug("sessions revoked", zap.Int64("user_id", userID), zap.Int64("count", deleted))
	return nil
}

// RequestPasswordReset mints a reset token for a known email and hands it to the notifier.
// Unknown emails succeed silently.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	s.metrics.PasswordResetRequested(ctx)

	user, err := s.userRepo.GetByEmail(ctx, validation.SanitizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := s.jwtManager.GenerateResetToken(user.ID)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	expiresAt := s.now().Add(s.jwtManager.ResetTokenExpiry())
	if err := s.userRepo.SetResetToken(ctx, user.ID, utils.HashToken(token), expiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	// delivery time must not tell known and unknown emails apart
	s.sending.Add(1)
	go func() {
		defer s.sending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resetEmailTimeout)
		defer cancel()

		if err := s.notifier.SendPasswordReset(ctx, user.Email, token); err != nil {
			s.logger.Error("failed to send password reset", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}()

	return nil
}

// ResetPassword sets a new password using a reset token and ends all sessions
func (s *authService) ResetPassword(ctx context.Context, token, password string) error {
	claims, err := s.jwtManager.ValidateResetToken(token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResetToken, err)
	}

	user, err := s.userRepo.GetByResetToken(ctx, claims.UserID, utils.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.setPassword(ctx, user.ID, password); err != nil {
		return err
	}

	s.logger.Info("password reset", zap.Int64("user_id", user.ID))
	return nil
}

// ChangePassword replaces the password of a signed-in user and ends all sessions
func (s *authService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return ErrPasswordNotSet
	}

	if !utils.CheckPasswordHash(currentPassword, *user.PasswordHash) {
		return ErrIncorrectPassword
	}

	return s.setPassword(ctx, user.ID, newPassword)
}

func (s *authService) setPassword(ctx context.Context, userID int64, password string) error {
	passwordHash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return s.LogoutAll(ctx, userID)
}

// GetUser gets user information
func (s *authService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ValidateToken validates an access token and rejects revoked ones
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	revoked, err := s.blacklist.Contains(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
