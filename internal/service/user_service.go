package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/prperemyshlev/pages-service/internal/domain"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/prperemyshlev/pages-service/internal/repository"
	"github.com/prperemyshlev/pages-service/internal/validation"
)

// userService implements UserService interface
type userService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// Create inserts a user record without credentials
func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest) (*domain.User, error) {
	email := validation.SanitizeEmail(req.Email)

	exists, err := s.userRepo.EmailExists(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("user with email %s already exists: %w", email, repository.ErrDuplicateEmail)
	}

	user := &domain.User{
		Name:      strings.TrimSpace(req.Name),
		Email:     email,
		Age:       req.Age,
		Phone:     req.Phone,
		ImagePath: req.ImagePath,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *userService) List(ctx context.Context, opts repository.ListOptions) ([]domain.User, int, error) {
	return s.userRepo.List(ctx, opts)
}

func (s *userService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Update applies the fields present in req. The email pre-check ignores the user itself.
func (s *userService) Update(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*domain.User, error) {
	update := repository.UserUpdate{
		Age:       req.Age,
		Phone:     req.Phone,
		ImagePath: req.ImagePath,
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		update.Name = &name
	}

	if req.Email != nil {
		email := validation.SanitizeEmail(*req.Email)

		exists, err := s.userRepo.EmailExists(ctx, email, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("user with email %s already exists: %w", email, repository.ErrDuplicateEmail)
		}
		update.Email = &email
	}

	return s.userRepo.Update(ctx, id, update)
}

func (s *userService) Delete(ctx context.Context, id int64) (*domain.User, error) {
	return s.userRepo.Delete(ctx, id)
}

func (s *userService) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	return s.userRepo.EmailExists(ctx, validation.SanitizeEmail(email), excludeID)
}

func (s *userService) Search(ctx context.Context, term string) ([]domain.User, error) {
	return s.userRepo.Search(ctx, strings.TrimSpace(term))
}
