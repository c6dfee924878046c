package dto

import (
	"time"

	"github.com/prperemyshlev/pages-service/internal/domain"
	"github.com/prperemyshlev/pages-service/internal/validation"
)

// Envelope is the body of every API response
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ValidationErrors is the data payload of a failed validation
type ValidationErrors struct {
	ValidationErrors []validation.FieldError `json:"validationErrors"`
}

func Success(data any, message string) Envelope {
	return Envelope{Success: true, Data: data, Message: message}
}

func Failure(message string) Envelope {
	return Envelope{Success: false, Error: message}
}

func ValidationFailure(errs []validation.FieldError) Envelope {
	return Envelope{
		Success: false,
		Error:   "Validation failed",
		Data:    ValidationErrors{ValidationErrors: errs},
	}
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Age           *int       `json:"age"`
	Phone         *string    `json:"phone"`
	ImagePath     *string    `json:"image_path"`
	EmailVerified bool       `json:"email_verified"`
	LastLogin     *time.Time `json:"last_login"`
	CreatedAt     time.Time  `json:"created_at"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Age:           u.Age,
		Phone:         u.Phone,
		ImagePath:     u.ImagePath,
		EmailVerified: u.EmailVerified,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
	}
}

func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// AuthResponse represents an authentication response
type AuthResponse struct {
	User         UserResponse `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
}

// UsersList is returned by user listing and search
type UsersList struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

// Pagination describes a page-numbered listing
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

type PagesList struct {
	Pages      []domain.PageWithOwner `json:"pages"`
	Pagination Pagination             `json:"pagination"`
}

// UploadResponse is returned after a successful image upload
type UploadResponse struct {
	ImagePath string `json:"image_path"`
}

// MigrationResult is returned by the migrate endpoint
type MigrationResult struct {
	Executed []string `json:"executed"`
	Pending  *int     `json:"pending,omitempty"`
	Total    *int     `json:"total,omitempty"`
}
