package dto

// Request bodies are type-checked as untyped JSON first, then decoded into
// these structs and checked against their validate tags. Pointer fields
// distinguish "absent" from "zero".

// CreateUserRequest represents a user creation request
type CreateUserRequest struct {
	Name      string  `json:"name" validate:"notblank,max=100"`
	Email     string  `json:"email" validate:"required,email,max=100"`
	Age       *int    `json:"age" validate:"omitnil,min=0,max=150"`
	Phone     *string `json:"phone" validate:"omitnil,max=20"`
	ImagePath *string `json:"image_path" validate:"omitnil,max=255"`
}

// UpdateUserRequest represents a partial user update
type UpdateUserRequest struct {
	Name      *string `json:"name" validate:"omitnil,notblank,max=100"`
	Email     *string `json:"email" validate:"omitnil,email,max=100"`
	Age       *int    `json:"age" validate:"omitnil,min=0,max=150"`
	Phone     *string `json:"phone" validate:"omitnil,max=20"`
	ImagePath *string `json:"image_path" validate:"omitnil,max=255"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Name            string  `json:"name" validate:"notblank,max=100"`
	Email           string  `json:"email" validate:"required,email,max=100"`
	Password        string  `json:"password" validate:"required,strongpassword"`
	ConfirmPassword string  `json:"confirmPassword" validate:"required,eqfield=Password"`
	Age             *int    `json:"age" validate:"omitnil,min=0,max=150"`
	Phone           *string `json:"phone" validate:"omitnil,max=20"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest carries the refresh token for refresh and logout
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,strongpassword,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// CreatePageRequest represents a page creation request
type CreatePageRequest struct {
	Slug        string  `json:"slug" validate:"required,max=100,slug"`
	Title       string  `json:"title" validate:"notblank,max=200"`
	Content     string  `json:"content"`
	Description *string `json:"description" validate:"omitnil,max=500"`
	IsPublic    *bool   `json:"is_public"`
}

// UpdatePageRequest represents a partial page update
type UpdatePageRequest struct {
	Title       *string `json:"title" validate:"omitnil,notblank,max=200"`
	Content     *string `json:"content"`
	Description *string `json:"description" validate:"omitnil,max=500"`
	IsPublic    *bool   `json:"is_public"`
}
