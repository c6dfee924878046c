package validation

import "github.com/go-playground/validator/v10"

const (
	nameRequired            = "Name is required and must be a non-empty string"
	nameBlank               = "Name must be a non-empty string"
	nameTooLong             = "Name must be less than 100 characters"
	emailRequired           = "Email is required and must be a string"
	emailNotString          = "Email must be a string"
	emailInvalid            = "Email must be a valid email address"
	emailTooLong            = "Email must be less than 100 characters"
	ageNotInteger           = "Age must be an integer"
	ageOutOfRange           = "Age must be between 0 and 150"
	phoneNotString          = "Phone must be a string"
	imagePathNotString      = "Image path must be a string"
	passwordRequired        = "Password is required and must be a string"
	passwordWeak            = "Password must be at least 8 characters with uppercase, lowercase, and number"
	confirmPasswordRequired = "Password confirmation is required"
	passwordsMismatch       = "Passwords do not match"
	resetTokenRequired      = "Reset token is required and must be a string"
	currentPasswordRequired = "Current password is required and must be a string"
	newPasswordRequired     = "New password is required and must be a string"
	slugRequired            = "Slug is required and must be a string"
	titleRequired           = "Title is required and must be a non-empty string"
	titleBlank              = "Title must be a non-empty string"
	contentRequired         = "Content is required and must be a string"
	contentNotString        = "Content must be a string"
	descriptionNotString    = "Description must be a string"
	isPublicNotBool         = "is_public must be a boolean"
)

// messages maps "<json field>.<tag>" to the client-facing message
var messages = map[string]string{
	"name.notblank":               nameRequired,
	"name.max":                    nameTooLong,
	"email.required":              emailRequired,
	"email.email":                 emailInvalid,
	"email.max":                   emailTooLong,
	"age.min":                     ageOutOfRange,
	"age.max":                     ageOutOfRange,
	"phone.max":                   "Phone must be less than 20 characters",
	"image_path.max":              "Image path must be less than 255 characters",
	"password.required":           passwordRequired,
	"password.strongpassword":     passwordWeak,
	"confirmPassword.required":    confirmPasswordRequired,
	"confirmPassword.eqfield":     passwordsMismatch,
	"token.required":              resetTokenRequired,
	"currentPassword.required":    currentPasswordRequired,
	"newPassword.required":        newPasswordRequired,
	"newPassword.strongpassword":  passwordWeak,
	"newPassword.nefield":         "New password must be different from current password",
	"slug.required":               slugRequired,
	"slug.max":                    "Slug must be less than 100 characters",
	"slug.slug":                   "Slug can only contain lowercase letters, numbers, and single hyphens",
	"title.notblank":              titleRequired,
	"title.max":                   "Title must be less than 200 characters",
	"description.max":             "Description must be less than 500 characters",

	// partial updates name the field without "required"
	"UpdateUserRequest.name.notblank":  nameBlank,
	"UpdatePageRequest.title.notblank": titleBlank,
}

// messageFor prefers a struct-specific message over the per-field one
func messageFor(fe validator.FieldError) string {
	if msg, ok := messages[fe.Namespace()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return fe.Field() + " is invalid"
}
