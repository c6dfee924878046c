package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/prperemyshlev/pages-service/internal/repository"
	"github.com/prperemyshlev/pages-service/internal/service"
	"github.com/prperemyshlev/pages-service/internal/validation"
	"github.com/prperemyshlev/pages-service/pkg/database"
	"go.uber.org/zap"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

const (
	msgAuthRequired   = "Authentication required"
	msgUserNotFound   = "User not found"
	msgPageNotFound   = "Page not found"
	msgEmailExists    = "Email already exists"
	msgSlugExists     = "Slug already exists. Please choose a different slug."
	msgUnexpected     = "An unexpected error occurred"
	msgDatabaseFailed = "Database operation failed"
)

// errorMessages holds the route-specific wording for resource errors
type errorMessages struct {
	notFound  string
	forbidden string
}

// respondError maps service, repository and storage errors to an envelope
func respondError(c *gin.Context, logger *zap.Logger, err error, msgs errorMessages) {
	var dbErr *database.Error

	switch {
	case errors.Is(err, repository.ErrInvalidOrderColumn):
		c.JSON(http.StatusBadRequest, dto.ValidationFailure([]validation.FieldError{
			{Field: "orderBy", Message: "Invalid order column"},
		}))
	case errors.Is(err, repository.ErrInvalidOrderDirection):
		c.JSON(http.StatusBadRequest, dto.ValidationFailure([]validation.FieldError{
			{Field: "orderDirection", Message: "Order direction must be ASC or DESC"},
		}))
	case errors.Is(err, repository.ErrNothingToUpdate):
		c.JSON(http.StatusBadRequest, dto.Failure("No fields to update"))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.Failure("Invalid email or password"))
	case errors.Is(err, service.ErrInvalidRefreshToken):
		c.JSON(http.StatusUnauthorized, dto.Failure("Invalid or expired refresh token"))
	case errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, dto.Failure(msgAuthRequired))
	case errors.Is(err, service.ErrInvalidResetToken):
		c.JSON(http.StatusBadRequest, dto.Failure("Invalid or expired reset token"))
	case errors.Is(err, service.ErrIncorrectPassword):
		c.JSON(http.StatusBadRequest, dto.Failure("Current password is incorrect"))
	case errors.Is(err, service.ErrPasswordNotSet):
		c.JSON(http.StatusBadRequest, dto.Failure("No password set for this account"))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.Failure(orDefault(msgs.forbidden, "Forbidden")))
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.Failure(orDefault(msgs.notFound, "Resource not found")))
	case errors.Is(err, repository.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, dto.Failure(msgEmailExists))
	case errors.Is(err, repository.ErrDuplicateSlug):
		c.JSON(http.StatusConflict, dto.Failure(msgSlugExists))
	case errors.Is(err, database.ErrUniqueViolation):
		c.JSON(http.StatusConflict, dto.Failure("Resource already exists"))
	case errors.Is(err, database.ErrNotNullViolation):
		logger.Error("Not null violation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.Failure("Required field is missing"))
	case errors.Is(err, database.ErrInvalidTextRepresentation):
		logger.Error("Invalid data format", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.Failure("Invalid data format"))
	case errors.As(err, &dbErr):
		logger.Error("Database error",
			zap.String("code", dbErr.Code),
			zap.String("detail", dbErr.Detail),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.Failure(msgDatabaseFailed))
	default:
		logger.Error("Unexpected error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.Failure(msgUnexpected))
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// bindJSON reads the body and hands the untyped payload to validate, which
// decodes it into dst. It writes the error response itself and reports false on failure.
func bindJSON(c *gin.Context, validate func(payload, dst any) validation.Result, dst any) bool {
	body, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationFailure([]validation.FieldError{
			{Field: "body", Message: bodyErrorMessage(err)},
		}))
		return false
	}

	payload, err := validation.Decode(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationFailure([]validation.FieldError{
			{Field: "body", Message: "Request body must be valid JSON"},
		}))
		return false
	}

	if result := validate(payload, dst); !result.IsValid {
		c.JSON(http.StatusBadRequest, dto.ValidationFailure(result.Errors))
		return false
	}

	return true
}

func readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	return io.ReadAll(c.Request.Body)
}

func bodyErrorMessage(err error) string {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return "Request body is too large"
	}
	return "Request body could not be read"
}

// firstError answers 400 with the first field message, the way query parameter errors are reported
func firstError(c *gin.Context, result validation.Result) {
	message := "Invalid request"
	if len(result.Errors) > 0 {
		message = result.Errors[0].Message
	}
	c.JSON(http.StatusBadRequest, dto.Failure(message))
}
