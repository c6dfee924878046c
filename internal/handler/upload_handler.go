package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/prperemyshlev/pages-service/internal/upload"
	"github.com/prperemyshlev/pages-service/pkg/observability"
	"go.uber.org/zap"
)

// multipart headers and boundaries on top of the file itself
const multipartOverhead = 1 << 20

const msgInvalidImageType = "Invalid file type. Only JPEG, PNG, and WebP images are allowed"

// UploadHandler accepts user images
type UploadHandler struct {
	uploads *upload.Service
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewUploadHandler(uploads *upload.Service, metrics *observability.Metrics, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{uploads: uploads, metrics: metrics, logger: logger}
}

// UploadImage stores the multipart "image" field and returns its public path
// @Router /upload-image [post]
func (h *UploadHandler) UploadImage(c *gin.Context) {
	ctx := c.Request.Context()
	maxBytes := h.uploads.MaxBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.reject(c, h.tooLargeMessage())
		case errors.Is(err, http.ErrMissingFile) && hasFormParts(c):
			h.reject(c, "Image file is required")
		default:
			h.reject(c, "No file uploaded")
		}
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.metrics.Upload(ctx, "error")
		respondError(c, h.logger, fmt.Errorf("failed to open uploaded file: %w", err), errorMessages{})
		return
	}
	defer file.Close()

	// one extra byte tells an oversized file apart from one exactly at the limit
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		h.metrics.Upload(ctx, "error")
		respondError(c, h.logger, fmt.Errorf("failed to read uploaded file: %w", err), errorMessages{})
		return
	}

	imagePath, err := h.uploads.SaveImage(ctx, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrInvalidType), errors.Is(err, upload.ErrContentMismatch):
			h.reject(c, msgInvalidImageType)
		case errors.Is(err, upload.ErrTooLarge):
			h.reject(c, h.tooLargeMessage())
		default:
			h.metrics.Upload(ctx, "error")
			respondError(c, h.logger, err, errorMessages{})
		}
		return
	}

	h.metrics.Upload(ctx, "success")
	h.logger.Info("Image uploaded", zap.String("image_path", imagePath), zap.Int("size", len(data)))
	c.JSON(http.StatusOK, dto.Success(dto.UploadResponse{ImagePath: imagePath}, "Image uploaded successfully"))
}

func (h *UploadHandler) reject(c *gin.Context, message string) {
	h.metrics.Upload(c.Request.Context(), "rejected")
	c.JSON(http.StatusBadRequest, dto.Failure(message))
}

func (h *UploadHandler) tooLargeMessage() string {
	return fmt.Sprintf("File size too large. Maximum size is %dMB", h.uploads.MaxBytes()/(1<<20))
}

func hasFormParts(c *gin.Context) bool {
	form := c.Request.MultipartForm
	return form != nil && (len(form.File) > 0 || len(form.Value) > 0)
}
