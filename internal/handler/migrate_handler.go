package handler

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"go.uber.org/zap"
)

const headerMigrateToken = "X-Migrate-Token"

// MigrationRunner applies pending schema migrations and returns their names
type MigrationRunner interface {
	Up(ctx context.Context) ([]string, error)
}

// MigrateHandler runs schema migrations on demand
type MigrateHandler struct {
	runner MigrationRunner
	token  string
	logger *zap.Logger
}

// NewMigrateHandler creates the handler. An empty token leaves the endpoint open.
func NewMigrateHandler(runner MigrationRunner, token string, logger *zap.Logger) *MigrateHandler {
	return &MigrateHandler{runner: runner, token: token, logger: logger}
}

// Migrate applies every pending migration
// @Router /migrate [post]
func (h *MigrateHandler) Migrate(c *gin.Context) {
	if h.token != "" {
		presented := c.GetHeader(headerMigrateToken)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(h.token)) != 1 {
			c.JSON(http.StatusUnauthorized, dto.Failure("Invalid migration token"))
			return
		}
	}

	executed, err := h.runner.Up(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, fmt.Errorf("migration failed: %w", err), errorMessages{})
		return
	}

	if len(executed) == 0 {
		pending := 0
		c.JSON(http.StatusOK, dto.Success(dto.MigrationResult{Executed: []string{}, Pending: &pending}, "No pending migrations"))
		return
	}

	total := len(executed)
	h.logger.Info("Migrations executed", zap.Strings("names", executed))
	c.JSON(http.StatusOK, dto.Success(
		dto.MigrationResult{Executed: executed, Total: &total},
		fmt.Sprintf("Successfully executed %d migrations", total),
	))
}
