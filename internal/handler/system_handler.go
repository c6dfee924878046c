package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/prperemyshlev/pages-service/pkg/database"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const testConnectionTimeout = 15 * time.Second

// DatabaseInfo describes the connected database
type DatabaseInfo struct {
	DatabaseName     string              `json:"database_name"`
	DatabaseUser     string              `json:"database_user"`
	DatabaseVersion  string              `json:"database_version"`
	ConnectionString string              `json:"connection_string"`
	PoolStatus       database.PoolStatus `json:"pool_status"`
}

// SystemHandler exposes database diagnostics
type SystemHandler struct {
	db     *database.Postgres
	dsn    string
	urlSet bool
	logger *zap.Logger
	openDB func(driver, dsn string) (*sql.DB, error)
}

// NewSystemHandler creates the handler. urlSet reports whether DATABASE_URL was configured.
func NewSystemHandler(db *database.Postgres, dsn string, urlSet bool, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		db:     db,
		dsn:    dsn,
		urlSet: urlSet,
		logger: logger,
		openDB: sql.Open,
	}
}

// DBInfo reports database name, user, version and pool occupancy
// @Router /db-info [get]
func (h *SystemHandler) DBInfo(c *gin.Context) {
	info := DatabaseInfo{ConnectionString: "Not Set"}
	if h.urlSet {
		info.ConnectionString = "Set"
	}

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		return h.db.QueryRowContext(ctx, "SELECT current_database() AS db_name").Scan(&info.DatabaseName)
	})
	g.Go(func() error {
		return h.db.QueryRowContext(ctx, "SELECT current_user AS db_user").Scan(&info.DatabaseUser)
	})
	g.Go(func() error {
		return h.db.QueryRowContext(ctx, "SELECT version() AS db_version").Scan(&info.DatabaseVersion)
	})

	if err := g.Wait(); err != nil {
		respondError(c, h.logger, fmt.Errorf("failed to read database info: %w", database.WrapError(err)), errorMessages{})
		return
	}
	info.PoolStatus = h.db.PoolStatus()

	c.JSON(http.StatusOK, dto.Success(info, "Database info retrieved successfully"))
}

// TestConnection opens a fresh connection outside the pool and runs SELECT NOW()
// @Router /test-connection [get]
func (h *SystemHandler) TestConnection(c *gin.Context) {
	if h.dsn == "" {
		c.JSON(http.StatusServiceUnavailable, dto.Failure("Database connection string is not set"))
		return
	}

	now, err := h.queryNow(c.Request.Context())
	if err != nil {
		h.logger.Warn("Connection test failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, dto.Failure("Database connection failed"))
		return
	}

	c.JSON(http.StatusOK, dto.Success(gin.H{"currentTime": now}, "Database connection successful"))
}

func (h *SystemHandler) queryNow(ctx context.Context) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, testConnectionTimeout)
	defer cancel()

	db, err := h.openDB("postgres", h.dsn)
	if err != nil {
		return time.Time{}, err
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	var now time.Time
	if err := db.QueryRowContext(ctx, "SELECT NOW() AS current_time").Scan(&now); err != nil {
		return time.Time{}, err
	}
	return now, nil
}
