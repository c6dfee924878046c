package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prperemyshlev/pages-service/internal/config"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/prperemyshlev/pages-service/internal/handler"
	"github.com/prperemyshlev/pages-service/internal/migration"
	"github.com/prperemyshlev/pages-service/internal/notification"
	"github.com/prperemyshlev/pages-service/internal/repository"
	"github.com/prperemyshlev/pages-service/internal/service"
	"github.com/prperemyshlev/pages-service/internal/upload"
	"github.com/prperemyshlev/pages-service/internal/utils"
	"github.com/prperemyshlev/pages-service/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

const (
	msgTooManyRegistrations = "Too many registration attempts. Please try again later."
	msgTooManyLogins        = "Too many login attempts. Please try again later."
	msgTooManyFailedLogins  = "Too many failed login attempts. Please try again later."
	msgTooManyResets        = "Too many password reset attempts. Please try again later."
)

type App struct {
	infra    Infrastructure
	config   *config.Config
	router   *gin.Engine
	server   *http.Server
	migrator *migration.Runner

	// set when notifications go through the queue
	queue  *notification.QueueSender
	worker *notification.Worker
}

// handlers groups everything the router needs
type handlers struct {
	auth    *handler.AuthHandler
	users   *handler.UserHandler
	pages   *handler.PageHandler
	uploads *handler.UploadHandler
	migrate *handler.MigrateHandler
	system  *handler.SystemHandler
	health  *HealthChecker

	authService service.AuthService
	limiter     service.RateLimiter
	metrics     *observability.Metrics
	localImages *upload.LocalStore
}

func NewApp(ctx context.Context, infra Infrastructure, cfg *config.Config) (*App, error) {
	logger := infra.Logger()
	a := &App{infra: infra, config: cfg}

	metrics, err := observability.NewMetrics(infra.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	repos := repository.NewRepositories(infra.Postgres())

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry.Duration,
		cfg.JWT.RefreshTokenExpiry.Duration,
		cfg.JWT.ResetTokenExpiry.Duration,
	)

	limiter, blacklist := newRateLimiter(cfg, infra), newTokenBlacklist(infra)

	notifier, err := a.newNotifier(cfg, infra)
	if err != nil {
		return nil, err
	}

	authService, err := service.NewAuthService(
		repos.User,
		repos.Token,
		jwtManager,
		blacklist,
		notifier,
		cfg.Security.BCryptCost,
		logger,
		metrics,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}
	userService := service.NewUserService(repos.User)
	pageService := service.NewPageService(repos.Page)

	store, err := newUploadStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a.migrator, err = migration.NewRunner(infra.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	h := handlers{
		auth: handler.NewAuthHandler(authService, userService, limiter, handler.RateLimitRule{
			Scope:    "failed_login",
			Requests: cfg.Security.FailedLogin().Requests,
			Window:   cfg.Security.FailedLogin().Window.Duration,
			Message:  msgTooManyFailedLogins,
		}, metrics, logger),
		users:   handler.NewUserHandler(userService, logger),
		pages:   handler.NewPageHandler(pageService, logger),
		uploads: handler.NewUploadHandler(upload.NewService(store, cfg.Upload.MaxBytes, cfg.Upload.Concurrency), metrics, logger),
		migrate: handler.NewMigrateHandler(a.migrator, cfg.Migrations.Token, logger),
		system:  handler.NewSystemHandler(infra.Postgres(), cfg.PostgresDSN(), cfg.DatabaseURL != "", logger),
		health:  NewHealthChecker(infra),

		authService: authService,
		limiter:     limiter,
		metrics:     metrics,
	}
	if local, ok := store.(*upload.LocalStore); ok {
		h.localImages = local
	}

	router, err := newRouter(cfg, infra, h)
	if err != nil {
		return nil, err
	}
	a.router = router
	a.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      a.router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return a, nil
}

func newRateLimiter(cfg *config.Config, infra Infrastructure) service.RateLimiter {
	if cfg.Security.RateLimitStore == "redis" && infra.Redis() != nil {
		return service.NewRedisRateLimiter(infra.Redis())
	}
	return service.NewMemoryRateLimiter()
}

func newTokenBlacklist(infra Infrastructure) service.TokenBlacklist {
	if infra.Redis() != nil {
		return service.NewRedisTokenBlacklist(infra.Redis())
	}
	return service.NewMemoryTokenBlacklist()
}

// newNotifier picks the password reset delivery. The queue driver hands
// messages to a worker that delivers through SMTP when a host is configured.
func (a *App) newNotifier(cfg *config.Config, infra Infrastructure) (service.NotificationSender, error) {
	logger := infra.Logger()
	n := cfg.Notify

	direct := func() service.NotificationSender {
		if n.SMTPHost != "" {
			return notification.NewSMTPSender(n.SMTPHost, n.SMTPPort, n.SMTPUsername, n.SMTPPassword, n.From, n.ResetURL)
		}
		return notification.NewLogSender(logger, n.ResetURL)
	}

	switch n.Driver {
	case "queue":
		redis := infra.Redis()
		if redis == nil {
			return nil, errors.New("queue notifications require redis")
		}
		opts := redis.Options()
		redisOpt := asynq.RedisClientOpt{Addr: opts.Addr, Password: opts.Password, DB: opts.DB}
		a.queue = notification.NewQueueSender(redisOpt, logger)
		a.worker = notification.NewWorker(redisOpt, n.Concurrency, direct(), logger)
		return a.queue, nil
	case "smtp":
		return direct(), nil
	default:
		return notification.NewLogSender(logger, n.ResetURL), nil
	}
}

func newUploadStore(ctx context.Context, cfg *config.Config) (upload.Store, error) {
	if cfg.Upload.Driver != "s3" {
		return upload.NewLocalStore(cfg.Upload.Dir, cfg.Upload.URLPrefix), nil
	}

	store, err := upload.NewS3Store(ctx, upload.S3Options{
		Bucket:        cfg.S3.Bucket,
		Region:        cfg.S3.Region,
		Endpoint:      cfg.S3.Endpoint,
		AccessKey:     cfg.S3.AccessKey,
		SecretKey:     cfg.S3.SecretKey,
		PublicBaseURL: cfg.S3.PublicBaseURL,
		KeyPrefix:     cfg.S3.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 store: %w", err)
	}
	return store, nil
}

func newRouter(cfg *config.Config, infra Infrastructure, h handlers) (*gin.Engine, error) {
	logger := infra.Logger()

	router := gin.New()
	if err := handler.TrustProxies(router, cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.HandleMethodNotAllowed = true
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.Failure("Route not found"))
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.Failure("Method not allowed"))
	})

	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.RequestIDMiddleware())
	router.Use(handler.LoggerMiddleware(logger))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(handler.SecurityHeadersMiddleware(cfg.Env != "production"))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))
	router.Use(handler.ThrottleMiddleware(cfg.Security.APIRatePerSecond, cfg.Security.APIRateBurst))

	router.GET("/metrics", observability.PrometheusHandler(infra.MetricsHandler()))
	router.GET("/health", h.health.Handler)
	if h.localImages != nil {
		router.Static(cfg.Upload.URLPrefix, h.localImages.Dir())
	}

	setupRoutes(router, cfg, h, logger)
	return router, nil
}

func setupRoutes(router *gin.Engine, cfg *config.Config, h handlers, logger *zap.Logger) {
	limit := func(scope string, rl config.RateLimit, message string) gin.HandlerFunc {
		return handler.RateLimitMiddleware(h.limiter, h.metrics, logger, handler.RateLimitRule{
			Scope:    scope,
			Requests: rl.Requests,
			Window:   rl.Window.Duration,
			Message:  message,
		})
	}
	requireAuth := handler.AuthMiddleware(h.authService)
	optionalAuth := handler.OptionalAuthMiddleware(h.authService)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", limit("register", cfg.Security.Register(), msgTooManyRegistrations), h.auth.Register)
			auth.POST("/login", limit("login", cfg.Security.Login(), msgTooManyLogins), h.auth.Login)
			auth.POST("/refresh", h.auth.Refresh)
			auth.POST("/logout", requireAuth, h.auth.Logout)
			auth.GET("/profile", requireAuth, h.auth.GetProfile)
			auth.PUT("/profile", requireAuth, h.auth.UpdateProfile)
			auth.POST("/change-password", requireAuth, h.auth.ChangePassword)
			auth.POST("/forgot-password", limit("forgot_password", cfg.Security.ForgotPassword(), msgTooManyResets), h.auth.ForgotPassword)
			auth.POST("/reset-password", limit("reset_password", cfg.Security.ResetPassword(), msgTooManyResets), h.auth.ResetPassword)
		}

		users := api.Group("/users")
		{
			users.GET("", h.users.List)
			users.POST("", h.users.Create)
			users.DELETE("", h.users.Delete)
			users.GET("/search", h.users.Search)
			users.GET("/:id", h.users.Get)
			users.PUT("/:id", h.users.Update)
		}

		pages := api.Group("/pages")
		{
			pages.GET("", optionalAuth, h.pages.List)
			pages.POST("", requireAuth, h.pages.Create)
			pages.GET("/:slug", optionalAuth, h.pages.Get)
			pages.PUT("/:slug", requireAuth, h.pages.Update)
			pages.DELETE("/:slug", requireAuth, h.pages.Delete)
		}

		api.POST("/upload-image", h.uploads.UploadImage)
		api.POST("/migrate", h.migrate.Migrate)
		api.GET("/db-info", h.system.DBInfo)
		api.GET("/test-connection", h.system.TestConnection)
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Migrate applies pending migrations, used when MIGRATE_ON_START is set
func (a *App) Migrate(ctx context.Context) error {
	executed, err := a.migrator.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	a.infra.Logger().Info("Migrations applied", zap.Int("count", len(executed)), zap.Strings("names", executed))
	return nil
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 2)

	if a.worker != nil {
		if err := a.worker.Start(); err != nil {
			return fmt.Errorf("failed to start notification worker: %w", err)
		}
		a.infra.Logger().Info("Notification worker started")
	}

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// stop taking requests before the queue and the pools go away
	err := a.server.Shutdown(ctx)

	if a.worker != nil {
		a.worker.Shutdown()
	}
	if a.queue != nil {
		err = errors.Join(err, a.queue.Close())
	}

	err = errors.Join(err, a.infra.Shutdown(ctx))
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
