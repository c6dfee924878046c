package observability

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

// PrometheusHandler returns a Gin handler for Prometheus metrics
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler != nil {
			handler.ServeHTTP(c.Writer, c.Request)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "metrics handler not initialized",
			})
		}
	}
}

// Metrics holds the application counters. A nil *Metrics records nothing.
type Metrics struct {
	loginAttempts  otelmetric.Int64Counter
	rateLimited    otelmetric.Int64Counter
	passwordResets otelmetric.Int64Counter
	uploads        otelmetric.Int64Counter
}

// NewMetrics registers the application counters on the given meter provider
func NewMetrics(provider otelmetric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter("github.com/prperemyshlev/pages-service")

	loginAttempts, err := meter.Int64Counter("auth_login_attempts_total",
		otelmetric.WithDescription("Login attempts by result"))
	if err != nil {
		return nil, err
	}

	rateLimited, err := meter.Int64Counter("rate_limit_rejections_total",
		otelmetric.WithDescription("Requests rejected by a rate limit, by scope"))
	if err != nil {
		return nil, err
	}

	passwordResets, err := meter.Int64Counter("password_reset_requests_total",
		otelmetric.WithDescription("Password reset requests"))
	if err != nil {
		return nil, err
	}

	uploads, err := meter.Int64Counter("uploads_total",
		otelmetric.WithDescription("Image uploads by result"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		loginAttempts:  loginAttempts,
		rateLimited:    rateLimited,
		passwordResets: passwordResets,
		uploads:        uploads,
	}, nil
}

func (m *Metrics) LoginAttempt(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.loginAttempts.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) RateLimited(ctx context.Context, scope string) {
	if m == nil {
		return
	}
	m.rateLimited.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("scope", scope)))
}

func (m *Metrics) PasswordResetRequested(ctx context.Context) {
	if m == nil {
		return
	}
	m.passwordResets.Add(ctx, 1)
}

func (m *Metrics) Upload(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.uploads.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("result", result)))
}
