package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes reset links to the log instead of sending them. Meant for development.
type LogSender struct {
	logger   *zap.Logger
	resetURL string
}

// NewLogSender creates a log-only sender
func NewLogSender(logger *zap.Logger, resetURL string) *LogSender {
	return &LogSender{logger: logger, resetURL: resetURL}
}

func (s *LogSender) SendPasswordReset(_ context.Context, email, token string) error {
	link, err := ResetLink(s.resetURL, token)
	if err != nil {
		return err
	}

	s.logger.Info("password reset email (log only; set NOTIFY_DRIVER=smtp to deliver)",
		zap.String("email", email),
		zap.String("reset_url", link),
	)
	return nil
}
