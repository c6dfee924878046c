package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/prperemyshlev/pages-service/internal/service"
	"go.uber.org/zap"
)

// Worker consumes queued notifications and delivers them through another sender
type Worker struct {
	srv      *asynq.Server
	mux      *asynq.ServeMux
	delivery service.NotificationSender
	logger   *zap.Logger
}

// NewWorker creates an asynq server and registers handlers. Call Start to run it.
func NewWorker(redisOpt asynq.RedisClientOpt, concurrency int, delivery service.NotificationSender, logger *zap.Logger) *Worker {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Logger:      logger.Sugar(),
		LogLevel:    asynq.InfoLevel,
	})

	w := &Worker{
		srv:      srv,
		mux:      asynq.NewServeMux(),
		delivery: delivery,
		logger:   logger,
	}
	w.mux.HandleFunc(TypeSendPasswordReset, w.handlePasswordReset)

	return w
}

func (w *Worker) handlePasswordReset(ctx context.Context, t *asynq.Task) error {
	var p passwordResetPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.logger.Error("password reset task payload invalid", zap.Error(err))
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	if err := w.delivery.SendPasswordReset(ctx, p.Email, p.Token); err != nil {
		w.logger.Warn("password reset delivery failed", zap.Error(err))
		return err
	}

	return nil
}

// Start runs the worker in the background
func (w *Worker) Start() error {
	return w.srv.Start(w.mux)
}

// Shutdown waits for active tasks and stops the worker
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}
