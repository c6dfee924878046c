package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeSendPasswordReset = "email:password_reset"

type passwordResetPayload struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// QueueSender hands reset messages to the asynq worker so requests never wait on SMTP
type QueueSender struct {
	client enqueuer
	logger *zap.Logger
}

// NewQueueSender creates an asynq backed sender
func NewQueueSender(redisOpt asynq.RedisClientOpt, logger *zap.Logger) *QueueSender {
	return &QueueSender{client: asynq.NewClient(redisOpt), logger: logger}
}

func (q *QueueSender) SendPasswordReset(ctx context.Context, email, token string) error {
	payload, err := json.Marshal(passwordResetPayload{Email: email, Token: token})
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}

	task := asynq.NewTask(TypeSendPasswordReset, payload,
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
	)

	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue password reset: %w", err)
	}

	q.logger.Debug("password reset enqueued", zap.String("task_id", info.ID), zap.String("queue", info.Queue))
	return nil
}

func (q *QueueSender) Close() error {
	return q.client.Close()
}
