package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/warden-rbac/warden/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRetention purges audit log entries past the retention window.
	TaskAuditRetention = "audit:retention"
)

// AuditRetentionPayload carries the retention window for a purge run.
type AuditRetentionPayload struct {
	Retention string `json:"retention"`
}

// NewAuditRetentionTask constructs an Asynq task.
func NewAuditRetentionTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(AuditRetentionPayload{Retention: retention.String()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRetention, data), nil
}

// NewAuditRetentionHandler returns the handler processing TaskAuditRetention.
func NewAuditRetentionHandler(audit *shared.AuditLogger, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditRetentionPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		retention, err := time.ParseDuration(payload.Retention)
		if err != nil || retention <= 0 {
			return asynq.SkipRetry
		}
		removed, err := audit.Cleanup(ctx, retention)
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("audit retention run", slog.Int64("removed", removed), slog.String("retention", payload.Retention))
		}
		return nil
	}
}
