package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup reloads the product table into the snapshot cache.
	TaskReportWarmup = "report:warmup"
)

// ReportWarmupPayload controls a warm-up run.
type ReportWarmupPayload struct {
	// Refresh bumps the cache version before loading so stale snapshots are
	// discarded.
	Refresh bool `json:"refresh"`
}

// NewReportWarmupTask constructs an Asynq task for TaskReportWarmup.
func NewReportWarmupTask(refresh bool) (*asynq.Task, error) {
	data, err := json.Marshal(ReportWarmupPayload{Refresh: refresh})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}
