package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStatsWarmup recomputes the cached audit statistics windows.
	TaskStatsWarmup = "sentinel:stats:warmup"
	// TaskGeoRefresh rebuilds the cached per-IP rollup for the geo view.
	TaskGeoRefresh = "sentinel:geo:refresh"
)

// StatsWarmupPayload selects the day windows to warm. Empty means the
// configured defaults.
type StatsWarmupPayload struct {
	JobID string `json:"job_id"`
	Days  []int  `json:"days,omitempty"`
}

// GeoRefreshPayload carries the correlation id for a rollup refresh.
type GeoRefreshPayload struct {
	JobID string `json:"job_id"`
}

// NewStatsWarmupTask constructs an Asynq task.
func NewStatsWarmupTask(days []int) (*asynq.Task, error) {
	data, err := json.Marshal(StatsWarmupPayload{JobID: uuid.NewString(), Days: days})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatsWarmup, data), nil
}

// NewGeoRefreshTask constructs an Asynq task.
func NewGeoRefreshTask() (*asynq.Task, error) {
	data, err := json.Marshal(GeoRefreshPayload{JobID: uuid.NewString()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGeoRefresh, data), nil
}
