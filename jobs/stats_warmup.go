package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/sentinel-console/sentinel/internal/auditlog"
	jobmetrics "github.com/sentinel-console/sentinel/internal/jobs"
)

// StatsWarmupJob pre-populates the audit statistics cache so dashboard loads
// never pay for the aggregate queries.
type StatsWarmupJob struct {
	Cache       *auditlog.StatsCache
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	DefaultDays []int
}

// NewStatsWarmupJob wires dependencies for the warmup handler.
func NewStatsWarmupJob(cache *auditlog.StatsCache, logger *slog.Logger, metrics *jobmetrics.Metrics, defaultDays []int) *StatsWarmupJob {
	if logger == nil {
		logger = slog.Default()
	}
	if len(defaultDays) == 0 {
		defaultDays = []int{7, 30}
	}
	return &StatsWarmupJob{Cache: cache, Logger: logger, Metrics: metrics, DefaultDays: defaultDays}
}

// Handle processes statistics warmup tasks.
func (j *StatsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Cache == nil {
		return errors.New("stats warmup: handler not configured")
	}
	var payload StatsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	days := payload.Days
	if len(days) == 0 {
		days = j.DefaultDays
	}

	tracker := j.Metrics.Track(TaskStatsWarmup)
	var resultErr error
	defer func() {
		tracker.End(resultErr)
	}()

	logger := j.Logger.With(slog.String("job_id", payload.JobID))
	for _, window := range days {
		if err := j.Cache.Warm(ctx, window); err != nil {
			resultErr = err
			logger.Error("warm statistics", slog.Int("days", window), slog.Any("error", err))
			return resultErr
		}
	}
	logger.Info("statistics warmed", slog.Int("windows", len(days)))
	return resultErr
}
