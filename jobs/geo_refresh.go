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

// GeoRefreshJob rebuilds the cached per-IP rollup consumed by the geo view.
type GeoRefreshJob struct {
	Cache   *auditlog.StatsCache
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewGeoRefreshJob wires dependencies for the rollup refresh handler.
func NewGeoRefreshJob(cache *auditlog.StatsCache, logger *slog.Logger, metrics *jobmetrics.Metrics) *GeoRefreshJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeoRefreshJob{Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle processes rollup refresh tasks.
func (j *GeoRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Cache == nil {
		return errors.New("geo refresh: handler not configured")
	}
	var payload GeoRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskGeoRefresh)
	var resultErr error
	defer func() {
		tracker.End(resultErr)
	}()

	logger := j.Logger.With(slog.String("job_id", payload.JobID))
	if err := j.Cache.WarmRollup(ctx); err != nil {
		resultErr = err
		logger.Error("refresh ip rollup", slog.Any("error", err))
		return resultErr
	}
	logger.Info("ip rollup refreshed")
	return resultErr
}
