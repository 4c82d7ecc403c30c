package auditlog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgconn"
)

// Inserter is the write half of the repository needed by the recorder.
type Inserter interface {
	Insert(ctx context.Context, rec Record) error
}

// Recorder writes ADMIN_ACCESS rows for requests hitting the admin API. It is
// best effort: the request path is never failed because the trail insert did
// not land.
type Recorder struct {
	store  Inserter
	logger *slog.Logger
}

// NewRecorder returns a new Recorder.
func NewRecorder(store Inserter, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// Record persists the entry.
func (r *Recorder) Record(ctx context.Context, rec Record) error {
	if r == nil || r.store == nil {
		return errors.New("auditlog: recorder not configured")
	}
	if rec.Action == "" {
		return errors.New("auditlog: record requires an action")
	}
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	err := r.store.Insert(ctx, rec)
	if err == nil {
		return nil
	}
	// An actor deleted mid-flight trips the user FK. Keep the trail entry
	// and mark it unauthenticated instead of dropping it.
	if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "fk_audit_logs_user" {
		rec.UserID = nil
		return r.store.Insert(ctx, rec)
	}
	return err
}

// RecordAsync persists the entry on a detached context and only logs failures.
func (r *Recorder) RecordAsync(rec Record) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.Record(ctx, rec); err != nil {
			r.logger.Warn("record admin access", slog.Any("error", err))
		}
	}()
}
