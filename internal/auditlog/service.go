package auditlog

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	maxStatsDays    = 365
)

// Store menyediakan akses ke repository yang dibutuhkan service.
type Store interface {
	List(ctx context.Context, f ListFilter) (*ResultPage, error)
	GetByID(ctx context.Context, id int64) (*LogEntry, error)
	Statistics(ctx context.Context, days int) (*Statistics, error)
	IPRollup(ctx context.Context) ([]IPRollupRow, error)
}

// Service mengoordinasikan pembacaan audit log.
type Service struct {
	store    Store
	validate *validator.Validate
}

// NewService membuat service audit log baru.
func NewService(store Store) *Service {
	return &Service{store: store, validate: validator.New()}
}

// List validates and clamps the filter, then returns one page.
func (s *Service) List(ctx context.Context, f ListFilter) (*ResultPage, error) {
	if s.store == nil {
		return nil, fmt.Errorf("auditlog: store not configured")
	}
	f = clamp(f)
	if err := s.validate.Struct(f); err != nil {
		return nil, fmt.Errorf("auditlog: %w: %w", ErrInvalidFilter, err)
	}
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.StartDate.After(f.EndDate) {
		return nil, fmt.Errorf("auditlog: %w: start date after end date", ErrInvalidFilter)
	}
	page, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	// Listings never exceed the requested window even if the store
	// misbehaves.
	if len(page.Entries) > f.Limit {
		page.Entries = page.Entries[:f.Limit]
	}
	return page, nil
}

// Get returns the fully hydrated entry.
func (s *Service) Get(ctx context.Context, id int64) (*LogEntry, error) {
	if s.store == nil {
		return nil, fmt.Errorf("auditlog: store not configured")
	}
	if id <= 0 {
		return nil, ErrNotFound
	}
	return s.store.GetByID(ctx, id)
}

// Statistics returns aggregate counters for a trailing day window.
func (s *Service) Statistics(ctx context.Context, days int) (*Statistics, error) {
	if s.store == nil {
		return nil, fmt.Errorf("auditlog: store not configured")
	}
	if days <= 0 {
		days = 7
	}
	if days > maxStatsDays {
		days = maxStatsDays
	}
	return s.store.Statistics(ctx, days)
}

// IPLocations returns the per-IP rollup for the geo view.
func (s *Service) IPLocations(ctx context.Context) ([]IPRollupRow, error) {
	if s.store == nil {
		return nil, fmt.Errorf("auditlog: store not configured")
	}
	return s.store.IPRollup(ctx)
}

func clamp(f ListFilter) ListFilter {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.SortBy == "" {
		f.SortBy = "created_at"
	}
	if f.SortDir == "" {
		f.SortDir = "desc"
	}
	return f
}
