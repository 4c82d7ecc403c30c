package browse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sentinel-console/sentinel/internal/auditlog"
)

const (
	defaultPageSize   = 50
	drilldownPageSize = 500
	directoryLimit    = 1000
)

// FilterInput is the raw operator-entered filter form. Every field is
// free text exactly as typed; normalization happens on submit.
type FilterInput struct {
	User      string
	Action    string
	TableName string
	IPAddress string
	StartDate time.Time
	EndDate   time.Time
}

// Session mengoordinasikan satu sesi penelusuran audit log: filter, sort,
// pagination, detail cache, dan kedua modal navigasi. All mutating entry
// points serialize on one mutex; the epoch stamp makes the newest submitted
// query the only one whose response may land, so an operator outracing the
// network can never see a stale page replace a fresh one.
type Session struct {
	id     string
	api    API
	sink   EventSink
	keymap *Keymap

	resolver *Resolver
	guard    *Guard
	cache    *DetailCache

	mu       sync.Mutex
	epoch    uint64
	filters  Query
	sort     SortState
	pageSize int
	offset   int
	current  *auditlog.ResultPage

	main  *Navigator
	drill *Navigator
}

// NewSession constructs a session against the given API, pushing state
// transitions into sink. A nil sink discards events.
func NewSession(api API, sink EventSink) *Session {
	if sink == nil {
		sink = NopSink{}
	}
	s := &Session{
		id:       uuid.NewString(),
		api:      api,
		sink:     sink,
		keymap:   NewKeymap(),
		resolver: NewResolver(nil),
		guard:    &Guard{},
		cache:    NewDetailCache(),
		sort:     DefaultSort(),
		pageSize: defaultPageSize,
	}
	s.main = newNavigator(ScopeMain, s.keymap, sink, s.guard, s.fetchDetail)
	s.drill = newNavigator(ScopeDrilldown, s.keymap, sink, s.guard, s.fetchDetail)
	return s
}

// ID returns the session identifier sent on every outgoing request.
func (s *Session) ID() string {
	return s.id
}

// LoadDirectory refreshes the username resolution table. Typically called once
// at session start; a failure leaves the previous table in place.
func (s *Session) LoadDirectory(ctx context.Context) error {
	directory, err := s.api.Directory(ctx, directoryLimit)
	if err != nil {
		return fmt.Errorf("load directory: %w", err)
	}
	s.mu.Lock()
	s.resolver = NewResolver(directory)
	s.mu.Unlock()
	return nil
}

// ApplyFilters normalizes the form and runs the query from page one. Unknown
// usernames reject the whole submission before anything is sent.
func (s *Session) ApplyFilters(ctx context.Context, input FilterInput) error {
	s.mu.Lock()
	user, err := s.resolver.Resolve(input.User)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.filters = Query{
		User:      user,
		Action:    input.Action,
		TableName: input.TableName,
		IPAddress: input.IPAddress,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}
	s.offset = 0
	s.mu.Unlock()
	return s.refresh(ctx)
}

// SetSort applies a column-header click and reruns the query from page one.
// The sort flip and the offset reset ride the same request; there is never an
// intermediate query with the old offset.
func (s *Session) SetSort(ctx context.Context, column string) error {
	s.mu.Lock()
	s.sort = s.sort.Toggle(column)
	s.offset = 0
	s.mu.Unlock()
	return s.refresh(ctx)
}

// SetPage jumps to a 1-based page under the current filters and sort.
func (s *Session) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	s.offset = (page - 1) * s.pageSize
	s.mu.Unlock()
	return s.refresh(ctx)
}

// Refresh reruns the current query unchanged.
func (s *Session) Refresh(ctx context.Context) error {
	return s.refresh(ctx)
}

// refresh runs the canonical listing query. The epoch is stamped before the
// request leaves; a response whose stamp no longer matches is discarded with
// ErrStale and touches nothing. On failure the last good page stays rendered.
func (s *Session) refresh(ctx context.Context) error {
	s.mu.Lock()
	s.epoch++
	stamp := s.epoch
	query := s.filters
	query.SortBy = s.sort.Column
	query.SortDir = s.sort.Direction()
	query.Limit = s.pageSize
	query.Offset = s.offset
	s.mu.Unlock()

	page, err := s.api.ListLogs(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if stamp != s.epoch {
		return ErrStale
	}
	if err != nil {
		s.sink.QueryFailed(err, s.current != nil)
		return err
	}

	s.current = page
	s.cache.Reset()
	s.main.Rebind(page.Entries)
	if len(page.Entries) == 0 {
		s.sink.EmptyState(page)
	} else {
		s.sink.PageReplaced(page)
	}
	return nil
}

// OpenEntry opens the main modal on the page row at index.
func (s *Session) OpenEntry(ctx context.Context, index int) error {
	return s.main.Open(ctx, index)
}

// OpenDrilldown loads the recent history for one IP and binds the drill-down
// sequence to it. The set is a fixed-size newest-first snapshot, independent
// of the main page's filters.
func (s *Session) OpenDrilldown(ctx context.Context, ip string) error {
	page, err := s.api.ListLogs(ctx, Query{
		IPAddress: ip,
		SortBy:    "created_at",
		SortDir:   "desc",
		Limit:     drilldownPageSize,
	})
	if err != nil {
		s.sink.QueryFailed(err, false)
		return err
	}
	s.drill.Rebind(page.Entries)
	return nil
}

// OpenDrilldownEntry opens the drill-down modal on the sequence row at index.
func (s *Session) OpenDrilldownEntry(ctx context.Context, index int) error {
	return s.drill.Open(ctx, index)
}

// CloseModals tears down both modals, whichever is open.
func (s *Session) CloseModals() {
	s.main.Close()
	s.drill.Close()
}

// HandleKey routes one keyboard event to every open modal.
func (s *Session) HandleKey(key Key) {
	s.keymap.Dispatch(key)
}

// GeoSummaries fetches the per-IP rollup and classifies it for the map view.
func (s *Session) GeoSummaries(ctx context.Context) ([]IPLocationSummary, error) {
	rows, err := s.api.IPLocations(ctx)
	if err != nil {
		return nil, err
	}
	return FromRollup(rows), nil
}

// Statistics fetches the aggregate counters for a trailing day window.
func (s *Session) Statistics(ctx context.Context, days int) (*auditlog.Statistics, error) {
	return s.api.Statistics(ctx, days)
}

// Page returns the last good ResultPage, nil before the first query lands.
func (s *Session) Page() *auditlog.ResultPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Sort returns the active listing order.
func (s *Session) Sort() SortState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sort
}

// Pagination derives the bounded button strip for the current page.
func (s *Session) Pagination() []PageButton {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return PageWindow(CurrentPage(s.offset, s.pageSize), PageCount(s.current.Total, s.pageSize))
}

// Main exposes the main-table navigator.
func (s *Session) Main() *Navigator {
	return s.main
}

// Drilldown exposes the IP drill-down navigator.
func (s *Session) Drilldown() *Navigator {
	return s.drill
}

func (s *Session) fetchDetail(ctx context.Context, id int64) (*auditlog.LogEntry, error) {
	return s.cache.Get(ctx, id, s.api.GetLog)
}
