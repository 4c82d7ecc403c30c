package auditloghttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sentinel-console/sentinel/internal/auditlog"
)

type stubLogService struct {
	page       *auditlog.ResultPage
	entry      *auditlog.LogEntry
	csv        []byte
	lastFilter auditlog.ListFilter
	err        error
}

func (s *stubLogService) List(ctx context.Context, f auditlog.ListFilter) (*auditlog.ResultPage, error) {
	s.lastFilter = f
	if s.err != nil {
		return nil, s.err
	}
	if s.page != nil {
		return s.page, nil
	}
	return &auditlog.ResultPage{Limit: f.Limit, Offset: f.Offset}, nil
}

func (s *stubLogService) Get(ctx context.Context, id int64) (*auditlog.LogEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.entry == nil {
		return nil, auditlog.ErrNotFound
	}
	return s.entry, nil
}

func (s *stubLogService) ExportCSV(ctx context.Context, f auditlog.ListFilter) ([]byte, error) {
	s.lastFilter = f
	if s.err != nil {
		return nil, s.err
	}
	return s.csv, nil
}

type stubStats struct {
	stats    *auditlog.Statistics
	rollup   []auditlog.IPRollupRow
	lastDays int
}

func (s *stubStats) Statistics(ctx context.Context, days int) (*auditlog.Statistics, error) {
	s.lastDays = days
	if s.stats != nil {
		return s.stats, nil
	}
	return &auditlog.Statistics{Days: days}, nil
}

func (s *stubStats) IPLocations(ctx context.Context) ([]auditlog.IPRollupRow, error) {
	return s.rollup, nil
}

func serveRequest(t *testing.T, svc LogService, stats StatsProvider, target string) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	NewHandler(nil, svc, stats).MountRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestListParsesTriStateUserFilter(t *testing.T) {
	svc := &stubLogService{}
	stats := &stubStats{}

	rec := serveRequest(t, svc, stats, "/api/admin/logs?user_id=null")
	if rec.Code != http.StatusOK {
		t.Fatalf("null token: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !svc.lastFilter.UserID.Set || !svc.lastFilter.UserID.Null {
		t.Fatalf("expected the null filter, got %+v", svc.lastFilter.UserID)
	}

	rec = serveRequest(t, svc, stats, "/api/admin/logs?user_id=42")
	if rec.Code != http.StatusOK {
		t.Fatalf("id literal: expected 200, got %d", rec.Code)
	}
	if !svc.lastFilter.UserID.Set || svc.lastFilter.UserID.Null || svc.lastFilter.UserID.ID != 42 {
		t.Fatalf("expected id 42, got %+v", svc.lastFilter.UserID)
	}

	rec = serveRequest(t, svc, stats, "/api/admin/logs")
	if rec.Code != http.StatusOK {
		t.Fatalf("absent: expected 200, got %d", rec.Code)
	}
	if svc.lastFilter.UserID.Set {
		t.Fatalf("absent parameter must leave the filter unset, got %+v", svc.lastFilter.UserID)
	}

	rec = serveRequest(t, svc, stats, "/api/admin/logs?user_id=budi")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("garbage user_id: expected 400, got %d", rec.Code)
	}
}

func TestListParsesDatesAndPaging(t *testing.T) {
	svc := &stubLogService{}
	rec := serveRequest(t, svc, &stubStats{}, "/api/admin/logs?start_date=2026-08-01&end_date=2026-08-20&limit=100&offset=200&sort_by=action&sort_direction=ASC")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	f := svc.lastFilter
	if f.StartDate != time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected start date %v", f.StartDate)
	}
	// A bare end date covers the whole day.
	if !f.EndDate.After(time.Date(2026, 8, 20, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("expected end of day, got %v", f.EndDate)
	}
	if f.Limit != 100 || f.Offset != 200 {
		t.Fatalf("unexpected paging %d/%d", f.Limit, f.Offset)
	}
	if f.SortBy != "action" || f.SortDir != "asc" {
		t.Fatalf("unexpected sort %s %s", f.SortBy, f.SortDir)
	}
}

func TestListRejectsMalformedParameters(t *testing.T) {
	for _, target := range []string{
		"/api/admin/logs?limit=-5",
		"/api/admin/logs?limit=abc",
		"/api/admin/logs?offset=-1",
		"/api/admin/logs?start_date=20-20-20",
	} {
		rec := serveRequest(t, &stubLogService{}, &stubStats{}, target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
			t.Fatalf("%s: expected a json problem body, got %s", target, ct)
		}
	}
}

func TestListMapsServiceErrors(t *testing.T) {
	svc := &stubLogService{err: auditlog.ErrInvalidFilter}
	rec := serveRequest(t, svc, &stubStats{}, "/api/admin/logs")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid filter: expected 400, got %d", rec.Code)
	}
}

func TestDetailRoutes(t *testing.T) {
	entry := &auditlog.LogEntry{ID: 7, Action: auditlog.ActionUpdate}
	rec := serveRequest(t, &stubLogService{entry: entry}, &stubStats{}, "/api/admin/logs/7")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got auditlog.LogEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != 7 {
		t.Fatalf("expected entry 7, got %d", got.ID)
	}

	rec = serveRequest(t, &stubLogService{}, &stubStats{}, "/api/admin/logs/99")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing entry: expected 404, got %d", rec.Code)
	}

	rec = serveRequest(t, &stubLogService{}, &stubStats{}, "/api/admin/logs/-1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative id: expected 400, got %d", rec.Code)
	}
}

func TestStatisticsParsesDays(t *testing.T) {
	stats := &stubStats{}
	rec := serveRequest(t, &stubLogService{}, stats, "/api/admin/logs/statistics?days=30")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stats.lastDays != 30 {
		t.Fatalf("expected 30 days, got %d", stats.lastDays)
	}

	rec = serveRequest(t, &stubLogService{}, stats, "/api/admin/logs/statistics")
	if rec.Code != http.StatusOK {
		t.Fatalf("default: expected 200, got %d", rec.Code)
	}
	if stats.lastDays != 7 {
		t.Fatalf("expected default 7 days, got %d", stats.lastDays)
	}

	rec = serveRequest(t, &stubLogService{}, stats, "/api/admin/logs/statistics?days=zero")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad days: expected 400, got %d", rec.Code)
	}
}

func TestIPLocationsAlwaysReturnsArray(t *testing.T) {
	rec := serveRequest(t, &stubLogService{}, &stubStats{}, "/api/admin/logs/ip-locations")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("expected an empty array, got %s", body)
	}
}

func TestExportSetsDownloadHeaders(t *testing.T) {
	svc := &stubLogService{csv: []byte("id,action\n7,DELETE\n")}
	rec := serveRequest(t, svc, &stubStats{}, "/api/admin/logs/export?format=csv&action=DELETE")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("expected attachment disposition, got %s", cd)
	}
	if svc.lastFilter.Action != "DELETE" {
		t.Fatalf("export must carry the filters, got %q", svc.lastFilter.Action)
	}

	rec = serveRequest(t, svc, &stubStats{}, "/api/admin/logs/export?format=xlsx")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unsupported format: expected 400, got %d", rec.Code)
	}
}
