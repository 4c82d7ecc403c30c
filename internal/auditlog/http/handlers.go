package auditloghttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sentinel-console/sentinel/internal/auditlog"
	"github.com/sentinel-console/sentinel/internal/platform/httpx"
)

// userIDNullToken is the literal query value selecting unauthenticated
// entries. Distinct from the parameter being absent, which leaves the actor
// filter unset.
const userIDNullToken = "null"

// LogService defines the business contract for log reads.
type LogService interface {
	List(ctx context.Context, f auditlog.ListFilter) (*auditlog.ResultPage, error)
	Get(ctx context.Context, id int64) (*auditlog.LogEntry, error)
	ExportCSV(ctx context.Context, f auditlog.ListFilter) ([]byte, error)
}

// StatsProvider serves the aggregate endpoints, usually through the Redis
// cache.
type StatsProvider interface {
	Statistics(ctx context.Context, days int) (*auditlog.Statistics, error)
	IPLocations(ctx context.Context) ([]auditlog.IPRollupRow, error)
}

// Handler menangani endpoint JSON audit log.
type Handler struct {
	logger  *slog.Logger
	service LogService
	stats   StatsProvider
}

// NewHandler membuat handler audit log baru.
func NewHandler(logger *slog.Logger, service LogService, stats StatsProvider) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, stats: stats}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, "list logs", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "id must be a positive integer")
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get log", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := strings.TrimSpace(r.URL.Query().Get("days")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "days must be a positive integer")
			return
		}
		days = parsed
	}
	stats, err := h.stats.Statistics(r.Context(), days)
	if err != nil {
		h.respondError(w, "load statistics", err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) handleIPLocations(w http.ResponseWriter, r *http.Request) {
	rows, err := h.stats.IPLocations(r.Context())
	if err != nil {
		h.respondError(w, "load ip locations", err)
		return
	}
	if rows == nil {
		rows = []auditlog.IPRollupRow{}
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	if format := strings.TrimSpace(r.URL.Query().Get("format")); format != "" && format != "csv" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "only csv export is supported")
		return
	}
	filter, err := parseListFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	csvBytes, err := h.service.ExportCSV(r.Context(), filter)
	if err != nil {
		h.respondError(w, "export logs", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"audit-logs.csv\"")
	if _, err := w.Write(csvBytes); err != nil {
		h.logger.Warn("write csv", slog.Any("error", err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, auditlog.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, auditlog.ErrInvalidFilter):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(message, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func parseListFilter(r *http.Request) (auditlog.ListFilter, error) {
	q := r.URL.Query()
	var f auditlog.ListFilter

	if raw, ok := q["user_id"]; ok && len(raw) > 0 {
		value := strings.TrimSpace(raw[0])
		switch {
		case strings.EqualFold(value, userIDNullToken):
			f.UserID = auditlog.UserIDFilter{Set: true, Null: true}
		case value == "":
			// Treated as unset, same as the parameter being absent.
		default:
			id, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return f, errors.New("user_id must be an integer or the literal null")
			}
			f.UserID = auditlog.UserIDFilter{Set: true, ID: id}
		}
	}

	f.Action = strings.TrimSpace(q.Get("action"))
	f.TableName = strings.TrimSpace(q.Get("table_name"))
	f.IPAddress = strings.TrimSpace(q.Get("ip_address"))
	f.SortBy = strings.TrimSpace(q.Get("sort_by"))
	f.SortDir = strings.ToLower(strings.TrimSpace(q.Get("sort_direction")))

	var err error
	if f.StartDate, err = parseDate(q.Get("start_date"), false); err != nil {
		return f, errors.New("start_date must be YYYY-MM-DD or RFC3339")
	}
	if f.EndDate, err = parseDate(q.Get("end_date"), true); err != nil {
		return f, errors.New("end_date must be YYYY-MM-DD or RFC3339")
	}

	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return f, errors.New("limit must be a positive integer")
		}
		f.Limit = parsed
	}
	if v := strings.TrimSpace(q.Get("offset")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return f, errors.New("offset must be a non-negative integer")
		}
		f.Offset = parsed
	}
	return f, nil
}

// parseDate accepts a bare date or a full RFC3339 stamp. Bare end dates are
// pushed to the end of the day so the range is inclusive.
func parseDate(value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
