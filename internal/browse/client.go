package browse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sentinel-console/sentinel/internal/auditlog"
	"github.com/sentinel-console/sentinel/internal/users"
)

// Query selects one page of the audit log. Unset fields are omitted from the
// outgoing request; the explicit unauthenticated filter is sent as the
// literal null token, which is distinct from leaving the field unset.
type Query struct {
	User      auditlog.UserIDFilter
	Action    string
	TableName string
	IPAddress string
	StartDate time.Time
	EndDate   time.Time
	SortBy    string
	SortDir   string
	Limit     int
	Offset    int
}

// API is the read-only collaborator contract the engine consumes.
type API interface {
	ListLogs(ctx context.Context, q Query) (*auditlog.ResultPage, error)
	GetLog(ctx context.Context, id int64) (*auditlog.LogEntry, error)
	Statistics(ctx context.Context, days int) (*auditlog.Statistics, error)
	IPLocations(ctx context.Context) ([]auditlog.IPRollupRow, error)
	Directory(ctx context.Context, limit int) ([]users.User, error)
}

// Client wraps interactions with the admin log API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessionID  string
}

// NewClient constructs a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		sessionID: uuid.NewString(),
	}
}

// ListLogs fetches one filtered, sorted page.
func (c *Client) ListLogs(ctx context.Context, q Query) (*auditlog.ResultPage, error) {
	var page auditlog.ResultPage
	if err := c.get(ctx, "list logs", "/api/admin/logs?"+encodeQuery(q), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetLog fetches the fully hydrated entry.
func (c *Client) GetLog(ctx context.Context, id int64) (*auditlog.LogEntry, error) {
	var entry auditlog.LogEntry
	path := fmt.Sprintf("/api/admin/logs/%d", id)
	if err := c.get(ctx, "get log", path, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Statistics fetches aggregate counters for a trailing day window.
func (c *Client) Statistics(ctx context.Context, days int) (*auditlog.Statistics, error) {
	var stats auditlog.Statistics
	path := fmt.Sprintf("/api/admin/logs/statistics?days=%d", days)
	if err := c.get(ctx, "statistics", path, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// IPLocations fetches the per-IP rollup for the geo view.
func (c *Client) IPLocations(ctx context.Context) ([]auditlog.IPRollupRow, error) {
	var rows []auditlog.IPRollupRow
	if err := c.get(ctx, "ip locations", "/api/admin/logs/ip-locations", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Directory fetches the user directory for username resolution.
func (c *Client) Directory(ctx context.Context, limit int) ([]users.User, error) {
	var payload struct {
		Users []users.User `json:"users"`
	}
	path := fmt.Sprintf("/api/admin/users?limit=%d", limit)
	if err := c.get(ctx, "directory", path, &payload); err != nil {
		return nil, err
	}
	return payload.Users, nil
}

// ExportURL returns the CSV export address for the query. The download itself
// is an out-of-band browser navigation, never consumed programmatically.
func (c *Client) ExportURL(q Query) string {
	return c.baseURL + "/api/admin/logs/export?" + encodeQuery(q) + "&format=csv"
}

func (c *Client) get(ctx context.Context, op, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Browse-Session", c.sessionID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("browse: %s: %w", op, ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("browse: %s: %w", op, ErrNotFound)
	case resp.StatusCode >= 400:
		return &NetworkError{Op: op, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	if err := json.Unmarshal(body, target); err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	return nil
}

func encodeQuery(q Query) string {
	values := url.Values{}
	if q.User.Set {
		if q.User.Null {
			values.Set("user_id", "null")
		} else {
			values.Set("user_id", strconv.FormatInt(q.User.ID, 10))
		}
	}
	if q.Action != "" {
		values.Set("action", q.Action)
	}
	if q.TableName != "" {
		values.Set("table_name", q.TableName)
	}
	if q.IPAddress != "" {
		values.Set("ip_address", q.IPAddress)
	}
	if !q.StartDate.IsZero() {
		values.Set("start_date", q.StartDate.UTC().Format(time.RFC3339))
	}
	if !q.EndDate.IsZero() {
		values.Set("end_date", q.EndDate.UTC().Format(time.RFC3339))
	}
	if q.SortBy != "" {
		values.Set("sort_by", q.SortBy)
	}
	if q.SortDir != "" {
		values.Set("sort_direction", q.SortDir)
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}
	return values.Encode()
}
