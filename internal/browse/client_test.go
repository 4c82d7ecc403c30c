package browse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sentinel-console/sentinel/internal/auditlog"
)

func TestListLogsSendsFiltersAndSessionHeader(t *testing.T) {
	var gotQuery map[string][]string
	var gotSession string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotSession = r.Header.Get("X-Browse-Session")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"logs":[{"id":7,"action":"LOGIN"}],"total":1,"limit":50,"offset":0}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	page, err := client.ListLogs(context.Background(), Query{
		User:    auditlog.UserIDFilter{Set: true, Null: true},
		Action:  "LOGIN",
		SortBy:  "created_at",
		SortDir: "desc",
		Limit:   50,
	})
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(page.Entries) != 1 || page.Entries[0].ID != 7 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if got := gotQuery["user_id"]; len(got) != 1 || got[0] != "null" {
		t.Fatalf("expected the literal null token, got %v", got)
	}
	if got := gotQuery["action"]; len(got) != 1 || got[0] != "LOGIN" {
		t.Fatalf("expected action filter, got %v", got)
	}
	if gotSession == "" {
		t.Fatalf("expected a session header on every request")
	}
}

func TestEncodeQueryOmitsUnsetFields(t *testing.T) {
	encoded := encodeQuery(Query{Action: "CREATE", Limit: 50})
	if strings.Contains(encoded, "user_id") {
		t.Fatalf("unset user filter must be omitted: %s", encoded)
	}
	if strings.Contains(encoded, "start_date") || strings.Contains(encoded, "offset") {
		t.Fatalf("zero fields must be omitted: %s", encoded)
	}

	encoded = encodeQuery(Query{
		User:      auditlog.UserIDFilter{Set: true, ID: 42},
		StartDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Offset:    100,
	})
	if !strings.Contains(encoded, "user_id=42") {
		t.Fatalf("expected the id literal: %s", encoded)
	}
	if !strings.Contains(encoded, "offset=100") {
		t.Fatalf("expected the offset: %s", encoded)
	}
}

func TestClientClassifiesRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetLog(context.Background(), 7)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestClientClassifiesNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetLog(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClientWrapsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.ListLogs(context.Background(), Query{})
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if netErr.Status != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", netErr.Status)
	}
}

func TestExportURLCarriesFormatAndFilters(t *testing.T) {
	client := NewClient("http://console.local")
	url := client.ExportURL(Query{Action: "DELETE"})
	if !strings.HasPrefix(url, "http://console.local/api/admin/logs/export?") {
		t.Fatalf("unexpected export url: %s", url)
	}
	if !strings.Contains(url, "action=DELETE") || !strings.Contains(url, "format=csv") {
		t.Fatalf("export url missing parameters: %s", url)
	}
}

func TestDirectoryUnwrapsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"users":[{"id":7,"username":"budi"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	directory, err := client.Directory(context.Background(), 100)
	if err != nil {
		t.Fatalf("directory: %v", err)
	}
	if len(directory) != 1 || directory[0].Username != "budi" {
		t.Fatalf("unexpected directory: %+v", directory)
	}
}
