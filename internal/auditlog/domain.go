package auditlog

import (
	"encoding/json"
	"time"
)

// Action values recorded in the audit trail.
const (
	ActionCreate            = "CREATE"
	ActionRead              = "READ"
	ActionUpdate            = "UPDATE"
	ActionDelete            = "DELETE"
	ActionLoginAttempt      = "LOGIN_ATTEMPT"
	ActionNetworkAccess     = "NETWORK_ACCESS"
	ActionAdminAccess       = "ADMIN_ACCESS"
	ActionAdminAccessDenied = "ADMIN_ACCESS_DENIED"
)

// GeoLocation carries pre-resolved coordinates for an IP address.
type GeoLocation struct {
	City    string  `json:"city"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// DeviceInfo describes the client that triggered the action.
type DeviceInfo struct {
	Browser string `json:"browser"`
	OS      string `json:"os"`
	Device  string `json:"device"`
}

// LogEntry is one recorded system action. UserID nil means the request had no
// resolved actor identity. Details, DeviceInfo and ErrorMessage are only
// hydrated on the detail form.
type LogEntry struct {
	ID           int64           `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	UserID       *int64          `json:"user_id"`
	Action       string          `json:"action"`
	TableName    string          `json:"table_name,omitempty"`
	RecordID     string          `json:"record_id,omitempty"`
	StatusCode   int             `json:"status_code,omitempty"`
	IPAddress    string          `json:"ip_address,omitempty"`
	GeoLocation  *GeoLocation    `json:"geo_location,omitempty"`
	DeviceInfo   *DeviceInfo     `json:"device_info,omitempty"`
	Details      json.RawMessage `json:"details,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// UserIDFilter is the tri-state actor filter: unset, explicitly
// unauthenticated (the literal null token), or a concrete id.
type UserIDFilter struct {
	Set  bool
	Null bool
	ID   int64
}

// ListFilter selects and orders one page of log entries.
type ListFilter struct {
	UserID    UserIDFilter
	Action    string    `validate:"omitempty,oneof=CREATE READ UPDATE DELETE LOGIN_ATTEMPT NETWORK_ACCESS ADMIN_ACCESS ADMIN_ACCESS_DENIED"`
	TableName string    `validate:"omitempty,max=128"`
	IPAddress string    `validate:"omitempty,max=64"`
	StartDate time.Time
	EndDate   time.Time
	SortBy    string `validate:"omitempty,oneof=created_at action user_id table_name ip_address status_code"`
	SortDir   string `validate:"omitempty,oneof=asc desc"`
	Limit     int    `validate:"omitempty,min=1,max=500"`
	Offset    int    `validate:"omitempty,min=0"`
}

// ResultPage is one page of summary entries. Entries are replaced wholesale on
// every query.
type ResultPage struct {
	Entries []LogEntry `json:"logs"`
	Total   int        `json:"total"`
	Limit   int        `json:"limit"`
	Offset  int        `json:"offset"`
}

// Statistics aggregates counters over a trailing day window.
type Statistics struct {
	Days          int              `json:"days"`
	Total         int64            `json:"total"`
	UniqueIPs     int64            `json:"unique_ips"`
	FailedActions int64            `json:"failed_actions"`
	ByAction      map[string]int64 `json:"by_action"`
}

// IPRollupRow is the per-IP aggregate served by /api/admin/logs/ip-locations.
type IPRollupRow struct {
	IP      string  `json:"ip"`
	City    string  `json:"city"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Count   int64   `json:"count"`
}

// Record is the write-path payload used by the recorder.
type Record struct {
	UserID       *int64
	Action       string
	TableName    string
	RecordID     string
	StatusCode   int
	IPAddress    string
	Details      map[string]any
	ErrorMessage string
	At           time.Time
}
