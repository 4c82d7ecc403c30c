package auditlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("log entry not found")
	ErrInvalidFilter = errors.New("invalid filter")
)

// sortColumns whitelists ORDER BY targets. Values are the literal column
// expressions; the filter value is never interpolated directly.
var sortColumns = map[string]string{
	"created_at":  "created_at",
	"action":      "action",
	"user_id":     "user_id",
	"table_name":  "table_name",
	"ip_address":  "ip_address",
	"status_code": "status_code",
}

// Repository provides PostgreSQL backed persistence for audit log reads and
// the recorder insert path.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const summaryColumns = `id, created_at, user_id, action, table_name, record_id, status_code, ip_address,
	geo_city, geo_region, geo_country, geo_lat, geo_lon`

const detailColumns = summaryColumns + `,
	device_browser, device_os, device_name, details, error_message`

// List returns one page of summary entries plus the filter-wide total.
func (r *Repository) List(ctx context.Context, f ListFilter) (*ResultPage, error) {
	where, args := buildWhere(f)

	var total int
	countQuery := "SELECT COUNT(*) FROM audit_logs" + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("auditlog: count: %w", err)
	}

	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(f.SortDir, "asc") {
		direction = "ASC"
	}

	query := fmt.Sprintf(
		"SELECT %s FROM audit_logs%s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d",
		summaryColumns, where, column, direction, direction, len(args)+1, len(args)+2,
	)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("auditlog: list: %w", err)
	}
	defer rows.Close()

	entries := make([]LogEntry, 0, f.Limit)
	for rows.Next() {
		entry, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("auditlog: scan: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auditlog: rows: %w", err)
	}

	return &ResultPage{Entries: entries, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// GetByID returns the fully hydrated entry.
func (r *Repository) GetByID(ctx context.Context, id int64) (*LogEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM audit_logs WHERE id = $1", detailColumns)
	row := r.pool.QueryRow(ctx, query, id)
	entry, err := scanDetail(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("auditlog: get %d: %w", id, err)
	}
	return entry, nil
}

// Statistics aggregates counters over the trailing day window.
func (r *Repository) Statistics(ctx context.Context, days int) (*Statistics, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	stats := &Statistics{Days: days, ByAction: make(map[string]int64)}
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(DISTINCT ip_address) FILTER (WHERE ip_address <> ''),
		       COUNT(*) FILTER (WHERE status_code >= 400 OR error_message <> '')
		FROM audit_logs WHERE created_at >= $1`, since).
		Scan(&stats.Total, &stats.UniqueIPs, &stats.FailedActions)
	if err != nil {
		return nil, fmt.Errorf("auditlog: statistics: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT action, COUNT(*) FROM audit_logs
		WHERE created_at >= $1 GROUP BY action`, since)
	if err != nil {
		return nil, fmt.Errorf("auditlog: statistics by action: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var action string
		var count int64
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("auditlog: statistics scan: %w", err)
		}
		stats.ByAction[action] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auditlog: statistics rows: %w", err)
	}
	return stats, nil
}

// IPRollup groups entries by IP with count and first-known coordinates,
// busiest addresses first, capped at 500 rows.
func (r *Repository) IPRollup(ctx context.Context) ([]IPRollupRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ip_address,
		       MIN(geo_city), MIN(geo_region), MIN(geo_country),
		       MIN(geo_lat), MIN(geo_lon),
		       COUNT(*)
		FROM audit_logs
		WHERE ip_address <> ''
		GROUP BY ip_address
		ORDER BY COUNT(*) DESC
		LIMIT 500`)
	if err != nil {
		return nil, fmt.Errorf("auditlog: ip rollup: %w", err)
	}
	defer rows.Close()

	var result []IPRollupRow
	for rows.Next() {
		var row IPRollupRow
		var city, region, country *string
		var lat, lon *float64
		if err := rows.Scan(&row.IP, &city, &region, &country, &lat, &lon, &row.Count); err != nil {
			return nil, fmt.Errorf("auditlog: ip rollup scan: %w", err)
		}
		row.City = deref(city)
		row.Region = deref(region)
		row.Country = deref(country)
		if lat != nil {
			row.Lat = *lat
		}
		if lon != nil {
			row.Lon = *lon
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auditlog: ip rollup rows: %w", err)
	}
	return result, nil
}

// Insert persists one record. Used by the recorder only; the browsing surface
// never writes.
func (r *Repository) Insert(ctx context.Context, rec Record) error {
	details := []byte("{}")
	if rec.Details != nil {
		encoded, err := json.Marshal(rec.Details)
		if err != nil {
			return fmt.Errorf("auditlog: encode details: %w", err)
		}
		details = encoded
	}
	at := rec.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (created_at, user_id, action, table_name, record_id, status_code, ip_address, details, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		at, rec.UserID, rec.Action, rec.TableName, rec.RecordID, rec.StatusCode, rec.IPAddress, details, rec.ErrorMessage)
	if err != nil {
		return fmt.Errorf("auditlog: insert: %w", err)
	}
	return nil
}

func buildWhere(f ListFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.UserID.Set {
		if f.UserID.Null {
			clauses = append(clauses, "user_id IS NULL")
		} else {
			args = append(args, f.UserID.ID)
			clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
		}
	}
	if f.Action != "" {
		args = append(args, f.Action)
		clauses = append(clauses, fmt.Sprintf("action = $%d", len(args)))
	}
	if f.TableName != "" {
		args = append(args, f.TableName)
		clauses = append(clauses, fmt.Sprintf("table_name = $%d", len(args)))
	}
	if f.IPAddress != "" {
		args = append(args, f.IPAddress)
		clauses = append(clauses, fmt.Sprintf("ip_address = $%d", len(args)))
	}
	if !f.StartDate.IsZero() {
		args = append(args, f.StartDate)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !f.EndDate.IsZero() {
		args = append(args, f.EndDate)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanSummary(row pgx.Row) (LogEntry, error) {
	var e LogEntry
	var tableName, recordID, ip *string
	var statusCode *int
	var city, region, country *string
	var lat, lon *float64
	err := row.Scan(&e.ID, &e.CreatedAt, &e.UserID, &e.Action, &tableName, &recordID, &statusCode, &ip,
		&city, &region, &country, &lat, &lon)
	if err != nil {
		return LogEntry{}, err
	}
	e.TableName = deref(tableName)
	e.RecordID = deref(recordID)
	e.IPAddress = deref(ip)
	if statusCode != nil {
		e.StatusCode = *statusCode
	}
	e.GeoLocation = buildGeo(city, region, country, lat, lon)
	return e, nil
}

func scanDetail(row pgx.Row) (*LogEntry, error) {
	var e LogEntry
	var tableName, recordID, ip *string
	var statusCode *int
	var city, region, country *string
	var lat, lon *float64
	var browser, osName, device *string
	var details []byte
	var errorMessage *string
	err := row.Scan(&e.ID, &e.CreatedAt, &e.UserID, &e.Action, &tableName, &recordID, &statusCode, &ip,
		&city, &region, &country, &lat, &lon,
		&browser, &osName, &device, &details, &errorMessage)
	if err != nil {
		return nil, err
	}
	e.TableName = deref(tableName)
	e.RecordID = deref(recordID)
	e.IPAddress = deref(ip)
	if statusCode != nil {
		e.StatusCode = *statusCode
	}
	e.GeoLocation = buildGeo(city, region, country, lat, lon)
	if browser != nil || osName != nil || device != nil {
		e.DeviceInfo = &DeviceInfo{Browser: deref(browser), OS: deref(osName), Device: deref(device)}
	}
	if len(details) > 0 {
		e.Details = json.RawMessage(details)
	}
	e.ErrorMessage = deref(errorMessage)
	return &e, nil
}

func buildGeo(city, region, country *string, lat, lon *float64) *GeoLocation {
	if city == nil && region == nil && country == nil && lat == nil && lon == nil {
		return nil
	}
	geo := &GeoLocation{City: deref(city), Region: deref(region), Country: deref(country)}
	if lat != nil {
		geo.Lat = *lat
	}
	if lon != nil {
		geo.Lon = *lon
	}
	return geo
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
