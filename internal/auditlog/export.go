package auditlog

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
)

// exportPageSize bounds repository round-trips while streaming an export.
const exportPageSize = 500

// ExportCSV writes every entry matching the filter as CSV, walking the listing
// page by page so exports are not bounded by the API page cap.
func (s *Service) ExportCSV(ctx context.Context, f ListFilter) ([]byte, error) {
	if s.store == nil {
		return nil, fmt.Errorf("auditlog: store not configured")
	}
	f = clamp(f)
	f.Limit = exportPageSize
	f.Offset = 0
	if err := s.validate.Struct(f); err != nil {
		return nil, fmt.Errorf("auditlog: %w: %w", ErrInvalidFilter, err)
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	header := []string{"id", "created_at", "user_id", "action", "table_name", "record_id", "status_code", "ip_address", "city", "country"}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for {
		page, err := s.store.List(ctx, f)
		if err != nil {
			return nil, err
		}
		for _, entry := range page.Entries {
			if err := writer.Write(csvRow(entry)); err != nil {
				return nil, err
			}
		}
		if f.Offset+len(page.Entries) >= page.Total || len(page.Entries) == 0 {
			break
		}
		f.Offset += exportPageSize
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func csvRow(e LogEntry) []string {
	userID := ""
	if e.UserID != nil {
		userID = strconv.FormatInt(*e.UserID, 10)
	}
	statusCode := ""
	if e.StatusCode != 0 {
		statusCode = strconv.Itoa(e.StatusCode)
	}
	city, country := "", ""
	if e.GeoLocation != nil {
		city = e.GeoLocation.City
		country = e.GeoLocation.Country
	}
	return []string{
		strconv.FormatInt(e.ID, 10),
		e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		userID,
		e.Action,
		e.TableName,
		e.RecordID,
		statusCode,
		e.IPAddress,
		city,
		country,
	}
}
