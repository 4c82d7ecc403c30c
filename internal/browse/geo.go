package browse

import (
	"sort"

	"github.com/sentinel-console/sentinel/internal/auditlog"
)

// SeverityTier classifies an IP's activity volume relative to the loaded
// batch.
type SeverityTier string

const (
	TierHigh   SeverityTier = "high"
	TierMedium SeverityTier = "medium"
	TierLow    SeverityTier = "low"
)

// Marker sizes are linear between a fixed floor and ceiling proportional to
// count/maxCount.
const (
	markerFloor   = 8.0
	markerCeiling = 40.0
)

// IPLocationSummary is one aggregated IP for the geo view.
type IPLocationSummary struct {
	IP         string
	City       string
	Region     string
	Country    string
	Lat        float64
	Lon        float64
	Count      int64
	Tier       SeverityTier
	MarkerSize float64
}

// Aggregate groups a batch of entries by IP, keeping the count and the first
// known coordinates per address, busiest first.
func Aggregate(entries []auditlog.LogEntry) []IPLocationSummary {
	byIP := make(map[string]*IPLocationSummary)
	var order []string
	for _, entry := range entries {
		if entry.IPAddress == "" {
			continue
		}
		summary, ok := byIP[entry.IPAddress]
		if !ok {
			summary = &IPLocationSummary{IP: entry.IPAddress}
			byIP[entry.IPAddress] = summary
			order = append(order, entry.IPAddress)
		}
		summary.Count++
		if summary.City == "" && entry.GeoLocation != nil {
			summary.City = entry.GeoLocation.City
			summary.Region = entry.GeoLocation.Region
			summary.Country = entry.GeoLocation.Country
			summary.Lat = entry.GeoLocation.Lat
			summary.Lon = entry.GeoLocation.Lon
		}
	}

	result := make([]IPLocationSummary, 0, len(order))
	for _, ip := range order {
		result = append(result, *byIP[ip])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	return classify(result)
}

// FromRollup adapts the backend per-IP rollup into summaries.
func FromRollup(rows []auditlog.IPRollupRow) []IPLocationSummary {
	result := make([]IPLocationSummary, 0, len(rows))
	for _, row := range rows {
		result = append(result, IPLocationSummary{
			IP:      row.IP,
			City:    row.City,
			Region:  row.Region,
			Country: row.Country,
			Lat:     row.Lat,
			Lon:     row.Lon,
			Count:   row.Count,
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	return classify(result)
}

// classify assigns severity tiers from percentile thresholds over the loaded
// batch and sizes markers. With counts sorted descending, the count at index
// floor(N*0.25) is the high threshold and the one at floor(N*0.75) the low
// threshold. This is a display heuristic over whatever batch happens to be
// loaded, not a normalized measure; it degenerates for small N and heavy
// ties.
func classify(sorted []IPLocationSummary) []IPLocationSummary {
	n := len(sorted)
	if n == 0 {
		return sorted
	}

	highThreshold := sorted[n/4].Count
	lowThreshold := sorted[(n*3)/4].Count
	maxCount := sorted[0].Count

	for i := range sorted {
		switch {
		case sorted[i].Count >= highThreshold:
			sorted[i].Tier = TierHigh
		case sorted[i].Count >= lowThreshold:
			sorted[i].Tier = TierMedium
		default:
			sorted[i].Tier = TierLow
		}
		if maxCount > 0 {
			ratio := float64(sorted[i].Count) / float64(maxCount)
			sorted[i].MarkerSize = markerFloor + (markerCeiling-markerFloor)*ratio
		} else {
			sorted[i].MarkerSize = markerFloor
		}
	}
	return sorted
}
