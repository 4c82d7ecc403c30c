package browse

import (
	"testing"

	"github.com/sentinel-console/sentinel/internal/auditlog"
)

func rollup(counts ...int64) []auditlog.IPRollupRow {
	rows := make([]auditlog.IPRollupRow, 0, len(counts))
	for i, count := range counts {
		rows = append(rows, auditlog.IPRollupRow{
			IP:    string(rune('a'+i)) + ".example",
			Count: count,
		})
	}
	return rows
}

func TestTierThresholdsFromPercentiles(t *testing.T) {
	// Counts sorted descending are [50 40 30 20 10]: the high threshold sits
	// at index 1 (40) and the low threshold at index 3 (20).
	summaries := FromRollup(rollup(50, 40, 30, 20, 10))

	wantTiers := []SeverityTier{TierHigh, TierHigh, TierMedium, TierMedium, TierLow}
	for i, want := range wantTiers {
		if summaries[i].Tier != want {
			t.Fatalf("count %d: expected %s, got %s", summaries[i].Count, want, summaries[i].Tier)
		}
	}
}

func TestTierBoundaryValues(t *testing.T) {
	summaries := FromRollup(rollup(50, 45, 40, 30, 25, 20, 10, 5))
	byCount := make(map[int64]SeverityTier)
	for _, s := range summaries {
		byCount[s.Count] = s.Tier
	}
	// Thresholds here are 40 (index 2) and 10 (index 6): 45 is high, 25 sits
	// between them, 5 falls below both.
	if byCount[45] != TierHigh {
		t.Fatalf("45: expected high, got %s", byCount[45])
	}
	if byCount[25] != TierMedium {
		t.Fatalf("25: expected medium, got %s", byCount[25])
	}
	if byCount[5] != TierLow {
		t.Fatalf("5: expected low, got %s", byCount[5])
	}
}

func TestMarkerSizeScalesLinearly(t *testing.T) {
	summaries := FromRollup(rollup(100, 50, 0))
	if summaries[0].MarkerSize != 40 {
		t.Fatalf("busiest marker: expected 40, got %v", summaries[0].MarkerSize)
	}
	if summaries[1].MarkerSize != 24 {
		t.Fatalf("half marker: expected 24, got %v", summaries[1].MarkerSize)
	}
	if summaries[2].MarkerSize != 8 {
		t.Fatalf("idle marker: expected floor 8, got %v", summaries[2].MarkerSize)
	}
}

func TestAggregateGroupsByIPKeepingFirstCoordinates(t *testing.T) {
	entries := []auditlog.LogEntry{
		{IPAddress: "10.0.0.1"},
		{IPAddress: "10.0.0.2", GeoLocation: &auditlog.GeoLocation{City: "Jakarta", Lat: -6.2, Lon: 106.8}},
		{IPAddress: "10.0.0.1", GeoLocation: &auditlog.GeoLocation{City: "Bandung", Lat: -6.9, Lon: 107.6}},
		{IPAddress: "10.0.0.1", GeoLocation: &auditlog.GeoLocation{City: "Surabaya", Lat: -7.2, Lon: 112.7}},
		{IPAddress: ""},
	}
	summaries := Aggregate(entries)
	if len(summaries) != 2 {
		t.Fatalf("expected 2 IPs, got %d", len(summaries))
	}
	if summaries[0].IP != "10.0.0.1" || summaries[0].Count != 3 {
		t.Fatalf("expected 10.0.0.1 with count 3 first, got %s count %d", summaries[0].IP, summaries[0].Count)
	}
	// First entry had no geo, so the first known coordinates are Bandung's.
	if summaries[0].City != "Bandung" {
		t.Fatalf("expected first known city Bandung, got %s", summaries[0].City)
	}
	if summaries[1].City != "Jakarta" {
		t.Fatalf("expected Jakarta for 10.0.0.2, got %s", summaries[1].City)
	}
}

func TestClassifyEmptyInput(t *testing.T) {
	if got := FromRollup(nil); len(got) != 0 {
		t.Fatalf("expected no summaries, got %d", len(got))
	}
}
