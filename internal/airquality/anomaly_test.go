package airquality

import (
	"math"
	"testing"
)

func pmRecords(values ...float64) []HarmonizedRecord {
	records := make([]HarmonizedRecord, len(values))
	for i, v := range values {
		records[i] = HarmonizedRecord{Pollutant: PM25, Value: v}
	}
	return records
}

// TestFlagAnomaliesSmallPartition verifies that partitions with two or fewer
// samples never flag anything.
func TestFlagAnomaliesSmallPartition(t *testing.T) {
	out := FlagAnomalies(pmRecords(10, 1000), DefaultZThreshold)
	for _, r := range out {
		if r.IsAnomaly {
			t.Fatalf("expected no anomalies in a 2-sample partition")
		}
		if r.ZScore != 0 {
			t.Fatalf("expected zero z-score, got %v", r.ZScore)
		}
	}
}

// TestFlagAnomaliesZeroVariance verifies that identical values are never
// flagged.
func TestFlagAnomaliesZeroVariance(t *testing.T) {
	out := FlagAnomalies(pmRecords(10, 10, 10, 10, 10), DefaultZThreshold)
	for _, r := range out {
		if r.IsAnomaly || r.ZScore != 0 {
			t.Fatalf("expected no flags for zero-variance partition, got %+v", r)
		}
	}
}

// TestFlagAnomaliesOutlier verifies z-score flagging against a hand-computed
// case: nine 10s and one 200 give the outlier z = 3.0 exactly.
func TestFlagAnomaliesOutlier(t *testing.T) {
	values := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 200}
	out := FlagAnomalies(pmRecords(values...), 2.5)

	flagged := 0
	for i, r := range out {
		if r.IsAnomaly {
			flagged++
			if values[i] != 200 {
				t.Fatalf("flagged the wrong record: index %d value %v", i, values[i])
			}
			if math.Abs(r.ZScore-3.0) > 1e-9 {
				t.Fatalf("expected z-score 3.0 for the outlier, got %v", r.ZScore)
			}
		}
	}
	if flagged != 1 {
		t.Fatalf("expected exactly 1 anomaly, got %d", flagged)
	}
}

// TestFlagAnomaliesPerPollutant verifies that partitions are scored
// independently: an O3 pair never pollutes the PM2.5 statistics.
func TestFlagAnomaliesPerPollutant(t *testing.T) {
	records := pmRecords(10, 10, 10, 10, 10, 10, 10, 10, 10, 200)
	records = append(records,
		HarmonizedRecord{Pollutant: O3, Value: 5},
		HarmonizedRecord{Pollutant: O3, Value: 50000},
	)

	out := FlagAnomalies(records, 2.5)
	for _, r := range out {
		if r.Pollutant == O3 && r.IsAnomaly {
			t.Fatalf("expected no flags in the 2-sample O3 partition")
		}
	}
}

// TestFlagAnomaliesDoesNotMutateInput verifies the input slice is untouched.
func TestFlagAnomaliesDoesNotMutateInput(t *testing.T) {
	records := pmRecords(10, 10, 10, 10, 10, 10, 10, 10, 10, 200)
	_ = FlagAnomalies(records, 2.5)
	for _, r := range records {
		if r.IsAnomaly || r.ZScore != 0 {
			t.Fatalf("input slice was mutated: %+v", r)
		}
	}
}
