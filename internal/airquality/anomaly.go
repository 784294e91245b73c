package airquality

import (
	"log"
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultZThreshold is the z-score above which a value is flagged anomalous.
const DefaultZThreshold = 3.0

// FlagAnomalies marks per-pollutant outliers using z-scores against the
// partition's population standard deviation. Partitions with two or fewer
// samples, or zero variance, never flag anything; there is no meaningful
// spread to score against. Returns a new slice; the input is not mutated.
func FlagAnomalies(records []HarmonizedRecord, zThreshold float64) []HarmonizedRecord {
	if zThreshold <= 0 {
		zThreshold = DefaultZThreshold
	}

	out := make([]HarmonizedRecord, len(records))
	copy(out, records)

	byPollutant := make(map[Pollutant][]int)
	for i, r := range out {
		out[i].ZScore = 0
		out[i].IsAnomaly = false
		if math.IsNaN(r.Value) {
			continue
		}
		byPollutant[r.Pollutant] = append(byPollutant[r.Pollutant], i)
	}

	flagged := 0
	for _, indices := range byPollutant {
		if len(indices) <= 2 {
			continue
		}

		values := make([]float64, len(indices))
		for j, idx := range indices {
			values[j] = out[idx].Value
		}
		mean := stat.Mean(values, nil)
		std := popStdDev(values, mean)
		if std <= 0 {
			continue
		}

		for _, idx := range indices {
			z := math.Abs(out[idx].Value-mean) / std
			out[idx].ZScore = z
			if z > zThreshold {
				out[idx].IsAnomaly = true
				flagged++
			}
		}
	}

	log.Printf("anomaly: flagged %d of %d records", flagged, len(out))
	return out
}
