package airquality

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// GridCell aggregates the records falling into one lat/lon cell for one
// pollutant, for map rendering.
type GridCell struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Pollutant Pollutant `json:"pollutant_type"`
	ValueMean float64   `json:"value_mean"`
	ValueStd  float64   `json:"value_std"`
	Count     int       `json:"count"`
	Timestamp string    `json:"timestamp"`
}

// AggregateByGrid snaps records to a grid of cellSizeDeg degrees and reports
// per-cell mean, population std, count and latest timestamp. Cells come back
// sorted by lat, lon, pollutant so output is stable.
func AggregateByGrid(records []HarmonizedRecord, cellSizeDeg float64) []GridCell {
	if cellSizeDeg <= 0 {
		cellSizeDeg = 0.1
	}

	type cellKey struct {
		lat, lon  float64
		pollutant Pollutant
	}
	type cellAgg struct {
		values []float64
		latest string
	}

	cells := make(map[cellKey]*cellAgg)
	for _, r := range records {
		if math.IsNaN(r.Value) {
			continue
		}
		key := cellKey{
			lat:       math.Round(r.Lat/cellSizeDeg) * cellSizeDeg,
			lon:       math.Round(r.Lon/cellSizeDeg) * cellSizeDeg,
			pollutant: r.Pollutant,
		}
		agg, ok := cells[key]
		if !ok {
			agg = &cellAgg{}
			cells[key] = agg
		}
		agg.values = append(agg.values, r.Value)
		ts := r.Timestamp.UTC().Format(time.RFC3339)
		if ts > agg.latest {
			agg.latest = ts
		}
	}

	out := make([]GridCell, 0, len(cells))
	for key, agg := range cells {
		mean := stat.Mean(agg.values, nil)
		out = append(out, GridCell{
			Lat:       key.lat,
			Lon:       key.lon,
			Pollutant: key.pollutant,
			ValueMean: mean,
			ValueStd:  popStdDev(agg.values, mean),
			Count:     len(agg.values),
			Timestamp: agg.latest,
		})
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].Lat != out[b].Lat {
			return out[a].Lat < out[b].Lat
		}
		if out[a].Lon != out[b].Lon {
			return out[a].Lon < out[b].Lon
		}
		return out[a].Pollutant < out[b].Pollutant
	})
	return out
}
