package airquality

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"
)

// weatherMatchMaxDegrees is the planar-degree gate for attaching a weather
// sample to a record. No temporal matching happens here; the nearest sample
// in space wins regardless of age. Documented approximation.
const weatherMatchMaxDegrees = 0.5

// timestampLayouts are tried in order when standardizing source timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Harmonizer turns heterogeneous raw measurements into the canonical schema:
// UTC timestamps, µg/m³ values, typed pollutants, weather enrichment and
// batch-scoped missing-value filling.
type Harmonizer struct {
	weatherMaxDeg float64
}

func NewHarmonizer() *Harmonizer {
	return &Harmonizer{weatherMaxDeg: weatherMatchMaxDegrees}
}

// HarmonizeAll maps satellite and ground records to the canonical schema,
// enriches them with the nearest weather sample and fills missing values.
// Each record fails independently: a bad record is dropped and logged, the
// batch continues. Deterministic given fixed input.
func (h *Harmonizer) HarmonizeAll(satellite, ground []RawMeasurement, weather []WeatherSample) []HarmonizedRecord {
	records := make([]HarmonizedRecord, 0, len(satellite)+len(ground))

	for _, m := range satellite {
		rec, err := h.harmonizeSatellite(m)
		if err != nil {
			log.Printf("harmonizer: dropping satellite record: %v", err)
			continue
		}
		records = append(records, rec)
	}

	for _, m := range ground {
		rec, err := h.harmonizeGround(m)
		if err != nil {
			log.Printf("harmonizer: dropping ground record: %v", err)
			continue
		}
		records = append(records, rec)
	}

	h.enrichWithWeather(records, weather)
	fillMissingValues(records)

	log.Printf("harmonizer: produced %d records (%d satellite, %d ground in)",
		len(records), len(satellite), len(ground))
	return records
}

// harmonizeSatellite maps a satellite column retrieval onto the canonical
// schema. Satellite values are already reported in µg/m³.
func (h *Harmonizer) harmonizeSatellite(m RawMeasurement) (HarmonizedRecord, error) {
	ts, err := standardizeTimestamp(m.Timestamp)
	if err != nil {
		return HarmonizedRecord{}, err
	}

	pollutant, ok := ParsePollutant(m.Pollutant)
	if !ok {
		return HarmonizedRecord{}, fmt.Errorf("unknown pollutant %q", m.Pollutant)
	}

	value, _ := NormalizeValue(pollutant, m.Value, UnitUgM3)

	source := m.Source
	if source == "" {
		source = "TEMPO"
	}

	qualityFlag := m.QualityFlag
	if qualityFlag == "" {
		qualityFlag = "unknown"
	}

	return HarmonizedRecord{
		Timestamp:         ts,
		Lat:               m.Lat,
		Lon:               m.Lon,
		Pollutant:         pollutant,
		Value:             value,
		Source:            source,
		DataType:          DataTypeSatellite,
		SpatialResolution: "high",
		QualityFlag:       qualityFlag,
		Uncertainty:       m.Uncertainty,
	}, nil
}

// harmonizeGround maps a ground-station point reading onto the canonical
// schema, normalizing its unit and preserving source-reported AQI, city and
// station location.
func (h *Harmonizer) harmonizeGround(m RawMeasurement) (HarmonizedRecord, error) {
	ts, err := standardizeTimestamp(m.Timestamp)
	if err != nil {
		return HarmonizedRecord{}, err
	}

	pollutant, ok := ParsePollutant(m.Pollutant)
	if !ok {
		return HarmonizedRecord{}, fmt.Errorf("unknown pollutant %q", m.Pollutant)
	}

	unit := m.Unit
	if unit == "" {
		unit = UnitUgM3
	}
	value, _ := NormalizeValue(pollutant, m.Value, unit)

	source := m.Source
	if source == "" {
		source = "Ground"
	}

	return HarmonizedRecord{
		Timestamp:         ts,
		Lat:               m.Lat,
		Lon:               m.Lon,
		Pollutant:         pollutant,
		Value:             value,
		Source:            source,
		DataType:          DataTypeGround,
		SpatialResolution: "point",
		City:              m.City,
		Location:          m.Location,
		AQI:               m.AQI,
	}, nil
}

// standardizeTimestamp parses a source timestamp and converts it to UTC.
// A missing or unparseable timestamp makes the record malformed; inventing a
// wall-clock time here would break determinism.
func standardizeTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// enrichWithWeather attaches the nearest weather sample to each record when
// one lies within the planar-degree gate. Ties are broken by input order:
// only a strictly closer sample replaces the current best.
func (h *Harmonizer) enrichWithWeather(records []HarmonizedRecord, weather []WeatherSample) {
	if len(weather) == 0 {
		return
	}

	for i := range records {
		best := -1
		bestDist := h.weatherMaxDeg
		for j, w := range weather {
			d := planarDegrees(records[i].Lat, records[i].Lon, w.Lat, w.Lon)
			if d < bestDist {
				best = j
				bestDist = d
			}
		}
		if best < 0 {
			continue
		}
		w := weather[best]
		records[i].Weather = &WeatherContext{
			Temperature:   w.Temperature,
			Humidity:      w.Humidity,
			WindSpeed:     w.WindSpeed,
			WindDirection: w.WindDirection,
			Pressure:      w.Pressure,
		}
	}
}

// fillMissingValues runs a batch-scoped forward fill then backward fill over
// the value column, in timestamp order. A column that is missing everywhere
// stays missing.
func fillMissingValues(records []HarmonizedRecord) {
	if len(records) == 0 {
		return
	}

	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return records[order[a]].Timestamp.Before(records[order[b]].Timestamp)
	})

	// Forward fill.
	last := math.NaN()
	for _, idx := range order {
		if math.IsNaN(records[idx].Value) {
			records[idx].Value = last
		} else {
			last = records[idx].Value
		}
	}

	// Backward fill for leading gaps.
	next := math.NaN()
	for i := len(order) - 1; i >= 0; i-- {
		idx := order[i]
		if math.IsNaN(records[idx].Value) {
			records[idx].Value = next
		} else {
			next = records[idx].Value
		}
	}
}
