package airquality

import (
	"math"
	"testing"
	"time"
)

// TestHarmonizeAllEmpty verifies that an empty batch harmonizes to an empty
// batch.
func TestHarmonizeAllEmpty(t *testing.T) {
	h := NewHarmonizer()
	records := h.HarmonizeAll(nil, nil, nil)
	if len(records) != 0 {
		t.Fatalf("expected empty output, got %d records", len(records))
	}
}

// TestHarmonizeAllDropsMalformed verifies that records with missing or
// unparseable timestamps, or unknown pollutants, are dropped while the rest
// of the batch survives.
func TestHarmonizeAllDropsMalformed(t *testing.T) {
	h := NewHarmonizer()

	ground := []RawMeasurement{
		{Timestamp: "", Pollutant: "pm25", Value: 10, Unit: UnitUgM3},
		{Timestamp: "not-a-time", Pollutant: "pm25", Value: 11, Unit: UnitUgM3},
		{Timestamp: "2026-03-01T10:00:00Z", Pollutant: "unobtainium", Value: 12, Unit: UnitUgM3},
		{Timestamp: "2026-03-01T10:00:00Z", Pollutant: "pm25", Value: 13, Unit: UnitUgM3},
	}

	records := h.HarmonizeAll(nil, ground, nil)
	if len(records) != 1 {
		t.Fatalf("expected 1 surviving record, got %d", len(records))
	}
	if records[0].Value != 13 {
		t.Fatalf("expected the valid record to survive, got value %v", records[0].Value)
	}
}

// TestHarmonizeSatelliteDefaults verifies satellite mapping defaults and the
// canonical schema fields.
func TestHarmonizeSatelliteDefaults(t *testing.T) {
	h := NewHarmonizer()

	satellite := []RawMeasurement{
		{Timestamp: "2026-03-01 10:30:00", Lat: 34.0, Lon: -118.0, Pollutant: "no2", Value: 40.5},
	}

	records := h.HarmonizeAll(satellite, nil, nil)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.Source != "TEMPO" {
		t.Fatalf("expected default source TEMPO, got %q", r.Source)
	}
	if r.QualityFlag != "unknown" {
		t.Fatalf("expected default quality flag, got %q", r.QualityFlag)
	}
	if r.DataType != DataTypeSatellite {
		t.Fatalf("expected satellite data type, got %q", r.DataType)
	}
	if r.SpatialResolution != "high" {
		t.Fatalf("expected high spatial resolution, got %q", r.SpatialResolution)
	}
	if r.Pollutant != NO2 {
		t.Fatalf("expected NO2, got %q", r.Pollutant)
	}
	want := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	if !r.Timestamp.Equal(want) {
		t.Fatalf("expected timestamp %v, got %v", want, r.Timestamp)
	}
}

// TestHarmonizeGroundUnitConversion verifies that ground values are
// normalized to µg/m³ and source-reported metadata survives.
func TestHarmonizeGroundUnitConversion(t *testing.T) {
	h := NewHarmonizer()

	aqi := 42
	ground := []RawMeasurement{
		{
			Timestamp: "2026-03-01T10:00:00Z",
			Pollutant: "no2",
			Value:     10,
			Unit:      "ppb",
			City:      "Los Angeles",
			Location:  "Main St",
			AQI:       &aqi,
		},
	}

	records := h.HarmonizeAll(nil, ground, nil)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if math.Abs(r.Value-18.8) > 1e-9 {
		t.Fatalf("expected 18.8 µg/m³, got %v", r.Value)
	}
	if r.Source != "Ground" {
		t.Fatalf("expected default source Ground, got %q", r.Source)
	}
	if r.City != "Los Angeles" || r.Location != "Main St" {
		t.Fatalf("expected city/location preserved, got %q/%q", r.City, r.Location)
	}
	if r.AQI == nil || *r.AQI != 42 {
		t.Fatalf("expected source AQI preserved")
	}
}

// TestEnrichWithWeather verifies the distance gate and the tie-break: the
// nearest sample inside 0.5 degrees wins, the first one on exact ties.
func TestEnrichWithWeather(t *testing.T) {
	h := NewHarmonizer()

	ground := []RawMeasurement{
		{Timestamp: "2026-03-01T10:00:00Z", Lat: 34.0, Lon: -118.0, Pollutant: "pm25", Value: 10, Unit: UnitUgM3},
		{Timestamp: "2026-03-01T10:00:00Z", Lat: 50.0, Lon: 0.0, Pollutant: "pm25", Value: 12, Unit: UnitUgM3},
	}
	weather := []WeatherSample{
		{Lat: 34.1, Lon: -118.1, Temperature: 21},
		{Lat: 33.9, Lon: -117.9, Temperature: 25}, // same distance as the first
	}

	records := h.HarmonizeAll(nil, ground, weather)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	if records[0].Weather == nil {
		t.Fatalf("expected weather context on the nearby record")
	}
	if records[0].Weather.Temperature != 21 {
		t.Fatalf("expected first equidistant sample to win, got temperature %v", records[0].Weather.Temperature)
	}
	if records[1].Weather != nil {
		t.Fatalf("expected no weather context outside the gate")
	}
}

// TestFillMissingValues verifies forward fill then backward fill over the
// value column in timestamp order.
func TestFillMissingValues(t *testing.T) {
	h := NewHarmonizer()

	ground := []RawMeasurement{
		{Timestamp: "2026-03-01T10:00:00Z", Pollutant: "pm25", Value: math.NaN(), Unit: UnitUgM3},
		{Timestamp: "2026-03-01T11:00:00Z", Pollutant: "pm25", Value: 20, Unit: UnitUgM3},
		{Timestamp: "2026-03-01T12:00:00Z", Pollutant: "pm25", Value: math.NaN(), Unit: UnitUgM3},
		{Timestamp: "2026-03-01T13:00:00Z", Pollutant: "pm25", Value: 30, Unit: UnitUgM3},
	}

	records := h.HarmonizeAll(nil, ground, nil)
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}

	// Leading gap backward-fills from the first observed value.
	if records[0].Value != 20 {
		t.Fatalf("expected leading gap filled with 20, got %v", records[0].Value)
	}
	// Interior gap forward-fills from the previous value.
	if records[2].Value != 20 {
		t.Fatalf("expected interior gap filled with 20, got %v", records[2].Value)
	}
	if records[1].Value != 20 || records[3].Value != 30 {
		t.Fatalf("expected observed values untouched, got %v and %v", records[1].Value, records[3].Value)
	}
}
