package airquality

import (
	"strings"
	"time"
)

// Pollutant identifies a canonical pollutant species tracked by the system.
type Pollutant string

const (
	PM25 Pollutant = "PM2.5"
	PM10 Pollutant = "PM10"
	O3   Pollutant = "O3"
	NO2  Pollutant = "NO2"
	CO   Pollutant = "CO"
	SO2  Pollutant = "SO2"
	HCHO Pollutant = "HCHO"
)

// Pollutants lists every canonical pollutant, in a stable order.
var Pollutants = []Pollutant{PM25, PM10, O3, NO2, CO, SO2, HCHO}

// ParsePollutant maps source-specific pollutant spellings (e.g. "pm25",
// "no2", "formaldehyde") onto the canonical enum. ok is false when the
// name cannot be mapped.
func ParsePollutant(s string) (Pollutant, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pm2.5", "pm25", "pm2_5":
		return PM25, true
	case "pm10":
		return PM10, true
	case "o3", "ozone":
		return O3, true
	case "no2", "nitrogendioxide", "nitrogen dioxide":
		return NO2, true
	case "co", "carbonmonoxide", "carbon monoxide":
		return CO, true
	case "so2", "sulphurdioxide", "sulfur dioxide":
		return SO2, true
	case "hcho", "formaldehyde":
		return HCHO, true
	}
	return "", false
}

// DataType distinguishes satellite column retrievals from ground point readings.
type DataType string

const (
	DataTypeSatellite DataType = "satellite"
	DataTypeGround    DataType = "ground"
)

// RawMeasurement is the shape ingestion collaborators hand to the core.
// Timestamps arrive as source-formatted strings and are standardized by the
// harmonizer. A NaN Value means the source reported no value.
type RawMeasurement struct {
	Timestamp   string   `json:"timestamp"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	Pollutant   string   `json:"pollutant_type"`
	Value       float64  `json:"value"`
	Unit        string   `json:"unit"`
	Source      string   `json:"source"`
	QualityFlag string   `json:"quality_flag,omitempty"`
	Uncertainty *float64 `json:"uncertainty,omitempty"`
	AQI         *int     `json:"aqi,omitempty"`
	City        string   `json:"city,omitempty"`
	Location    string   `json:"location,omitempty"`
}

// WeatherSample is a read-only weather reference point. It is never owned by
// a harmonized record; enrichment copies the relevant fields instead.
type WeatherSample struct {
	Timestamp     time.Time `json:"timestamp"`
	Lat           float64   `json:"lat"`
	Lon           float64   `json:"lon"`
	Temperature   float64   `json:"temperature"`
	Humidity      float64   `json:"humidity"`
	WindSpeed     float64   `json:"wind_speed"`
	WindDirection float64   `json:"wind_direction"`
	Pressure      float64   `json:"pressure"`
}

// WeatherContext is the weather snapshot attached to a harmonized record.
type WeatherContext struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection float64 `json:"wind_direction"`
	Pressure      float64 `json:"pressure"`
}

// HarmonizedRecord is the unified, quality-scored record every downstream
// consumer works with. Value is always µg/m³ and Timestamp is always UTC.
// Core fields never mutate after creation; Weather, ZScore and IsAnomaly are
// enrichment fields attached by later pipeline stages.
type HarmonizedRecord struct {
	Timestamp         time.Time       `json:"timestamp"`
	Lat               float64         `json:"lat"`
	Lon               float64         `json:"lon"`
	Pollutant         Pollutant       `json:"pollutant_type"`
	Value             float64         `json:"value"`
	Source            string          `json:"source"`
	DataType          DataType        `json:"data_type"`
	SpatialResolution string          `json:"spatial_resolution"`
	QualityFlag       string          `json:"quality_flag,omitempty"`
	Uncertainty       *float64        `json:"uncertainty,omitempty"`
	City              string          `json:"city,omitempty"`
	Location          string          `json:"location,omitempty"`
	AQI               *int            `json:"aqi,omitempty"`
	Weather           *WeatherContext `json:"weather_context,omitempty"`
	ZScore            float64         `json:"z_score"`
	IsAnomaly         bool            `json:"is_anomaly"`
}

// ValidationResult compares one satellite observation against the ground
// measurements matched to it. Immutable once produced.
type ValidationResult struct {
	Timestamp       time.Time `json:"timestamp"`
	Lat             float64   `json:"lat"`
	Lon             float64   `json:"lon"`
	Pollutant       Pollutant `json:"pollutant_type"`
	TempoValue      float64   `json:"tempo_value"`
	GroundMean      float64   `json:"ground_mean"`
	GroundStd       float64   `json:"ground_std"`
	GroundCount     int       `json:"ground_count"`
	RelativeDiff    float64   `json:"relative_diff"`
	AbsoluteDiff    float64   `json:"absolute_diff"`
	HighDiscrepancy bool      `json:"high_discrepancy"`
	Confidence      float64   `json:"confidence"`
	ConfidenceLevel string    `json:"confidence_level"`
}

// ForecastPoint is one hour of a recursive multi-step forecast.
// ForecastHour runs 1..horizon and is strictly increasing within a sequence.
type ForecastPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	Pollutant      Pollutant `json:"pollutant_type"`
	PredictedValue float64   `json:"predicted_value"`
	ForecastHour   int       `json:"forecast_hour"`
	Confidence     float64   `json:"confidence"`
}
