package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cleanairsight/airsight/internal/ingest"
)

type AppConfig struct {
	// Ingestion credentials.
	OpenAQAPIKey      string
	OpenWeatherAPIKey string
	GoogleAPIKey      string // geocoding for cities configured without coordinates
	TempoGatewayURL   string
	TempoToken        string

	// Job intervals.
	GroundInterval    time.Duration
	WeatherInterval   time.Duration
	SatelliteInterval time.Duration
	PipelineInterval  time.Duration // harmonize + validate + flag
	ForecastInterval  time.Duration
	RetrainInterval   time.Duration

	// Pipeline thresholds.
	DiscrepancyThreshold float64
	ZThreshold           float64

	// Forecasting.
	ForecastHorizonHours int
	ModelDBPath          string
	ModelType            string

	// Cities to track.
	Cities []ingest.City

	// In-memory store retention.
	StoreMaxHistory int
	StoreMaxAge     time.Duration

	HTTPTimeout time.Duration
	Port        string
}

// defaultCities are the focus cities used when AIR_CITIES is not set.
var defaultCities = []ingest.City{
	{Name: "Los Angeles", Lat: 34.05, Lon: -118.25},
	{Name: "New York", Lat: 40.71, Lon: -74.01},
	{Name: "Chicago", Lat: 41.88, Lon: -87.63},
	{Name: "Houston", Lat: 29.76, Lon: -95.37},
	{Name: "Phoenix", Lat: 33.45, Lon: -112.07},
	{Name: "Philadelphia", Lat: 39.95, Lon: -75.17},
	{Name: "San Antonio", Lat: 29.42, Lon: -98.49},
	{Name: "San Diego", Lat: 32.72, Lon: -117.16},
	{Name: "Dallas", Lat: 32.78, Lon: -96.80},
	{Name: "San Jose", Lat: 37.34, Lon: -121.89},
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.OpenAQAPIKey = os.Getenv("OPENAQ_API_KEY")
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	cfg.TempoGatewayURL = os.Getenv("TEMPO_GATEWAY_URL")
	cfg.TempoToken = os.Getenv("TEMPO_TOKEN")

	var err error
	if cfg.GroundInterval, err = getenvDuration("GROUND_FETCH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.WeatherInterval, err = getenvDuration("WEATHER_FETCH_INTERVAL", "1h"); err != nil {
		return nil, err
	}
	if cfg.SatelliteInterval, err = getenvDuration("SATELLITE_FETCH_INTERVAL", "1h"); err != nil {
		return nil, err
	}
	if cfg.PipelineInterval, err = getenvDuration("PIPELINE_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.ForecastInterval, err = getenvDuration("FORECAST_INTERVAL", "1h"); err != nil {
		return nil, err
	}
	if cfg.RetrainInterval, err = getenvDuration("RETRAIN_INTERVAL", "24h"); err != nil {
		return nil, err
	}

	cfg.DiscrepancyThreshold = getenvFloat("DISCREPANCY_THRESHOLD", 0.30)
	cfg.ZThreshold = getenvFloat("ANOMALY_Z_THRESHOLD", 3.0)

	cfg.ForecastHorizonHours = getenvInt("FORECAST_HORIZON_HOURS", 24)
	cfg.ModelDBPath = getenvDefault("MODEL_DB_PATH", "models.db")
	cfg.ModelType = getenvDefault("MODEL_TYPE", "ridge")

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 50000)
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "168h"); err != nil {
		return nil, err
	}

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	cfg.Port = getenvDefault("PORT", "8080")

	cities, err := loadCities()
	if err != nil {
		return nil, err
	}
	cfg.Cities = cities

	return cfg, nil
}

// loadCities parses AIR_CITIES, a semicolon-separated list of
// "Name:lat:lon" entries; coordinates are optional and resolved by
// geocoding when absent. Unset means the default US focus cities.
func loadCities() ([]ingest.City, error) {
	raw := os.Getenv("AIR_CITIES")
	if raw == "" {
		return defaultCities, nil
	}

	var cities []ingest.City
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		city := ingest.City{Name: strings.TrimSpace(parts[0])}
		if len(parts) == 3 {
			lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid latitude in AIR_CITIES entry %q: %w", entry, err)
			}
			lon, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid longitude in AIR_CITIES entry %q: %w", entry, err)
			}
			city.Lat, city.Lon = lat, lon
		} else if len(parts) != 1 {
			return nil, fmt.Errorf("invalid AIR_CITIES entry %q; want Name or Name:lat:lon", entry)
		}
		cities = append(cities, city)
	}

	if len(cities) == 0 {
		return defaultCities, nil
	}
	return cities, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	s := getenvDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
