package config

import (
	"testing"
	"time"
)

// TestLoadDefaults verifies the defaults used when the environment is empty.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.GroundInterval != 15*time.Minute {
		t.Fatalf("expected 15m ground interval, got %v", cfg.GroundInterval)
	}
	if cfg.RetrainInterval != 24*time.Hour {
		t.Fatalf("expected 24h retrain interval, got %v", cfg.RetrainInterval)
	}
	if cfg.ForecastHorizonHours != 24 {
		t.Fatalf("expected 24h horizon, got %d", cfg.ForecastHorizonHours)
	}
	if cfg.ModelType != "ridge" {
		t.Fatalf("expected ridge default model, got %q", cfg.ModelType)
	}
	if cfg.DiscrepancyThreshold != 0.30 {
		t.Fatalf("expected 0.30 discrepancy threshold, got %v", cfg.DiscrepancyThreshold)
	}
	if len(cfg.Cities) == 0 {
		t.Fatalf("expected default cities")
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
}

// TestLoadCities verifies AIR_CITIES parsing with and without coordinates.
func TestLoadCities(t *testing.T) {
	t.Setenv("AIR_CITIES", "Denver:39.74:-104.99; Boston ;")

	cities, err := loadCities()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cities) != 2 {
		t.Fatalf("expected 2 cities, got %d", len(cities))
	}
	if cities[0].Name != "Denver" || cities[0].Lat != 39.74 || cities[0].Lon != -104.99 {
		t.Fatalf("unexpected first city: %+v", cities[0])
	}
	if cities[1].Name != "Boston" || cities[1].Lat != 0 || cities[1].Lon != 0 {
		t.Fatalf("unexpected second city: %+v", cities[1])
	}
}

// TestLoadCitiesInvalid verifies malformed entries are rejected.
func TestLoadCitiesInvalid(t *testing.T) {
	t.Setenv("AIR_CITIES", "Denver:north:west")
	if _, err := loadCities(); err == nil {
		t.Fatalf("expected error for non-numeric coordinates")
	}

	t.Setenv("AIR_CITIES", "Denver:39.74")
	if _, err := loadCities(); err == nil {
		t.Fatalf("expected error for incomplete coordinates")
	}
}

// TestLoadInvalidDuration verifies duration parsing failures surface.
func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("GROUND_FETCH_INTERVAL", "often")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid interval")
	}
}
