// Package ingest holds the ingestion collaborators that feed the core: thin
// HTTP clients that hand back raw measurements and weather samples shaped for
// the harmonizer. The core never imports them; the scheduler wires them in.
package ingest

import (
	"context"

	"github.com/cleanairsight/airsight/internal/airquality"
)

// City is a tracked location. Lat/Lon may be zero, in which case sources
// that need coordinates resolve them by geocoding the name.
type City struct {
	Name string
	Lat  float64
	Lon  float64
}

// SatelliteSource fetches satellite column retrievals for one pollutant.
type SatelliteSource interface {
	Name() string
	Fetch(ctx context.Context, p airquality.Pollutant) ([]airquality.RawMeasurement, error)
}

// GroundSource fetches ground-station point readings for one city.
type GroundSource interface {
	Name() string
	FetchCity(ctx context.Context, city string) ([]airquality.RawMeasurement, error)
}

// WeatherSource fetches current weather samples for tracked cities.
type WeatherSource interface {
	Name() string
	FetchCities(ctx context.Context, cities []City) ([]airquality.WeatherSample, error)
}
