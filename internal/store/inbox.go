package store

import (
	"sync"

	"github.com/cleanairsight/airsight/internal/airquality"
)

// RawInbox buffers raw measurements between the fetch jobs that produce them
// and the harmonization job that consumes them. Satellite and ground batches
// are drained on harmonization; weather samples are retained (bounded) so
// enrichment still works when weather refreshes less often than the pipeline
// runs.
type RawInbox struct {
	mu sync.Mutex

	satellite []airquality.RawMeasurement
	ground    []airquality.RawMeasurement
	weather   []airquality.WeatherSample

	maxWeather int
}

// NewRawInbox creates an inbox retaining at most maxWeather weather samples.
func NewRawInbox(maxWeather int) *RawInbox {
	if maxWeather <= 0 {
		maxWeather = 1000
	}
	return &RawInbox{maxWeather: maxWeather}
}

func (b *RawInbox) AddSatellite(records []airquality.RawMeasurement) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.satellite = append(b.satellite, records...)
}

func (b *RawInbox) AddGround(records []airquality.RawMeasurement) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ground = append(b.ground, records...)
}

func (b *RawInbox) AddWeather(samples []airquality.WeatherSample) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.weather = append(b.weather, samples...)
	if len(b.weather) > b.maxWeather {
		b.weather = b.weather[len(b.weather)-b.maxWeather:]
	}
}

// Drain removes and returns the pending satellite and ground batches, plus a
// copy of the retained weather samples.
func (b *RawInbox) Drain() (satellite, ground []airquality.RawMeasurement, weather []airquality.WeatherSample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	satellite, ground = b.satellite, b.ground
	b.satellite, b.ground = nil, nil

	weather = make([]airquality.WeatherSample, len(b.weather))
	copy(weather, b.weather)
	return satellite, ground, weather
}
