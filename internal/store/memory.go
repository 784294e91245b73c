package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cleanairsight/airsight/internal/airquality"
)

var (
	// ErrNotFound is returned when no data is available for a query.
	ErrNotFound = errors.New("no data for query")
)

// MemoryStore is a concurrency-safe in-memory store for harmonized records,
// validation results and the latest forecast per pollutant. Harmonized
// histories are kept time-ordered per pollutant with count/age retention.
type MemoryStore struct {
	mu sync.RWMutex

	harmonized  map[airquality.Pollutant][]airquality.HarmonizedRecord
	validations []airquality.ValidationResult
	forecasts   map[airquality.Pollutant][]airquality.ForecastPoint

	// retention configuration
	maxHistory int           // max records per pollutant
	maxAge     time.Duration // optional max age for records
}

// NewMemoryStore creates a MemoryStore with optional limits. A maxHistory
// <= 0 means unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		harmonized: make(map[airquality.Pollutant][]airquality.HarmonizedRecord),
		forecasts:  make(map[airquality.Pollutant][]airquality.ForecastPoint),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// AppendHarmonized adds a batch of harmonized records, keeps each pollutant
// history time-ordered and enforces retention.
func (s *MemoryStore) AppendHarmonized(records []airquality.HarmonizedRecord) {
	if len(records) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[airquality.Pollutant]bool)
	for _, r := range records {
		s.harmonized[r.Pollutant] = append(s.harmonized[r.Pollutant], r)
		touched[r.Pollutant] = true
	}

	for p := range touched {
		history := s.harmonized[p]
		sort.SliceStable(history, func(a, b int) bool {
			return history[a].Timestamp.Before(history[b].Timestamp)
		})

		// Enforce retention by count.
		if s.maxHistory > 0 && len(history) > s.maxHistory {
			history = history[len(history)-s.maxHistory:]
		}

		// Enforce retention by age.
		if s.maxAge > 0 {
			cutoff := time.Now().Add(-s.maxAge)
			i := 0
			for ; i < len(history); i++ {
				if !history[i].Timestamp.Before(cutoff) {
					break
				}
			}
			history = history[i:]
		}

		s.harmonized[p] = history
	}
}

// Harmonized returns the records for a pollutant between from and to
// (inclusive), time-ordered.
func (s *MemoryStore) Harmonized(p airquality.Pollutant, from, to time.Time) ([]airquality.HarmonizedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.harmonized[p]
	var result []airquality.HarmonizedRecord
	for _, r := range history {
		if !r.Timestamp.Before(from) && !r.Timestamp.After(to) {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

// AllHarmonized returns the full retained history for a pollutant.
func (s *MemoryStore) AllHarmonized(p airquality.Pollutant) []airquality.HarmonizedRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.harmonized[p]
	out := make([]airquality.HarmonizedRecord, len(history))
	copy(out, history)
	return out
}

// LatestForCity returns the most recent record per pollutant for a city.
func (s *MemoryStore) LatestForCity(city string) []airquality.HarmonizedRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []airquality.HarmonizedRecord
	for _, p := range airquality.Pollutants {
		history := s.harmonized[p]
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].City == city {
				out = append(out, history[i])
				break
			}
		}
	}
	return out
}

// AppendValidations adds validation results, bounded by the same history cap
// as records.
func (s *MemoryStore) AppendValidations(results []airquality.ValidationResult) {
	if len(results) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.validations = append(s.validations, results...)
	if s.maxHistory > 0 && len(s.validations) > s.maxHistory {
		s.validations = s.validations[len(s.validations)-s.maxHistory:]
	}
}

// Validations returns all retained validation results.
func (s *MemoryStore) Validations() []airquality.ValidationResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]airquality.ValidationResult, len(s.validations))
	copy(out, s.validations)
	return out
}

// SetForecast replaces the stored forecast for a pollutant. Forecasts are
// replaced wholesale per generation cycle, never merged.
func (s *MemoryStore) SetForecast(p airquality.Pollutant, points []airquality.ForecastPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	forecast := make([]airquality.ForecastPoint, len(points))
	copy(forecast, points)
	s.forecasts[p] = forecast
}

// Forecast returns the latest stored forecast for a pollutant.
func (s *MemoryStore) Forecast(p airquality.Pollutant) ([]airquality.ForecastPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	forecast, ok := s.forecasts[p]
	if !ok || len(forecast) == 0 {
		return nil, ErrNotFound
	}
	out := make([]airquality.ForecastPoint, len(forecast))
	copy(out, forecast)
	return out, nil
}
