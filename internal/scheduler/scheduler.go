package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/cleanairsight/airsight/internal/airquality"
	"github.com/cleanairsight/airsight/internal/config"
	"github.com/cleanairsight/airsight/internal/forecast"
	"github.com/cleanairsight/airsight/internal/ingest"
	"github.com/cleanairsight/airsight/internal/store"
)

// satellitePollutants are the species TEMPO publishes.
var satellitePollutants = []airquality.Pollutant{airquality.NO2, airquality.O3, airquality.HCHO}

// forecastPollutants are the species we train models and forecast for.
var forecastPollutants = []airquality.Pollutant{airquality.PM25, airquality.PM10, airquality.O3, airquality.NO2}

// Deps bundles the collaborators the pipeline jobs operate on.
type Deps struct {
	Satellite  ingest.SatelliteSource
	Ground     ingest.GroundSource
	Weather    ingest.WeatherSource
	Inbox      *store.RawInbox
	Store      *store.MemoryStore
	Harmonizer *airquality.Harmonizer
	Validator  *airquality.Validator
	Engine     *forecast.Engine
}

// Scheduler runs the periodic pipeline: fetch jobs feed the raw inbox,
// harmonize+validate+flag drains it, forecast and retrain jobs read the
// harmonized store. Jobs of different kinds read time-windowed slices and
// write append-only output, so they need no coordination beyond the
// engine's per-pollutant retrain lock.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cfg       *config.AppConfig
	deps      Deps
}

// New creates a Scheduler.
func New(cfg *config.AppConfig, deps Deps) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		cfg:       cfg,
		deps:      deps,
	}
}

// Start registers all periodic jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name     string
		interval time.Duration
		run      func()
	}{
		{"fetch-ground", s.cfg.GroundInterval, s.fetchGround},
		{"fetch-weather", s.cfg.WeatherInterval, s.fetchWeather},
		{"fetch-satellite", s.cfg.SatelliteInterval, s.fetchSatellite},
		{"harmonize-validate", s.cfg.PipelineInterval, s.HarmonizeAndValidate},
		{"generate-forecasts", s.cfg.ForecastInterval, s.generateForecasts},
		{"retrain-models", s.cfg.RetrainInterval, s.retrainModels},
	}

	for _, job := range jobs {
		job := job
		if _, err := s.scheduler.Every(job.interval).Tag(job.name).Do(job.run); err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	log.Printf("scheduler: started %d jobs", len(jobs))

	// Initial fetch so the pipeline has data before the first intervals
	// elapse. Satellite data may lag; ground and weather come first.
	go func() {
		s.fetchGround()
		s.fetchWeather()
		s.fetchSatellite()
		s.HarmonizeAndValidate()
	}()

	return nil
}

// Stop stops the scheduler and cancels future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// fetchGround pulls ground-station readings for every tracked city into the
// inbox. Cities fail independently.
func (s *Scheduler) fetchGround() {
	if s.deps.Ground == nil {
		return
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0

	for _, city := range s.cfg.Cities {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTPTimeout)
			defer cancel()

			measurements, err := s.deps.Ground.FetchCity(ctx, city.Name)
			if err != nil {
				log.Printf("scheduler: ground fetch failed for %s: %v", city.Name, err)
				return
			}
			s.deps.Inbox.AddGround(measurements)

			mu.Lock()
			total += len(measurements)
			mu.Unlock()
		}()
	}
	wg.Wait()

	log.Printf("scheduler: fetched %d ground measurements", total)
}

// fetchWeather pulls one current-weather sample per tracked city.
func (s *Scheduler) fetchWeather() {
	if s.deps.Weather == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTPTimeout)
	defer cancel()

	samples, err := s.deps.Weather.FetchCities(ctx, s.cfg.Cities)
	if err != nil {
		log.Printf("scheduler: weather fetch failed: %v", err)
		return
	}
	s.deps.Inbox.AddWeather(samples)
	log.Printf("scheduler: fetched %d weather samples", len(samples))
}

// fetchSatellite pulls the latest TEMPO retrievals per pollutant.
func (s *Scheduler) fetchSatellite() {
	if s.deps.Satellite == nil {
		return
	}

	total := 0
	for _, p := range satellitePollutants {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTPTimeout)
		measurements, err := s.deps.Satellite.Fetch(ctx, p)
		cancel()
		if err != nil {
			log.Printf("scheduler: satellite fetch failed for %s: %v", p, err)
			continue
		}
		s.deps.Inbox.AddSatellite(measurements)
		total += len(measurements)
	}
	log.Printf("scheduler: fetched %d satellite measurements", total)
}

// HarmonizeAndValidate drains the raw inbox, harmonizes the batch, flags
// anomalies, stores the records and cross-validates satellite against
// ground. Exported so the API layer can trigger an immediate run.
func (s *Scheduler) HarmonizeAndValidate() {
	batchID := uuid.NewString()

	satellite, ground, weather := s.deps.Inbox.Drain()
	if len(satellite) == 0 && len(ground) == 0 {
		log.Printf("scheduler: batch %s: no raw data pending", batchID)
		return
	}

	records := s.deps.Harmonizer.HarmonizeAll(satellite, ground, weather)
	records = airquality.FlagAnomalies(records, s.cfg.ZThreshold)
	s.deps.Store.AppendHarmonized(records)

	var satRecords, groundRecords []airquality.HarmonizedRecord
	for _, r := range records {
		switch r.DataType {
		case airquality.DataTypeSatellite:
			satRecords = append(satRecords, r)
		case airquality.DataTypeGround:
			groundRecords = append(groundRecords, r)
		}
	}

	results := s.deps.Validator.ValidateAgainstGround(
		satRecords, groundRecords,
		airquality.DefaultMaxDistanceKm, airquality.DefaultMaxTimeDiffHours,
	)
	s.deps.Store.AppendValidations(results)

	log.Printf("scheduler: batch %s: stored %d records, %d validation results",
		batchID, len(records), len(results))
}

// generateForecasts produces and stores a forecast per pollutant. Pollutants
// without a trained model yield empty sequences and are skipped.
func (s *Scheduler) generateForecasts() {
	for _, p := range forecastPollutants {
		history := s.deps.Store.AllHarmonized(p)
		points, err := s.deps.Engine.Predict(history, p, s.cfg.ForecastHorizonHours)
		if err != nil {
			log.Printf("scheduler: forecast failed for %s: %v", p, err)
			continue
		}
		if len(points) == 0 {
			continue
		}
		s.deps.Store.SetForecast(p, points)
		log.Printf("scheduler: generated %d forecast points for %s", len(points), p)
	}
}

// retrainModels refits each pollutant's model on its retained history.
// Too-short histories are skipped, not failed.
func (s *Scheduler) retrainModels() {
	for _, p := range forecastPollutants {
		history := s.deps.Store.AllHarmonized(p)
		metrics, err := s.deps.Engine.Train(history, p, s.cfg.ModelType)
		if errors.Is(err, forecast.ErrInsufficientData) {
			log.Printf("scheduler: skipping retrain for %s: %v", p, err)
			continue
		}
		if err != nil {
			log.Printf("scheduler: retrain failed for %s: %v", p, err)
			continue
		}
		log.Printf("scheduler: retrained %s (r2=%.4f rmse=%.4f)", p, metrics.R2, metrics.RMSE)
	}
}
