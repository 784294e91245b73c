package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/cleanairsight/airsight/internal/airquality"
	"github.com/cleanairsight/airsight/internal/store"
)

var validate = validator.New()

// Deps are the collaborators the HTTP layer reads from. The API surface is
// deliberately thin: it exposes what the pipeline already produced and can
// trigger a pipeline run, nothing more.
type Deps struct {
	Store        *store.MemoryStore
	Validator    *airquality.Validator
	HorizonHours int
	TriggerRun   func()
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/aqi/current", func(c *fiber.Ctx) error {
		city := c.Query("city")
		if city == "" {
			return fiber.NewError(fiber.StatusBadRequest, "city query parameter is required")
		}

		records := deps.Store.LatestForCity(city)
		if len(records) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no data for requested city")
		}

		type pollutantAQI struct {
			Pollutant airquality.Pollutant `json:"pollutant_type"`
			Value     float64              `json:"value"`
			AQI       int                  `json:"aqi"`
			Category  string               `json:"category"`
			Timestamp time.Time            `json:"timestamp"`
		}

		var pollutants []pollutantAQI
		var dominant *pollutantAQI
		for _, r := range records {
			result, ok := airquality.CalculateAQI(r.Pollutant, r.Value)
			if !ok {
				continue
			}
			entry := pollutantAQI{
				Pollutant: r.Pollutant,
				Value:     r.Value,
				AQI:       result.AQI,
				Category:  result.Category,
				Timestamp: r.Timestamp,
			}
			pollutants = append(pollutants, entry)
			if dominant == nil || entry.AQI > dominant.AQI {
				last := entry
				dominant = &last
			}
		}
		if dominant == nil {
			return fiber.NewError(fiber.StatusNotFound, "no AQI-rated pollutants for requested city")
		}

		return c.JSON(fiber.Map{
			"city":               city,
			"aqi":                dominant.AQI,
			"category":           dominant.Category,
			"dominant_pollutant": dominant.Pollutant,
			"pollutants":         pollutants,
		})
	})

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		var req forecastQuery
		if err := req.bind(c, deps.HorizonHours); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		pollutant, ok := airquality.ParsePollutant(req.Pollutant)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "unknown pollutant")
		}

		points, err := deps.Store.Forecast(pollutant)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no forecast for requested pollutant")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch forecast")
		}
		if len(points) > req.Hours {
			points = points[:req.Hours]
		}

		return c.JSON(fiber.Map{
			"pollutant_type": pollutant,
			"hours":          req.Hours,
			"forecast":       points,
		})
	})

	v1.Get("/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		pollutant, ok := airquality.ParsePollutant(req.Pollutant)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "unknown pollutant")
		}

		records, err := deps.Store.Harmonized(pollutant, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch history")
		}

		return c.JSON(fiber.Map{
			"pollutant_type": pollutant,
			"from":           req.From,
			"to":             req.To,
			"records":        records,
		})
	})

	v1.Get("/map", func(c *fiber.Ctx) error {
		cellSize := 0.1
		if s := c.Query("cell"); s != "" {
			parsed, err := strconv.ParseFloat(s, 64)
			if err != nil || parsed <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "cell must be a positive number of degrees")
			}
			cellSize = parsed
		}

		var records []airquality.HarmonizedRecord
		for _, p := range airquality.Pollutants {
			records = append(records, deps.Store.AllHarmonized(p)...)
		}

		return c.JSON(fiber.Map{
			"cell_size": cellSize,
			"cells":     airquality.AggregateByGrid(records, cellSize),
		})
	})

	v1.Get("/validation/report", func(c *fiber.Ctx) error {
		report := deps.Validator.GenerateQualityReport(deps.Store.Validations())
		return c.JSON(report)
	})

	v1.Post("/update", func(c *fiber.Ctx) error {
		if deps.TriggerRun != nil {
			go deps.TriggerRun()
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status": "update scheduled",
		})
	})
}

// forecastQuery holds query parameters for the forecast endpoint.
type forecastQuery struct {
	Pollutant string `validate:"required"`
	Hours     int    `validate:"required,min=1,max=72"`
}

func (f *forecastQuery) bind(c *fiber.Ctx, defaultHours int) error {
	f.Pollutant = c.Query("pollutant")
	f.Hours = defaultHours

	if s := c.Query("hours"); s != "" {
		hours, err := strconv.Atoi(s)
		if err != nil {
			return errors.New("hours must be an integer")
		}
		f.Hours = hours
	}
	return nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Pollutant string    `validate:"required"`
	From      time.Time `validate:"required"`
	To        time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	h.Pollutant = c.Query("pollutant")

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
