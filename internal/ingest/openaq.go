package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cleanairsight/airsight/internal/airquality"
)

// OpenAQSource fetches ground-station measurements from the OpenAQ API.
type OpenAQSource struct {
	name    string
	apiKey  string
	baseURL string
	http    *resilientClient
	limit   int
}

func NewOpenAQSource(client *http.Client, apiKey string) *OpenAQSource {
	return &OpenAQSource{
		name:    "openaq",
		apiKey:  apiKey,
		baseURL: "https://api.openaq.org/v2/measurements",
		http:    newResilientClient(client, "openaq"),
		limit:   1000,
	}
}

func (s *OpenAQSource) Name() string {
	return s.name
}

// FetchCity returns the latest measurements for a city, shaped as raw
// measurements for the harmonizer. Results with pollutants the core does not
// track are skipped here rather than shipped downstream to be dropped.
func (s *OpenAQSource) FetchCity(ctx context.Context, city string) ([]airquality.RawMeasurement, error) {
	values := url.Values{}
	values.Set("city", city)
	values.Set("parameter", "pm25,pm10,o3,no2,co,so2")
	values.Set("limit", fmt.Sprintf("%d", s.limit))
	values.Set("order_by", "datetime")
	values.Set("sort", "desc")

	var headers map[string]string
	if s.apiKey != "" {
		headers = map[string]string{"X-API-Key": s.apiKey}
	}

	var payload struct {
		Results []struct {
			Location    string  `json:"location"`
			Parameter   string  `json:"parameter"`
			Value       float64 `json:"value"`
			Unit        string  `json:"unit"`
			City        string  `json:"city"`
			Coordinates struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"coordinates"`
			Date struct {
				UTC string `json:"utc"`
			} `json:"date"`
		} `json:"results"`
	}

	u := fmt.Sprintf("%s?%s", s.baseURL, values.Encode())
	if err := s.http.getJSON(ctx, u, headers, &payload); err != nil {
		return nil, fmt.Errorf("openaq fetch for %s: %w", city, err)
	}

	measurements := make([]airquality.RawMeasurement, 0, len(payload.Results))
	for _, r := range payload.Results {
		pollutant, ok := airquality.ParsePollutant(r.Parameter)
		if !ok {
			continue
		}
		measurements = append(measurements, airquality.RawMeasurement{
			Timestamp: r.Date.UTC,
			Lat:       r.Coordinates.Latitude,
			Lon:       r.Coordinates.Longitude,
			Pollutant: string(pollutant),
			Value:     r.Value,
			Unit:      r.Unit,
			Source:    "OpenAQ",
			City:      r.City,
			Location:  r.Location,
		})
	}

	return measurements, nil
}
