package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cleanairsight/airsight/internal/airquality"
)

// TempoSource fetches TEMPO satellite retrievals from a gateway service that
// extracts granule grids into JSON point records. The netCDF handling lives
// in the gateway; this client only speaks JSON.
type TempoSource struct {
	name    string
	baseURL string
	token   string
	http    *resilientClient
}

func NewTempoSource(client *http.Client, baseURL, token string) *TempoSource {
	return &TempoSource{
		name:    "tempo",
		baseURL: baseURL,
		token:   token,
		http:    newResilientClient(client, "tempo"),
	}
}

func (s *TempoSource) Name() string {
	return s.name
}

// Fetch returns the latest column retrievals for one pollutant as raw
// measurements. TEMPO publishes NO2, O3 and HCHO; asking for anything else
// simply returns an empty batch from the gateway.
func (s *TempoSource) Fetch(ctx context.Context, p airquality.Pollutant) ([]airquality.RawMeasurement, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("tempo gateway url is not configured")
	}

	values := url.Values{}
	values.Set("product", string(p))

	var headers map[string]string
	if s.token != "" {
		headers = map[string]string{"Authorization": "Bearer " + s.token}
	}

	var payload struct {
		Points []struct {
			Time        string   `json:"time"`
			Lat         float64  `json:"lat"`
			Lon         float64  `json:"lon"`
			Value       float64  `json:"value"`
			Unit        string   `json:"unit"`
			QualityFlag string   `json:"quality_flag"`
			Uncertainty *float64 `json:"uncertainty"`
		} `json:"points"`
	}

	u := fmt.Sprintf("%s/v1/points?%s", s.baseURL, values.Encode())
	if err := s.http.getJSON(ctx, u, headers, &payload); err != nil {
		return nil, fmt.Errorf("tempo fetch for %s: %w", p, err)
	}

	measurements := make([]airquality.RawMeasurement, 0, len(payload.Points))
	for _, pt := range payload.Points {
		measurements = append(measurements, airquality.RawMeasurement{
			Timestamp:   pt.Time,
			Lat:         pt.Lat,
			Lon:         pt.Lon,
			Pollutant:   string(p),
			Value:       pt.Value,
			Unit:        pt.Unit,
			Source:      "TEMPO",
			QualityFlag: pt.QualityFlag,
			Uncertainty: pt.Uncertainty,
		})
	}

	return measurements, nil
}
