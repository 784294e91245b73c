package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestOpenAQFetchCity verifies response mapping and that untracked parameters
// are skipped.
func TestOpenAQFetchCity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("city"); got != "Chicago" {
			t.Errorf("expected city=Chicago, got %q", got)
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("expected API key header, got %q", got)
		}
		w.Write([]byte(`{
			"results": [
				{
					"location": "Main St",
					"parameter": "pm25",
					"value": 12.5,
					"unit": "µg/m³",
					"city": "Chicago",
					"coordinates": {"latitude": 41.88, "longitude": -87.63},
					"date": {"utc": "2026-03-01T10:00:00Z"}
				},
				{
					"location": "Main St",
					"parameter": "bc",
					"value": 1.0,
					"unit": "µg/m³",
					"city": "Chicago",
					"coordinates": {"latitude": 41.88, "longitude": -87.63},
					"date": {"utc": "2026-03-01T10:00:00Z"}
				}
			]
		}`))
	}))
	defer server.Close()

	source := NewOpenAQSource(server.Client(), "test-key")
	source.baseURL = server.URL

	measurements, err := source.FetchCity(context.Background(), "Chicago")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(measurements) != 1 {
		t.Fatalf("expected 1 measurement (untracked parameter skipped), got %d", len(measurements))
	}

	m := measurements[0]
	if m.Pollutant != "PM2.5" {
		t.Fatalf("expected canonical pollutant PM2.5, got %q", m.Pollutant)
	}
	if m.Source != "OpenAQ" || m.City != "Chicago" || m.Location != "Main St" {
		t.Fatalf("unexpected measurement metadata: %+v", m)
	}
	if m.Value != 12.5 || m.Lat != 41.88 || m.Lon != -87.63 {
		t.Fatalf("unexpected measurement values: %+v", m)
	}
	if m.Timestamp != "2026-03-01T10:00:00Z" {
		t.Fatalf("expected raw timestamp preserved, got %q", m.Timestamp)
	}
}
