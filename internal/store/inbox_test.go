package store

import (
	"testing"

	"github.com/cleanairsight/airsight/internal/airquality"
)

// TestRawInboxDrain verifies that satellite and ground batches drain while
// weather samples are retained for the next cycle.
func TestRawInboxDrain(t *testing.T) {
	inbox := NewRawInbox(0)

	inbox.AddSatellite([]airquality.RawMeasurement{{Pollutant: "no2"}})
	inbox.AddGround([]airquality.RawMeasurement{{Pollutant: "pm25"}, {Pollutant: "o3"}})
	inbox.AddWeather([]airquality.WeatherSample{{Temperature: 20}})

	satellite, ground, weather := inbox.Drain()
	if len(satellite) != 1 || len(ground) != 2 || len(weather) != 1 {
		t.Fatalf("unexpected drain sizes: %d/%d/%d", len(satellite), len(ground), len(weather))
	}

	satellite, ground, weather = inbox.Drain()
	if len(satellite) != 0 || len(ground) != 0 {
		t.Fatalf("expected measurement batches drained, got %d/%d", len(satellite), len(ground))
	}
	if len(weather) != 1 {
		t.Fatalf("expected weather retained across drains, got %d", len(weather))
	}
}

// TestRawInboxWeatherBound verifies the weather buffer keeps only the newest
// samples once the bound is hit.
func TestRawInboxWeatherBound(t *testing.T) {
	inbox := NewRawInbox(2)

	inbox.AddWeather([]airquality.WeatherSample{
		{Temperature: 1}, {Temperature: 2}, {Temperature: 3},
	})

	_, _, weather := inbox.Drain()
	if len(weather) != 2 {
		t.Fatalf("expected weather capped at 2, got %d", len(weather))
	}
	if weather[0].Temperature != 2 || weather[1].Temperature != 3 {
		t.Fatalf("expected the newest samples to survive, got %+v", weather)
	}
}
