package airquality

import "testing"

// TestCalculateAQIBreakpoints checks the index at breakpoint edges and in the
// interior of a band.
func TestCalculateAQIBreakpoints(t *testing.T) {
	cases := []struct {
		pollutant     Pollutant
		concentration float64
		wantAQI       int
		wantCategory  string
	}{
		{PM25, 0, 0, CategoryGood},
		{PM25, 12.0, 50, CategoryGood},
		{PM25, 35.4, 100, CategoryModerate},
		{PM25, 55.4, 150, CategoryUSG},
		{PM25, 150.4, 200, CategoryUnhealthy},
		{PM25, 250.4, 300, CategoryVeryUnhealthy},
		{PM10, 54, 50, CategoryGood},
		{PM10, 154, 100, CategoryModerate},
		{O3, 70, 100, CategoryModerate},
		{NO2, 100, 100, CategoryModerate},
	}

	for _, c := range cases {
		got, ok := CalculateAQI(c.pollutant, c.concentration)
		if !ok {
			t.Fatalf("CalculateAQI(%s, %v): expected ok", c.pollutant, c.concentration)
		}
		if got.AQI != c.wantAQI {
			t.Fatalf("CalculateAQI(%s, %v) = %d, want %d", c.pollutant, c.concentration, got.AQI, c.wantAQI)
		}
		if got.Category != c.wantCategory {
			t.Fatalf("CalculateAQI(%s, %v) category = %q, want %q", c.pollutant, c.concentration, got.Category, c.wantCategory)
		}
	}
}

// TestCalculateAQIClamping verifies that out-of-table concentrations clamp to
// the scale ceiling and that negative inputs clamp to zero.
func TestCalculateAQIClamping(t *testing.T) {
	got, ok := CalculateAQI(PM25, 600)
	if !ok {
		t.Fatalf("expected ok for above-table concentration")
	}
	if got.AQI != 500 || got.Category != CategoryHazardous {
		t.Fatalf("expected 500/Hazardous, got %d/%s", got.AQI, got.Category)
	}

	got, ok = CalculateAQI(PM25, -5)
	if !ok {
		t.Fatalf("expected ok for negative concentration")
	}
	if got.AQI != 0 || got.Category != CategoryGood {
		t.Fatalf("expected 0/Good for negative concentration, got %d/%s", got.AQI, got.Category)
	}
}

// TestCalculateAQIUnknownPollutant verifies that pollutants without a
// breakpoint table report ok=false.
func TestCalculateAQIUnknownPollutant(t *testing.T) {
	got, ok := CalculateAQI(HCHO, 10)
	if ok {
		t.Fatalf("expected ok=false for pollutant without breakpoints")
	}
	if got.Category != CategoryUnknown {
		t.Fatalf("expected %q category, got %q", CategoryUnknown, got.Category)
	}
}
