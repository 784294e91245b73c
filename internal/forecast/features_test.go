package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cleanairsight/airsight/internal/airquality"
)

// hourlySeries builds n hourly PM2.5 records starting 2026-03-01T00:00Z with
// the given values.
func hourlySeries(n int, value func(i int) float64) []airquality.HarmonizedRecord {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	records := make([]airquality.HarmonizedRecord, n)
	for i := range records {
		records[i] = airquality.HarmonizedRecord{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Lat:       34.05,
			Lon:       -118.25,
			Pollutant: airquality.PM25,
			Value:     value(i),
		}
	}
	return records
}

func TestPrepareFeaturesWarmup(t *testing.T) {
	records := hourlySeries(10, func(i int) float64 { return float64(i + 1) })

	fs := PrepareFeatures(records)
	require.Len(t, fs.Rows, 7, "first 3 rows are warm-up and must be dropped")
	require.Equal(t, records[3].Timestamp, fs.Rows[0].Timestamp)
	require.Equal(t, records[3].Value, fs.Rows[0].Target)
	require.Equal(t, FeatureColumns(), fs.Columns)
}

func TestPrepareFeaturesLags(t *testing.T) {
	records := hourlySeries(10, func(i int) float64 { return float64(i + 1) })

	fs := PrepareFeatures(records)
	first := fs.Rows[0].Features // original index 3, value 4

	require.Equal(t, 3.0, first["lag_1"])
	require.Equal(t, 2.0, first["lag_2"])
	require.Equal(t, 1.0, first["lag_3"])
	// Lags reaching before the series start are zero.
	require.Equal(t, 0.0, first["lag_6"])
	require.Equal(t, 0.0, first["lag_24"])
}

func TestPrepareFeaturesRollingWindows(t *testing.T) {
	records := hourlySeries(10, func(i int) float64 { return float64(i + 1) })

	fs := PrepareFeatures(records)
	first := fs.Rows[0].Features // window over values 2, 3, 4

	require.InDelta(t, 3.0, first["rolling_mean_3"], 1e-9)
	// Sample standard deviation of {2, 3, 4}.
	require.InDelta(t, 1.0, first["rolling_std_3"], 1e-9)
	// Window 12 is truncated to the first 4 values.
	require.InDelta(t, 2.5, first["rolling_mean_12"], 1e-9)
}

func TestPrepareFeaturesTimeAndCyclical(t *testing.T) {
	records := hourlySeries(10, func(i int) float64 { return float64(i + 1) })

	fs := PrepareFeatures(records)
	first := fs.Rows[0].Features // 2026-03-01T03:00Z, a Sunday

	require.Equal(t, 3.0, first["hour"])
	require.Equal(t, 6.0, first["day_of_week"], "Monday=0 convention makes Sunday 6")
	require.Equal(t, 3.0, first["month"])
	require.Equal(t, 60.0, first["day_of_year"])
	require.InDelta(t, math.Sin(2*math.Pi*3/24), first["hour_sin"], 1e-12)
	require.InDelta(t, math.Cos(2*math.Pi*3/24), first["hour_cos"], 1e-12)
	require.Equal(t, 34.05, first["lat"])
	require.Equal(t, -118.25, first["lon"])
}

func TestPrepareFeaturesWeatherImputation(t *testing.T) {
	records := hourlySeries(10, func(i int) float64 { return float64(i + 1) })
	records[0].Weather = &airquality.WeatherContext{Temperature: 10, Humidity: 40, WindSpeed: 1, Pressure: 1000}
	records[1].Weather = &airquality.WeatherContext{Temperature: 20, Humidity: 60, WindSpeed: 3, Pressure: 1020}

	fs := PrepareFeatures(records)
	first := fs.Rows[0].Features // original index 3 carries no weather

	require.InDelta(t, 15.0, first["temperature"], 1e-9)
	require.InDelta(t, 50.0, first["humidity"], 1e-9)
	require.InDelta(t, 2.0, first["wind_speed"], 1e-9)
	require.InDelta(t, 1010.0, first["pressure"], 1e-9)
}

func TestPrepareFeaturesOrdersInput(t *testing.T) {
	records := hourlySeries(10, func(i int) float64 { return float64(i + 1) })
	shuffled := []airquality.HarmonizedRecord{
		records[7], records[2], records[9], records[0], records[5],
		records[1], records[8], records[3], records[6], records[4],
	}

	fromSorted := PrepareFeatures(records)
	fromShuffled := PrepareFeatures(shuffled)
	require.Equal(t, fromSorted, fromShuffled)
}

func TestPrepareFeaturesEmpty(t *testing.T) {
	fs := PrepareFeatures(nil)
	require.Empty(t, fs.Rows)
	require.Equal(t, FeatureColumns(), fs.Columns)
}
