package forecast

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/cleanairsight/airsight/internal/airquality"
)

// Feature construction constants. warmupLags must stay the prefix of
// lagOffsets: rows missing any of them are dropped.
var (
	lagOffsets         = []int{1, 2, 3, 6, 12, 24}
	warmupLags         = []int{1, 2, 3}
	rollingMeanWindows = []int{3, 6, 12, 24}
	rollingStdWindows  = []int{3, 12}
	weatherColumns     = []string{"temperature", "humidity", "wind_speed", "pressure"}
)

// Row is one engineered feature row. Features are keyed by column name so a
// persisted column list can always be re-applied in its exact order,
// independent of how the input was arranged.
type Row struct {
	Timestamp time.Time
	Target    float64
	Features  map[string]float64
}

// FeatureSet is the output of feature engineering: the ordered column list
// and the rows built from an ordered value series.
type FeatureSet struct {
	Columns []string
	Rows    []Row
}

// FeatureColumns returns the canonical ordered column list produced by
// PrepareFeatures.
func FeatureColumns() []string {
	cols := []string{
		"hour", "day_of_week", "month", "day_of_year",
		"hour_sin", "hour_cos", "day_sin", "day_cos", "month_sin", "month_cos",
		"lat", "lon",
	}
	cols = append(cols, weatherColumns...)
	for _, lag := range lagOffsets {
		cols = append(cols, fmt.Sprintf("lag_%d", lag))
	}
	for _, w := range rollingMeanWindows {
		cols = append(cols, fmt.Sprintf("rolling_mean_%d", w))
	}
	for _, w := range rollingStdWindows {
		cols = append(cols, fmt.Sprintf("rolling_std_%d", w))
	}
	return cols
}

// PrepareFeatures builds time, cyclical, lag and rolling features from an
// ordered series of harmonized records. Weather covariates are median-imputed
// across the batch; lags that reach before the series start are zero. The
// first rows lacking lags 1-3 are dropped (3-step warm-up). Pure transform,
// no hidden state.
func PrepareFeatures(records []airquality.HarmonizedRecord) FeatureSet {
	fs := FeatureSet{Columns: FeatureColumns()}
	if len(records) == 0 {
		return fs
	}

	ordered := make([]airquality.HarmonizedRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].Timestamp.Before(ordered[b].Timestamp)
	})

	medians := weatherMedians(ordered)

	values := make([]float64, len(ordered))
	for i, r := range ordered {
		values[i] = r.Value
	}

	maxWarmup := warmupLags[len(warmupLags)-1]
	for i, r := range ordered {
		if i < maxWarmup {
			continue
		}

		f := make(map[string]float64, len(fs.Columns))
		ts := r.Timestamp.UTC()

		hour := float64(ts.Hour())
		// Monday=0 to match the upstream day-of-week convention.
		dow := float64((int(ts.Weekday()) + 6) % 7)
		month := float64(ts.Month())

		f["hour"] = hour
		f["day_of_week"] = dow
		f["month"] = month
		f["day_of_year"] = float64(ts.YearDay())
		f["hour_sin"] = math.Sin(2 * math.Pi * hour / 24)
		f["hour_cos"] = math.Cos(2 * math.Pi * hour / 24)
		f["day_sin"] = math.Sin(2 * math.Pi * dow / 7)
		f["day_cos"] = math.Cos(2 * math.Pi * dow / 7)
		f["month_sin"] = math.Sin(2 * math.Pi * month / 12)
		f["month_cos"] = math.Cos(2 * math.Pi * month / 12)
		f["lat"] = r.Lat
		f["lon"] = r.Lon

		setWeatherFeatures(f, r.Weather, medians)

		for _, lag := range lagOffsets {
			v := 0.0
			if i-lag >= 0 {
				v = values[i-lag]
			}
			f[fmt.Sprintf("lag_%d", lag)] = v
		}

		for _, w := range rollingMeanWindows {
			f[fmt.Sprintf("rolling_mean_%d", w)] = rollingMean(values, i, w)
		}
		for _, w := range rollingStdWindows {
			f[fmt.Sprintf("rolling_std_%d", w)] = rollingStd(values, i, w)
		}

		fs.Rows = append(fs.Rows, Row{
			Timestamp: ts,
			Target:    r.Value,
			Features:  f,
		})
	}

	return fs
}

// weatherMedians computes the per-covariate median over the records that
// carry weather context, for imputing the ones that do not.
func weatherMedians(records []airquality.HarmonizedRecord) map[string]float64 {
	samples := make(map[string][]float64, len(weatherColumns))
	for _, r := range records {
		if r.Weather == nil {
			continue
		}
		samples["temperature"] = append(samples["temperature"], r.Weather.Temperature)
		samples["humidity"] = append(samples["humidity"], r.Weather.Humidity)
		samples["wind_speed"] = append(samples["wind_speed"], r.Weather.WindSpeed)
		samples["pressure"] = append(samples["pressure"], r.Weather.Pressure)
	}

	medians := make(map[string]float64, len(weatherColumns))
	for _, col := range weatherColumns {
		vals := samples[col]
		if len(vals) == 0 {
			medians[col] = 0
			continue
		}
		sort.Float64s(vals)
		medians[col] = stat.Quantile(0.5, stat.LinInterp, vals, nil)
	}
	return medians
}

func setWeatherFeatures(f map[string]float64, w *airquality.WeatherContext, medians map[string]float64) {
	if w == nil {
		for _, col := range weatherColumns {
			f[col] = medians[col]
		}
		return
	}
	f["temperature"] = w.Temperature
	f["humidity"] = w.Humidity
	f["wind_speed"] = w.WindSpeed
	f["pressure"] = w.Pressure
}

// rollingMean averages the window of up to w values ending at index i
// (min-period 1, current value included).
func rollingMean(values []float64, i, w int) float64 {
	start := i - w + 1
	if start < 0 {
		start = 0
	}
	return stat.Mean(values[start:i+1], nil)
}

// rollingStd is the sample standard deviation over the same window; a
// single-element window yields 0.
func rollingStd(values []float64, i, w int) float64 {
	start := i - w + 1
	if start < 0 {
		start = 0
	}
	window := values[start : i+1]
	if len(window) < 2 {
		return 0
	}
	return stat.StdDev(window, nil)
}
