package forecast

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/cleanairsight/airsight/internal/airquality"
)

// ErrInsufficientData is returned by Train when the series is too short to
// fit and evaluate a model.
var ErrInsufficientData = errors.New("insufficient data to train model")

// minTrainRows is the smallest engineered-row count Train accepts: enough
// for a non-degenerate chronological split.
const minTrainRows = 10

// Forecast confidence starts here and decays linearly per horizon hour down
// to the floor; it never increases with horizon.
const (
	confidenceStart = 0.95
	confidenceDecay = 0.025
	confidenceFloor = 0.2
)

// maxLag is the deepest lag the recursive forecaster shifts through.
const maxLag = 24

// Engine trains per-pollutant regressors and produces recursive multi-step
// forecasts. The model registry is an injected ModelStore rather than a
// process-global, so isolated instances can be built for tests. An
// engine-local cache fronts the store; stale reads after an out-of-process
// retrain are acceptable.
type Engine struct {
	store            ModelStore
	defaultModelType string

	mu    sync.RWMutex
	cache map[string]*TrainedModel

	// one mutex per (pollutant, model type): concurrent retrains for the
	// same slot must not interleave writes.
	trainLocks sync.Map
}

// NewEngine creates an Engine backed by the given model store. An empty
// defaultModelType means ridge.
func NewEngine(store ModelStore, defaultModelType string) *Engine {
	if defaultModelType == "" {
		defaultModelType = ModelTypeRidge
	}
	return &Engine{
		store:            store,
		defaultModelType: defaultModelType,
		cache:            make(map[string]*TrainedModel),
	}
}

func slotKey(p airquality.Pollutant, modelType string) string {
	return string(p) + "/" + modelType
}

// Train fits a regressor for the pollutant on engineered features using a
// chronological 80/20 split, reports held-out metrics, and persists the
// model together with the exact ordered feature-column list it was fitted
// on. The previous artifact for the slot is overwritten.
func (e *Engine) Train(records []airquality.HarmonizedRecord, p airquality.Pollutant, modelType string) (Metrics, error) {
	if modelType == "" {
		modelType = e.defaultModelType
	}
	lambda, err := lambdaFor(modelType)
	if err != nil {
		return Metrics{}, err
	}

	lock := e.trainLock(p, modelType)
	lock.Lock()
	defer lock.Unlock()

	fs := PrepareFeatures(filterPollutant(records, p))
	if len(fs.Rows) < minTrainRows {
		return Metrics{}, fmt.Errorf("%w: %d usable rows for %s", ErrInsufficientData, len(fs.Rows), p)
	}

	split := int(float64(len(fs.Rows)) * 0.8)
	if split >= len(fs.Rows) {
		split = len(fs.Rows) - 1
	}
	trainRows, testRows := fs.Rows[:split], fs.Rows[split:]

	x := designMatrix(trainRows, fs.Columns)
	y := targets(trainRows)

	lm, err := fitLinear(x, y, lambda)
	if err != nil {
		return Metrics{}, fmt.Errorf("train %s/%s: %w", p, modelType, err)
	}

	metrics := evaluate(lm, testRows, fs.Columns)

	model := &TrainedModel{
		Pollutant: p,
		ModelType: modelType,
		Columns:   fs.Columns,
		Weights:   lm.weights,
		Intercept: lm.intercept,
		Metrics:   metrics,
		TrainedAt: time.Now().UTC(),
	}
	if err := e.store.Save(model); err != nil {
		return Metrics{}, err
	}

	e.mu.Lock()
	e.cache[slotKey(p, modelType)] = model
	e.mu.Unlock()

	log.Printf("forecast: trained %s model for %s: r2=%.4f rmse=%.4f mae=%.4f mape=%.2f%%",
		modelType, p, metrics.R2, metrics.RMSE, metrics.MAE, metrics.MAPE)
	return metrics, nil
}

// Predict produces a recursive multi-step forecast of horizonHours points.
// Each step predicts one value from the current feature row, emits it, then
// folds a fresh row forward: the lag window shifts (lag_k <- lag_{k-1},
// lag_1 <- prediction) and the hour/cyclical features move to the next
// timestamp. Having no trained model for the pollutant yields an empty
// sequence and no error.
func (e *Engine) Predict(records []airquality.HarmonizedRecord, p airquality.Pollutant, horizonHours int) ([]airquality.ForecastPoint, error) {
	if horizonHours <= 0 {
		return nil, nil
	}

	model, err := e.model(p)
	if errors.Is(err, ErrModelNotFound) {
		log.Printf("forecast: no trained model for %s; skipping", p)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(model.Columns) != len(model.Weights) {
		return nil, fmt.Errorf("model %s/%s: %d columns but %d weights", p, model.ModelType, len(model.Columns), len(model.Weights))
	}

	fs := PrepareFeatures(filterPollutant(records, p))
	if len(fs.Rows) == 0 {
		return nil, nil
	}

	seed := fs.Rows[len(fs.Rows)-1]
	lags := seedLagWindow(fs.Rows)

	lm := &linearModel{weights: model.Weights, intercept: model.Intercept}
	features := seed.Features
	points := make([]airquality.ForecastPoint, 0, horizonHours)

	for step := 1; step <= horizonHours; step++ {
		predicted := lm.predict(vectorize(features, model.Columns))

		ts := seed.Timestamp.Add(time.Duration(step) * time.Hour)
		points = append(points, airquality.ForecastPoint{
			Timestamp:      ts,
			Pollutant:      p,
			PredictedValue: predicted,
			ForecastHour:   step,
			Confidence:     stepConfidence(step),
		})

		// Fold an immutable row forward: never mutate the row we just
		// predicted from.
		features = nextFeatures(features, &lags, predicted, ts)
	}

	return points, nil
}

// model returns the cached model for the engine's default type, falling back
// to the store.
func (e *Engine) model(p airquality.Pollutant) (*TrainedModel, error) {
	key := slotKey(p, e.defaultModelType)

	e.mu.RLock()
	m, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		return m, nil
	}

	m, err := e.store.Load(p, e.defaultModelType)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[key] = m
	e.mu.Unlock()
	return m, nil
}

func (e *Engine) trainLock(p airquality.Pollutant, modelType string) *sync.Mutex {
	v, _ := e.trainLocks.LoadOrStore(slotKey(p, modelType), &sync.Mutex{})
	return v.(*sync.Mutex)
}

// seedLagWindow fills the lag window from the tail of the engineered rows:
// lags[k] holds the value k hours before the seed row. Slots reaching past
// the start of the series stay zero, matching feature construction.
func seedLagWindow(rows []Row) [maxLag + 1]float64 {
	var lags [maxLag + 1]float64
	n := len(rows)
	for k := 1; k <= maxLag; k++ {
		if idx := n - 1 - k; idx >= 0 {
			lags[k] = rows[idx].Target
		}
	}
	// The engineered rows drop the warm-up prefix, so deep lags of the seed
	// row may reach rows the warm-up removed; trust the seed's own features
	// where they exist.
	seed := rows[n-1]
	for _, k := range lagOffsets {
		lags[k] = seed.Features[fmt.Sprintf("lag_%d", k)]
	}
	return lags
}

// nextFeatures builds the feature row for the next recursion step: a copy of
// the current row with the lag window shifted by one and the hour features
// recomputed for the emitted timestamp. Day, month, rolling and weather
// features stay frozen at the seed; the drift this causes over long horizons
// is bounded by the horizon cap upstream.
func nextFeatures(current map[string]float64, lags *[maxLag + 1]float64, predicted float64, ts time.Time) map[string]float64 {
	next := make(map[string]float64, len(current))
	for k, v := range current {
		next[k] = v
	}

	for k := maxLag; k >= 2; k-- {
		lags[k] = lags[k-1]
	}
	lags[1] = predicted

	for _, k := range lagOffsets {
		next[fmt.Sprintf("lag_%d", k)] = lags[k]
	}

	hour := float64(ts.UTC().Hour())
	next["hour"] = hour
	next["hour_sin"] = math.Sin(2 * math.Pi * hour / 24)
	next["hour_cos"] = math.Cos(2 * math.Pi * hour / 24)

	return next
}

func stepConfidence(step int) float64 {
	return math.Max(confidenceFloor, confidenceStart-confidenceDecay*float64(step-1))
}

// filterPollutant keeps the records of one pollutant that carry a usable value.
func filterPollutant(records []airquality.HarmonizedRecord, p airquality.Pollutant) []airquality.HarmonizedRecord {
	var out []airquality.HarmonizedRecord
	for _, r := range records {
		if r.Pollutant == p && !math.IsNaN(r.Value) {
			out = append(out, r)
		}
	}
	return out
}

// vectorize orders a feature map by the persisted column list. Reordering of
// the input never changes the vector; unknown columns read as zero.
func vectorize(features map[string]float64, columns []string) []float64 {
	x := make([]float64, len(columns))
	for j, col := range columns {
		x[j] = features[col]
	}
	return x
}

func designMatrix(rows []Row, columns []string) *mat.Dense {
	x := mat.NewDense(len(rows), len(columns), nil)
	for i, row := range rows {
		x.SetRow(i, vectorize(row.Features, columns))
	}
	return x
}

func targets(rows []Row) []float64 {
	y := make([]float64, len(rows))
	for i, row := range rows {
		y[i] = row.Target
	}
	return y
}

// evaluate scores a fitted model on held-out rows.
func evaluate(m *linearModel, rows []Row, columns []string) Metrics {
	n := len(rows)
	if n == 0 {
		return Metrics{}
	}

	preds := make([]float64, n)
	var meanY float64
	for i, row := range rows {
		preds[i] = m.predict(vectorize(row.Features, columns))
		meanY += row.Target
	}
	meanY /= float64(n)

	var ssRes, ssTot, sumAbs, sumAPE float64
	apeCount := 0
	for i, row := range rows {
		diff := row.Target - preds[i]
		ssRes += diff * diff
		dev := row.Target - meanY
		ssTot += dev * dev
		sumAbs += math.Abs(diff)
		if row.Target != 0 {
			sumAPE += math.Abs(diff / row.Target)
			apeCount++
		}
	}

	metrics := Metrics{
		RMSE: math.Sqrt(ssRes / float64(n)),
		MAE:  sumAbs / float64(n),
	}
	if ssTot > 0 {
		metrics.R2 = 1 - ssRes/ssTot
	}
	if apeCount > 0 {
		metrics.MAPE = sumAPE / float64(apeCount) * 100
	}
	return metrics
}
