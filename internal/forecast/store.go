package forecast

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cleanairsight/airsight/internal/airquality"
)

// ErrModelNotFound signals that no trained model exists for the requested
// (pollutant, model type) slot. Callers treat it as capability-absent, not
// as a failure.
var ErrModelNotFound = errors.New("no trained model for pollutant")

// Metrics are the held-out evaluation scores reported by training.
type Metrics struct {
	R2   float64 `json:"r2_score"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	MAPE float64 `json:"mape"`
}

// TrainedModel is the persisted artifact for one (pollutant, model type)
// slot: fitted parameters plus the exact ordered feature-column list used at
// training time. Prediction must reuse that list in that order.
type TrainedModel struct {
	Pollutant airquality.Pollutant `json:"pollutant_type"`
	ModelType string               `json:"model_type"`
	Columns   []string             `json:"feature_columns"`
	Weights   []float64            `json:"weights"`
	Intercept float64              `json:"intercept"`
	Metrics   Metrics              `json:"metrics"`
	TrainedAt time.Time            `json:"trained_at"`
}

// ModelStore persists trained models across restarts. One slot per
// (pollutant, model type); Save overwrites, no multi-version retention.
type ModelStore interface {
	Save(m *TrainedModel) error
	Load(p airquality.Pollutant, modelType string) (*TrainedModel, error)
	Close() error
}

// SQLiteModelStore keeps model artifacts in a single SQLite file, one row per
// (pollutant, model type) slot.
type SQLiteModelStore struct {
	db *sql.DB
}

// NewSQLiteModelStore opens (creating if needed) the model database at path.
func NewSQLiteModelStore(path string) (*SQLiteModelStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open model store: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS models (
		pollutant  TEXT NOT NULL,
		model_type TEXT NOT NULL,
		trained_at TEXT NOT NULL,
		payload    TEXT NOT NULL,
		PRIMARY KEY (pollutant, model_type)
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create models table: %w", err)
	}

	return &SQLiteModelStore{db: db}, nil
}

// Save overwrites the slot for the model's (pollutant, model type).
func (s *SQLiteModelStore) Save(m *TrainedModel) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO models (pollutant, model_type, trained_at, payload) VALUES (?, ?, ?, ?)`,
		string(m.Pollutant), m.ModelType, m.TrainedAt.UTC().Format(time.RFC3339), string(payload),
	)
	if err != nil {
		return fmt.Errorf("persist model %s/%s: %w", m.Pollutant, m.ModelType, err)
	}
	return nil
}

// Load returns the persisted model for the slot, or ErrModelNotFound.
func (s *SQLiteModelStore) Load(p airquality.Pollutant, modelType string) (*TrainedModel, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM models WHERE pollutant = ? AND model_type = ?`,
		string(p), modelType,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load model %s/%s: %w", p, modelType, err)
	}

	var m TrainedModel
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, fmt.Errorf("decode model %s/%s: %w", p, modelType, err)
	}
	return &m, nil
}

func (s *SQLiteModelStore) Close() error {
	return s.db.Close()
}
