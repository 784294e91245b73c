package airquality

import (
	"log"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Validator defaults.
const (
	DefaultMaxDistanceKm        = 10.0
	DefaultMaxTimeDiffHours     = 1.0
	DefaultDiscrepancyThreshold = 0.30
)

// Confidence level names assigned from the confidence score.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Validator cross-checks satellite retrievals against ground truth via
// spatio-temporal nearest-neighbor matching.
type Validator struct {
	discrepancyThreshold float64
}

// NewValidator creates a Validator; a non-positive threshold falls back to
// the default 0.30.
func NewValidator(discrepancyThreshold float64) *Validator {
	if discrepancyThreshold <= 0 {
		discrepancyThreshold = DefaultDiscrepancyThreshold
	}
	return &Validator{discrepancyThreshold: discrepancyThreshold}
}

// ValidateAgainstGround scores each satellite record against the ground
// records of the same pollutant within maxDistanceKm (haversine) and
// maxTimeDiffHours. Satellite records with zero matches are silently
// skipped; that is insufficient data, not an error.
func (v *Validator) ValidateAgainstGround(satellite, ground []HarmonizedRecord, maxDistanceKm, maxTimeDiffHours float64) []ValidationResult {
	if len(satellite) == 0 || len(ground) == 0 {
		log.Printf("validator: insufficient data for validation")
		return nil
	}
	if maxDistanceKm <= 0 {
		maxDistanceKm = DefaultMaxDistanceKm
	}
	if maxTimeDiffHours <= 0 {
		maxTimeDiffHours = DefaultMaxTimeDiffHours
	}

	var results []ValidationResult
	for _, sat := range satellite {
		matches := matchGround(sat, ground, maxDistanceKm, maxTimeDiffHours)
		if len(matches) == 0 {
			continue
		}
		results = append(results, v.score(sat, matches))
	}

	log.Printf("validator: validated %d of %d satellite records", len(results), len(satellite))
	return results
}

// matchGround returns the ground values matching a satellite record by
// pollutant, haversine distance and absolute time delta.
func matchGround(sat HarmonizedRecord, ground []HarmonizedRecord, maxDistanceKm, maxTimeDiffHours float64) []float64 {
	var values []float64
	for _, g := range ground {
		if g.Pollutant != sat.Pollutant {
			continue
		}
		if HaversineKm(sat.Lat, sat.Lon, g.Lat, g.Lon) > maxDistanceKm {
			continue
		}
		hours := math.Abs(sat.Timestamp.Sub(g.Timestamp).Hours())
		if hours > maxTimeDiffHours {
			continue
		}
		values = append(values, g.Value)
	}
	return values
}

// score computes the discrepancy and confidence metrics for one satellite
// record against its matched ground values.
func (v *Validator) score(sat HarmonizedRecord, groundValues []float64) ValidationResult {
	mean := stat.Mean(groundValues, nil)
	std := popStdDev(groundValues, mean)

	relativeDiff := 0.0
	if mean > 0 {
		relativeDiff = math.Abs(sat.Value-mean) / mean
	}
	absoluteDiff := math.Abs(sat.Value - mean)

	confidence := math.Max(0, 1-relativeDiff)

	level := ConfidenceLow
	switch {
	case confidence >= 0.8:
		level = ConfidenceHigh
	case confidence >= 0.6:
		level = ConfidenceMedium
	}

	return ValidationResult{
		Timestamp:       sat.Timestamp,
		Lat:             sat.Lat,
		Lon:             sat.Lon,
		Pollutant:       sat.Pollutant,
		TempoValue:      sat.Value,
		GroundMean:      mean,
		GroundStd:       std,
		GroundCount:     len(groundValues),
		RelativeDiff:    relativeDiff,
		AbsoluteDiff:    absoluteDiff,
		HighDiscrepancy: relativeDiff > v.discrepancyThreshold,
		Confidence:      confidence,
		ConfidenceLevel: level,
	}
}

// popStdDev is the population standard deviation about a known mean.
func popStdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// PollutantQuality summarizes validation outcomes for one pollutant.
type PollutantQuality struct {
	MeanConfidence    float64 `json:"mean_confidence"`
	MeanRelativeDiff  float64 `json:"mean_relative_diff"`
	HighDiscrepancies int     `json:"high_discrepancies"`
}

// QualityReport aggregates validation results into counts, means and
// percentages per confidence level and per pollutant.
type QualityReport struct {
	TotalValidations      int                            `json:"total_validations"`
	HighConfidenceCount   int                            `json:"high_confidence_count"`
	MediumConfidenceCount int                            `json:"medium_confidence_count"`
	LowConfidenceCount    int                            `json:"low_confidence_count"`
	HighDiscrepancyCount  int                            `json:"high_discrepancy_count"`
	MeanConfidence        float64                        `json:"mean_confidence"`
	MeanRelativeDiff      float64                        `json:"mean_relative_diff"`
	HighConfidencePct     float64                        `json:"high_confidence_pct"`
	HighDiscrepancyPct    float64                        `json:"high_discrepancy_pct"`
	PollutantBreakdown    map[Pollutant]PollutantQuality `json:"pollutant_breakdown"`
}

// GenerateQualityReport is a read-only aggregation over validation results.
func (v *Validator) GenerateQualityReport(results []ValidationResult) QualityReport {
	report := QualityReport{
		PollutantBreakdown: make(map[Pollutant]PollutantQuality),
	}
	if len(results) == 0 {
		return report
	}

	confidences := make([]float64, len(results))
	relDiffs := make([]float64, len(results))

	type agg struct {
		confidence float64
		relDiff    float64
		count      int
		discrepant int
	}
	byPollutant := make(map[Pollutant]*agg)

	for i, r := range results {
		confidences[i] = r.Confidence
		relDiffs[i] = r.RelativeDiff

		switch r.ConfidenceLevel {
		case ConfidenceHigh:
			report.HighConfidenceCount++
		case ConfidenceMedium:
			report.MediumConfidenceCount++
		default:
			report.LowConfidenceCount++
		}
		if r.HighDiscrepancy {
			report.HighDiscrepancyCount++
		}

		a, ok := byPollutant[r.Pollutant]
		if !ok {
			a = &agg{}
			byPollutant[r.Pollutant] = a
		}
		a.confidence += r.Confidence
		a.relDiff += r.RelativeDiff
		a.count++
		if r.HighDiscrepancy {
			a.discrepant++
		}
	}

	report.TotalValidations = len(results)
	report.MeanConfidence = stat.Mean(confidences, nil)
	report.MeanRelativeDiff = stat.Mean(relDiffs, nil)
	report.HighConfidencePct = float64(report.HighConfidenceCount) / float64(report.TotalValidations) * 100
	report.HighDiscrepancyPct = float64(report.HighDiscrepancyCount) / float64(report.TotalValidations) * 100

	for p, a := range byPollutant {
		report.PollutantBreakdown[p] = PollutantQuality{
			MeanConfidence:    a.confidence / float64(a.count),
			MeanRelativeDiff:  a.relDiff / float64(a.count),
			HighDiscrepancies: a.discrepant,
		}
	}

	return report
}
