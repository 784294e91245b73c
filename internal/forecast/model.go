package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Supported model types. Ridge is the default: the engineered feature matrix
// carries near-constant columns (month, day-of-year over short windows) that
// make plain least squares rank-deficient.
const (
	ModelTypeRidge = "ridge"
	ModelTypeOLS   = "ols"

	ridgeLambda = 1.0
)

// linearModel is a fitted linear regressor: one weight per feature column
// plus an unpenalized intercept.
type linearModel struct {
	weights   []float64
	intercept float64
}

// fitLinear solves the (optionally ridge-regularized) least-squares problem
// for the given design matrix and targets. Regularization is implemented by
// augmenting the system with sqrt(lambda)*I rows; the intercept column is
// left unpenalized.
func fitLinear(x *mat.Dense, y []float64, lambda float64) (*linearModel, error) {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("empty design matrix")
	}
	if rows != len(y) {
		return nil, fmt.Errorf("design matrix has %d rows but %d targets", rows, len(y))
	}

	augRows := rows
	if lambda > 0 {
		augRows += cols
	}

	// [X | 1] with optional ridge rows below.
	a := mat.NewDense(augRows, cols+1, nil)
	b := mat.NewVecDense(augRows, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			a.Set(i, j, x.At(i, j))
		}
		a.Set(i, cols, 1)
		b.SetVec(i, y[i])
	}
	if lambda > 0 {
		s := math.Sqrt(lambda)
		for j := 0; j < cols; j++ {
			a.Set(rows+j, j, s)
		}
	}

	var beta mat.Dense
	if err := beta.Solve(a, b); err != nil {
		return nil, fmt.Errorf("least squares solve: %w", err)
	}

	m := &linearModel{weights: make([]float64, cols)}
	for j := 0; j < cols; j++ {
		m.weights[j] = beta.At(j, 0)
	}
	m.intercept = beta.At(cols, 0)
	return m, nil
}

// predict evaluates the model on one feature vector, ordered as the weights.
func (m *linearModel) predict(x []float64) float64 {
	sum := m.intercept
	for j, w := range m.weights {
		sum += w * x[j]
	}
	return sum
}

// lambdaFor maps a model type onto its regularization strength.
func lambdaFor(modelType string) (float64, error) {
	switch modelType {
	case ModelTypeRidge:
		return ridgeLambda, nil
	case ModelTypeOLS:
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown model type %q", modelType)
	}
}
