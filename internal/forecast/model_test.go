package forecast

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// TestFitLinearRecoversCoefficients fits y = 2*x1 - 3*x2 + 5 without
// regularization and expects the exact coefficients back.
func TestFitLinearRecoversCoefficients(t *testing.T) {
	xs := [][]float64{
		{1, 2}, {2, 1}, {3, 5}, {4, 2}, {5, 7}, {6, 1}, {7, 4},
	}
	x := mat.NewDense(len(xs), 2, nil)
	y := make([]float64, len(xs))
	for i, row := range xs {
		x.SetRow(i, row)
		y[i] = 2*row[0] - 3*row[1] + 5
	}

	m, err := fitLinear(x, y, 0)
	require.NoError(t, err)
	require.InDelta(t, 2.0, m.weights[0], 1e-8)
	require.InDelta(t, -3.0, m.weights[1], 1e-8)
	require.InDelta(t, 5.0, m.intercept, 1e-8)

	require.InDelta(t, 2*10-3*20+5, m.predict([]float64{10, 20}), 1e-6)
}

// TestFitLinearRidgeShrinks verifies that regularization shrinks the weights
// toward zero relative to the unregularized fit.
func TestFitLinearRidgeShrinks(t *testing.T) {
	xs := [][]float64{
		{1, 2}, {2, 1}, {3, 5}, {4, 2}, {5, 7}, {6, 1}, {7, 4},
	}
	x := mat.NewDense(len(xs), 2, nil)
	y := make([]float64, len(xs))
	for i, row := range xs {
		x.SetRow(i, row)
		y[i] = 2*row[0] - 3*row[1] + 5
	}

	ridge, err := fitLinear(x, y, 10)
	require.NoError(t, err)
	require.Less(t, ridge.weights[0], 2.0)
	require.Greater(t, ridge.weights[1], -3.0)
}

func TestFitLinearDimensionMismatch(t *testing.T) {
	x := mat.NewDense(3, 2, nil)
	_, err := fitLinear(x, []float64{1, 2}, 0)
	require.Error(t, err)
}

func TestLambdaFor(t *testing.T) {
	lambda, err := lambdaFor(ModelTypeRidge)
	require.NoError(t, err)
	require.Equal(t, ridgeLambda, lambda)

	lambda, err = lambdaFor(ModelTypeOLS)
	require.NoError(t, err)
	require.Zero(t, lambda)

	_, err = lambdaFor("gradient-boosting")
	require.Error(t, err)
}
