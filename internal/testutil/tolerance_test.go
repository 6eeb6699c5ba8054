package testutil

import (
	"math"
	"testing"
)

func TestRequireHelpersAcceptMatchingData(t *testing.T) {
	RequireSliceNearlyEqual(t, []float64{1, 2.0000001}, []float64{1, 2}, 1e-6)
	RequireSliceNearlyEqual(t, nil, []float64{}, 0)
	RequireFinite(t, []float64{0, -1, math.MaxFloat64})
	RequireAllZero(t, make([]float64, 8))
}
