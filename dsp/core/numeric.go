package core

import "math"

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// FloorMod returns x modulo n in [0, n) for n > 0, also for negative x.
// It returns 0 when n <= 0.
func FloorMod(x, n int) int {
	if n <= 0 {
		return 0
	}

	m := x % n
	if m < 0 {
		m += n
	}

	return m
}

// SoftClip is the identity inside [-1, 1] and approaches ±1 asymptotically
// outside of it.
func SoftClip(x float64) float64 {
	if x > 1 {
		return 1 - 1/(1+x)
	}

	if x < -1 {
		return -1 + 1/(1-x)
	}

	return x
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// PowerToDB converts a power or energy ratio to dB (10*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func PowerToDB(power float64) float64 {
	if power < 0 {
		return math.NaN()
	}

	if power == 0 {
		return math.Inf(-1)
	}

	return 10 * math.Log10(power)
}
