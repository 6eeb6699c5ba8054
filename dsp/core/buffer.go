package core

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// ClampBlock writes src limited to [lo, hi] into dst and returns the number
// of samples that had to be limited. dst and src may alias.
func ClampBlock(dst, src []float64, lo, hi float64) int {
	n := min(len(dst), len(src))

	clipped := 0
	for i := 0; i < n; i++ {
		v := src[i]
		switch {
		case v > hi:
			v = hi
			clipped++
		case v < lo:
			v = lo
			clipped++
		}
		dst[i] = v
	}

	return clipped
}
