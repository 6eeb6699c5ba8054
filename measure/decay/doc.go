// Package decay measures how a rendered sound effect dies away.
//
// Analyze reports level statistics, the point where the signal falls 60 dB
// below its peak, a reverberation time estimated from the Schroeder
// backward-integrated energy decay curve, and the spectral centroid.
//
//	report, err := decay.Analyze(samples, 2, 48000)
//	fmt.Printf("RT60 = %.2f s, tail ends at %.2f s\n", report.RT60, report.TailEnd)
package decay
