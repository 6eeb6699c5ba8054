// Package output is the host output stage for an sfx.Pool: a mixer that
// renders and sums every voice into interleaved blocks and serves them as
// float32 PCM. Package output/device plays that stream on the sound card.
//
// The mixer runs in the render context. It reads the pool's voice snapshot
// without locking and reuses buffers allocated at construction.
package output
