// Package effects provides the per-voice DSP kernels used by sound-effect
// playback.
//
//   - Reverb: stereo Schroeder/Freeverb network with eight damped combs and
//     four series allpasses per channel, DC blocking and soft clipping.
//   - GranularReverb: mono circular record buffer read by a fixed pool of
//     pitched, triangle-enveloped grains with feedback into the buffer.
//
// Kernels size all their state at construction and process interleaved
// blocks in place without allocating. They are not safe for concurrent use;
// every playing voice owns its own instances.
package effects
