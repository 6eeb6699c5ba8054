// Package sfx plays short sound-effect clips through per-voice effect
// chains.
//
// A SoundDefinition lists interchangeable clips and an ordered set of
// effect Modules. Pool.Play picks a clip, acquires a Voice (reusing an idle
// one, growing lazily up to a cap, or evicting the oldest active voice),
// initialises the modules into per-voice runtime state and starts playback.
//
// Two execution contexts are involved:
//
//   - the control context calls Play, Stop, PlayAt and Tick (or Run), and
//     advances each voice through Playing, Tail and back to Idle;
//   - the render context calls Voice.Render once per audio block. It never
//     locks, allocates or blocks; everything it touches is either frozen at
//     session start or an atomic value.
//
// Modules hold configuration only. Buffers, grain tables and filter memory
// are created by Module.Init for one voice session and are never shared
// between voices playing the same definition.
package sfx
