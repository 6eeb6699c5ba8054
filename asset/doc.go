// Package asset decodes audio files into sfx clips and writes rendered
// output back to disk.
//
// Supported inputs are PCM WAV and AIFF (via go-audio), MP3 (go-mp3) and
// Ogg Vorbis (oggvorbis). LoadClip picks the decoder from the file
// extension and can be passed directly to sfx.LoadBankFile.
package asset
