package asset

import "errors"

var (
	// ErrUnsupportedFormat reports a file type or encoding that cannot be decoded.
	ErrUnsupportedFormat = errors.New("asset: unsupported audio format")
	// ErrNotWAV reports input without a RIFF/WAVE header.
	ErrNotWAV = errors.New("asset: not a WAV file")
	// ErrNotAIFF reports input without a FORM/AIFF header.
	ErrNotAIFF = errors.New("asset: not an AIFF file")
)
