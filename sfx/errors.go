package sfx

import "errors"

var (
	// ErrInvalidParam reports a module parameter outside its range.
	ErrInvalidParam = errors.New("sfx: invalid parameter")
	// ErrUnknownModule reports a module kind with no registered factory.
	ErrUnknownModule = errors.New("sfx: unknown module kind")
	// ErrInvalidClip reports a clip that cannot be played.
	ErrInvalidClip = errors.New("sfx: invalid clip")
	// ErrEmptyBank reports a sound bank without sounds.
	ErrEmptyBank = errors.New("sfx: empty sound bank")
	// ErrDuplicateModule reports a module kind registered twice.
	ErrDuplicateModule = errors.New("sfx: module kind already registered")
)
