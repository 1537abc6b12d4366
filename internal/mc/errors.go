package mc

import "errors"

var (
	// ErrUnknownMethod indicates a method name outside samc/wl.
	ErrUnknownMethod = errors.New("mc: unknown method")

	// ErrUnknownSystem indicates a checkpoint naming a system the
	// factory cannot build.
	ErrUnknownSystem = errors.New("mc: unknown system")

	// ErrBadCheckpoint indicates a checkpoint missing required state.
	ErrBadCheckpoint = errors.New("mc: bad checkpoint")

	// ErrInvalidBinWidth indicates a non-positive energy bin width.
	ErrInvalidBinWidth = errors.New("mc: energy bin width must be positive")
)
