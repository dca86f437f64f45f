package vm

import "errors"

// Sentinel errors the trace builder wraps with context, matching the error
// kinds spec.md §7 enumerates for everything upstream of proof validity
// (InvalidProof lives in the stark package instead).
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrTraceBuildFailed = errors.New("trace build failed")
)
