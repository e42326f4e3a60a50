package quiz

import "github.com/pkg/errors"

// Expected, caller-recoverable conditions. Anything else coming out of
// this package is an upstream (database) failure wrapped with context.
var (
	ErrNotFound         = errors.New("quiz: not found")
	ErrInvalidInput     = errors.New("quiz: invalid input")
	ErrAlreadyCompleted = errors.New("quiz: attempt already completed")
	ErrAlreadySubmitted = errors.New("quiz: already submitted")
)
