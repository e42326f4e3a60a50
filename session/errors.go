package session

import "github.com/pkg/errors"

var (
	ErrNotFound     = errors.New("session: not found")
	ErrInvalidInput = errors.New("session: invalid input")
	// ErrProtected guards the configured legacy session, which legacy
	// (untagged) records resolve to; renaming or deleting it would orphan
	// them.
	ErrProtected = errors.New("session: protected session")
)
