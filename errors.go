package walgrep

import (
	"errors"
)

// ErrSessionRunning is returned by Session.Start while a search is in progress.
//
// The caller must Stop the current search first.
var ErrSessionRunning = errors.New("a search is already running")

// ErrInvalidRequest is returned by Session.Start if the Request cannot be searched.
//
// The returned error wraps ErrInvalidRequest with details about what is wrong.
var ErrInvalidRequest = errors.New("invalid request")
