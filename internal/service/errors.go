package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrUploadInFlight    = errors.New("an upload is already in progress")
	ErrNothingToUpload   = errors.New("no files selected")
	ErrIndexOutOfRange   = errors.New("file index out of range")
	ErrPollerStopped     = errors.New("poller stopped")
	ErrPollerRunning     = errors.New("poller already running")
	ErrResultUnavailable = errors.New("document has no completed result")
	ErrUnknownFormat     = errors.New("unknown export format")
	ErrNotDeactivatable  = errors.New("user cannot be deactivated")
	ErrNotConfirmed      = errors.New("deactivation not confirmed")
)

// ValidationError is a client-side form check failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
