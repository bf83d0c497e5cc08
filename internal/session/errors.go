package session

import "errors"

var (
	// ErrBlankInput is returned when the trimmed send text is empty.
	ErrBlankInput = errors.New("message is blank")
	// ErrBusy is returned while a completion request is in flight.
	ErrBusy = errors.New("a reply is still pending")
	// ErrNotActive is returned when the session cannot accept the operation
	// in its current state.
	ErrNotActive = errors.New("session is not active")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrSendFailed wraps a responder failure after the send was rolled back.
	ErrSendFailed = errors.New("send failed")
	// ErrPersistFailed wraps a store failure during finalization. The
	// session keeps its terminal outcome and End may be retried.
	ErrPersistFailed = errors.New("failed to persist session")
	// ErrNoSession is returned when a device has no live session.
	ErrNoSession = errors.New("no session")
	// ErrStartInProgress is returned when a start for the same device is
	// already running.
	ErrStartInProgress = errors.New("session start already in progress")
)
