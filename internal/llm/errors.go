package llm

import (
	"fmt"
)

// NetworkError reports a failed request or a non-2xx response.
type NetworkError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("completion request failed: %v", e.Err)
	}
	return fmt.Sprintf("completion endpoint returned status %d: %s", e.StatusCode, e.Body)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError reports a response body whose shape was not recognised.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse completion response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
