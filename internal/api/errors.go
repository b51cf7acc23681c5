package api

import "fmt"

// RequestError is any failure arising from a call to the ledger: transport
// errors, non-success statuses and undecodable bodies. It carries detail for
// the developer log only.
type RequestError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s %s (status %d): %v", e.Op, e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
