package linkedin

import "fmt"

// UnavailableError means the provider rejected the credential or scope
// (401/403). Not retryable within the same request; callers degrade to
// cached or empty results.
type UnavailableError struct {
	StatusCode int
	Endpoint   string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("linkedin %s rejected credentials (HTTP %d)", e.Endpoint, e.StatusCode)
}

// TransientError covers 5xx responses, timeouts, and network failures.
// Retryable on a later request; within one sync the feed is treated as
// having returned no data.
type TransientError struct {
	StatusCode int
	Endpoint   string
	Err        error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("linkedin %s transient failure: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("linkedin %s transient failure (HTTP %d)", e.Endpoint, e.StatusCode)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}
