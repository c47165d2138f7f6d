package fetch

import "fmt"

// UpstreamError wraps any failure to obtain data from an external source
// after all fetch tiers were attempted. Callers treat it as "source
// unavailable" and fall back; it is never returned raw to API clients.
type UpstreamError struct {
	Source string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream source %s unavailable: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
