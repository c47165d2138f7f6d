package models

import (
	"fmt"
	"time"
)

// RefreshRecord bundles everything a refresh run produced for one postcode,
// queued as a unit for the batch writer.
type RefreshRecord struct {
	Postcode string
	Metric   *InvestmentMetric
	Sales    []*PropertySale
	Crime    *CrimeRecord
}

// RefreshSummary describes the outcome of one refresh run across a set of
// postcodes.
type RefreshSummary struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Requested int           `json:"requested"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Failures  []string      `json:"failures,omitempty"`
}

// String renders a one-line summary for logs and notifications.
func (s RefreshSummary) String() string {
	return fmt.Sprintf("refreshed %d/%d postcodes in %s (%d failed)",
		s.Succeeded, s.Requested, s.Duration.Round(time.Millisecond), s.Failed)
}
