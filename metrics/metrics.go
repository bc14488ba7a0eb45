// Package metrics records query-routing counters and latencies.
package metrics

import "time"

// Lookup outcomes.
const (
	OutcomeHit   = "hit"
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// ComposeGenerated labels answers produced by the generative service.
// Fallback answers are labeled with their template kind.
const ComposeGenerated = "generated"

// Metrics receives engine observations.
type Metrics interface {
	ObserveQuery(strategy string, duration time.Duration)
	ObserveLookup(kind, outcome string)
	ObserveCompose(result string)
	SetCacheEntries(n int)
}

// Noop discards every observation.
type Noop struct{}

// NewNoop returns a Metrics that records nothing.
func NewNoop() *Noop {
	return &Noop{}
}

func (Noop) ObserveQuery(_ string, _ time.Duration) {}

func (Noop) ObserveLookup(_, _ string) {}

func (Noop) ObserveCompose(_ string) {}

func (Noop) SetCacheEntries(_ int) {}

var _ Metrics = (*Noop)(nil)
