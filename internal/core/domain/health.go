package domain

import "time"

// HealthState is the overall state of the service.
type HealthState string

// Health states.
const (
	HealthHealthy  HealthState = "healthy"
	HealthDegraded HealthState = "degraded"
)

// Dependency names reported by the health check.
const (
	DependencyDocumentStore = "documentStore"
	DependencyVectorIndex   = "vectorIndex"
	DependencyCache         = "cache"
	DependencyEmbedder      = "embedder"
	DependencyAnnotator     = "annotator"
)

// DependencyHealth is the probe result for a single dependency.
type DependencyHealth struct {
	// Name identifies the dependency.
	Name string

	// Healthy is true when the probe succeeded.
	Healthy bool

	// Error holds the probe failure, if any.
	Error string

	// Latency is how long the probe took.
	Latency time.Duration
}

// Status renders the dependency state as reported over HTTP.
func (d DependencyHealth) Status() string {
	if d.Healthy {
		return "connected"
	}
	if d.Error == "" {
		return "unavailable"
	}
	return "unavailable: " + d.Error
}

// HealthReport aggregates dependency probes.
type HealthReport struct {
	State        HealthState
	Dependencies []DependencyHealth
	CheckedAt    time.Time
}

// NewHealthReport derives the overall state from the dependency probes.
// Any unhealthy dependency degrades the report; none makes it fatal.
func NewHealthReport(deps []DependencyHealth, at time.Time) HealthReport {
	state := HealthHealthy
	for _, d := range deps {
		if !d.Healthy {
			state = HealthDegraded
			break
		}
	}
	return HealthReport{State: state, Dependencies: deps, CheckedAt: at}
}

// ReconcileReport summarises one reconciliation sweep.
type ReconcileReport struct {
	// Scanned is the number of index-pending documents examined.
	Scanned int

	// Repaired is the number re-indexed and cleared.
	Repaired int

	// Failed is the number that are still pending.
	Failed int
}
