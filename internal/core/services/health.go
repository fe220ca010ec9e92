package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driving"
)

// Ensure HealthService implements the interface.
var _ driving.HealthService = (*HealthService)(nil)

// DefaultProbeTimeout bounds a single dependency probe.
const DefaultProbeTimeout = 2 * time.Second

// Pinger is anything that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService probes every configured dependency concurrently.
type HealthService struct {
	probes  []namedProbe
	timeout time.Duration
	clock   func() time.Time
}

type namedProbe struct {
	name   string
	pinger Pinger
}

// NewHealthService creates a health service. Nil pingers are reported as
// unavailable rather than skipped.
func NewHealthService(timeout time.Duration, deps map[string]Pinger) *HealthService {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	// Known dependencies first in a stable order, then any others by name.
	order := []string{
		domain.DependencyDocumentStore,
		domain.DependencyVectorIndex,
		domain.DependencyCache,
		domain.DependencyEmbedder,
		domain.DependencyAnnotator,
	}
	var extra []string
	for name := range deps {
		if !slices.Contains(order, name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)

	probes := make([]namedProbe, 0, len(deps))
	for _, name := range append(order, extra...) {
		if p, ok := deps[name]; ok {
			probes = append(probes, namedProbe{name: name, pinger: p})
		}
	}
	return &HealthService{probes: probes, timeout: timeout, clock: time.Now}
}

// Check probes all dependencies and never fails.
func (h *HealthService) Check(ctx context.Context) domain.HealthReport {
	results := make([]domain.DependencyHealth, len(h.probes))

	var wg sync.WaitGroup
	for i, p := range h.probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = h.probe(ctx, p)
		}()
	}
	wg.Wait()

	return domain.NewHealthReport(results, h.clock())
}

func (h *HealthService) probe(ctx context.Context, p namedProbe) domain.DependencyHealth {
	result := domain.DependencyHealth{Name: p.name}
	if p.pinger == nil {
		result.Error = "not configured"
		return result
	}

	probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := p.pinger.Ping(probeCtx)
	result.Latency = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Healthy = true
	return result
}
