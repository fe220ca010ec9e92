package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/omnimind/internal/core/domain"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthyPinger() Pinger {
	return pingerFunc(func(context.Context) error { return nil })
}

func TestHealthService_AllHealthy(t *testing.T) {
	h := NewHealthService(time.Second, map[string]Pinger{
		domain.DependencyEmbedder:      healthyPinger(),
		domain.DependencyDocumentStore: healthyPinger(),
		domain.DependencyCache:         healthyPinger(),
		domain.DependencyVectorIndex:   healthyPinger(),
	})

	report := h.Check(context.Background())
	assert.Equal(t, domain.HealthHealthy, report.State)
	require.Len(t, report.Dependencies, 4)

	names := make([]string, 0, 4)
	for _, d := range report.Dependencies {
		names = append(names, d.Name)
		assert.Equal(t, "connected", d.Status())
	}
	assert.Equal(t, []string{
		domain.DependencyDocumentStore,
		domain.DependencyVectorIndex,
		domain.DependencyCache,
		domain.DependencyEmbedder,
	}, names)
}

func TestHealthService_OneDownIsDegraded(t *testing.T) {
	h := NewHealthService(time.Second, map[string]Pinger{
		domain.DependencyDocumentStore: pingerFunc(func(context.Context) error {
			return errors.New("connection refused")
		}),
		domain.DependencyVectorIndex: healthyPinger(),
	})

	report := h.Check(context.Background())
	assert.Equal(t, domain.HealthDegraded, report.State)
	assert.Equal(t, "unavailable: connection refused", report.Dependencies[0].Status())
	assert.True(t, report.Dependencies[1].Healthy)
}

func TestHealthService_NilPinger(t *testing.T) {
	h := NewHealthService(time.Second, map[string]Pinger{
		domain.DependencyCache: nil,
	})

	report := h.Check(context.Background())
	assert.Equal(t, domain.HealthDegraded, report.State)
	assert.Equal(t, "unavailable: not configured", report.Dependencies[0].Status())
}

func TestHealthService_ProbeTimeout(t *testing.T) {
	h := NewHealthService(20*time.Millisecond, map[string]Pinger{
		domain.DependencyEmbedder: pingerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	})

	start := time.Now()
	report := h.Check(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, domain.HealthDegraded, report.State)
	assert.Contains(t, report.Dependencies[0].Error, "deadline exceeded")
}

func TestHealthService_AnnotatorDownIsDegraded(t *testing.T) {
	h := NewHealthService(time.Second, map[string]Pinger{
		domain.DependencyDocumentStore: healthyPinger(),
		domain.DependencyAnnotator: pingerFunc(func(context.Context) error {
			return errors.New("llm down")
		}),
	})

	report := h.Check(context.Background())
	assert.Equal(t, domain.HealthDegraded, report.State)
	require.Len(t, report.Dependencies, 2)
	assert.Equal(t, domain.DependencyAnnotator, report.Dependencies[1].Name)
	assert.False(t, report.Dependencies[1].Healthy)
	assert.Equal(t, "unavailable: llm down", report.Dependencies[1].Status())
}

func TestHealthService_UnknownDependencyProbed(t *testing.T) {
	h := NewHealthService(time.Second, map[string]Pinger{
		"zeta":                         healthyPinger(),
		"alpha":                        healthyPinger(),
		domain.DependencyDocumentStore: healthyPinger(),
	})

	report := h.Check(context.Background())
	require.Len(t, report.Dependencies, 3)
	assert.Equal(t, domain.DependencyDocumentStore, report.Dependencies[0].Name)
	assert.Equal(t, "alpha", report.Dependencies[1].Name)
	assert.Equal(t, "zeta", report.Dependencies[2].Name)
}
