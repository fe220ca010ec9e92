package driving

import (
	"context"

	"github.com/custodia-labs/omnimind/internal/core/domain"
)

// Scheduler runs background tasks such as index reconciliation and the
// periodic health probe.
type Scheduler interface {
	// Start runs due tasks until Stop is called or ctx is cancelled.
	Start(ctx context.Context) error

	// Stop ends the loop and waits for running tasks.
	Stop() error

	// Status returns every known task with up to limit recent results.
	Status(ctx context.Context, limit int) ([]domain.TaskStatus, error)
}
