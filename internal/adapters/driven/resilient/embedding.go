package resilient

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService applies a Policy and an optional token-bucket limit to
// a driven.EmbeddingService. Every attempt, retries included, takes a token.
type EmbeddingService struct {
	next    driven.EmbeddingService
	policy  Policy
	limiter *rate.Limiter
}

// NewEmbeddingService wraps next. A non-positive perSecond disables
// rate limiting.
func NewEmbeddingService(next driven.EmbeddingService, policy Policy, perSecond float64, burst int) *EmbeddingService {
	s := &EmbeddingService{next: next, policy: policy}
	if perSecond > 0 {
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return s
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := s.policy.retry(ctx, "embed", func(ctx context.Context) error {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var err error
		vector, err = s.next.Embed(ctx, text)
		return err
	})
	return vector, err
}

func (s *EmbeddingService) Dimensions() int {
	return s.next.Dimensions()
}

func (s *EmbeddingService) ModelName() string {
	return s.next.ModelName()
}

func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *EmbeddingService) Close() error {
	return s.next.Close()
}
