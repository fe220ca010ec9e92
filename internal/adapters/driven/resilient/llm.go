package resilient

import (
	"context"

	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// LLMService applies a Policy to a driven.LLMService. Chat calls are
// retried; annotation runs before anything is written, so a repeated
// call has no side effects.
type LLMService struct {
	next   driven.LLMService
	policy Policy
}

// NewLLMService wraps next.
func NewLLMService(next driven.LLMService, policy Policy) *LLMService {
	return &LLMService{next: next, policy: policy}
}

func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var reply string
	err := s.policy.retry(ctx, "chat", func(ctx context.Context) error {
		var err error
		reply, err = s.next.Chat(ctx, messages, opts)
		return err
	})
	return reply, err
}

func (s *LLMService) ModelName() string {
	return s.next.ModelName()
}

func (s *LLMService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *LLMService) Close() error {
	return s.next.Close()
}
