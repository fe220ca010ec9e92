// Package ai builds the configured embedding service and annotator.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/omnimind/internal/adapters/driven/annotator/keyword"
	llmannotator "github.com/custodia-labs/omnimind/internal/adapters/driven/annotator/llm"
	"github.com/custodia-labs/omnimind/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/omnimind/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/omnimind/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/omnimind/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/omnimind/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/omnimind/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/omnimind/internal/adapters/driven/resilient"
	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the embedder selected by settings,
// wrapped with the retry policy and rate limit from the same settings.
func CreateEmbeddingService(embedding domain.EmbeddingSettings, policy resilient.Policy) (driven.EmbeddingService, error) {
	var svc driven.EmbeddingService

	switch embedding.Provider {
	case domain.EmbeddingHashing, "":
		svc = hashing.NewEmbeddingService(embedding.Dimensions)

	case domain.EmbeddingOllama:
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    embedding.BaseURL,
			Model:      embedding.Model,
			Timeout:    policy.Timeout,
			Dimensions: embedding.Dimensions,
		})

	case domain.EmbeddingOpenAI:
		openai, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     embedding.APIKey,
			BaseURL:    embedding.BaseURL,
			Model:      embedding.Model,
			Timeout:    policy.Timeout,
			Dimensions: embedding.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		svc = openai

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", embedding.Provider)
	}

	return resilient.NewEmbeddingService(svc, policy, embedding.RatePerSecond, embedding.Burst), nil
}

// CreateAndValidateEmbeddingService creates an embedder and checks that it
// is reachable. The hashing embedder never fails the check.
func CreateAndValidateEmbeddingService(ctx context.Context, embedding domain.EmbeddingSettings, policy resilient.Policy) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(embedding, policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable (%w)", domain.ErrEmbeddingUnavailable, embedding.Provider, err)
	}
	return svc, nil
}

// CreateLLMService creates the language model for an LLM annotator, or
// returns nil for the keyword annotator.
func CreateLLMService(annotator domain.AnnotatorSettings, policy resilient.Policy) (driven.LLMService, error) {
	var svc driven.LLMService

	switch annotator.Provider {
	case domain.AnnotatorKeyword, "":
		return nil, nil

	case domain.AnnotatorOllama:
		svc = ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: annotator.BaseURL,
			Model:   annotator.Model,
			Timeout: policy.Timeout,
		})

	case domain.AnnotatorOpenAI:
		openai, err := openaillm.NewLLMService(openaillm.Config{
			APIKey:  annotator.APIKey,
			BaseURL: annotator.BaseURL,
			Model:   annotator.Model,
			Timeout: policy.Timeout,
		})
		if err != nil {
			return nil, err
		}
		svc = openai

	case domain.AnnotatorAnthropic:
		claude, err := anthropic.NewLLMService(anthropic.Config{
			APIKey:  annotator.APIKey,
			BaseURL: annotator.BaseURL,
			Model:   annotator.Model,
			Timeout: policy.Timeout,
		})
		if err != nil {
			return nil, err
		}
		svc = claude

	default:
		return nil, fmt.Errorf("unsupported annotator: %s", annotator.Provider)
	}

	return resilient.NewLLMService(svc, policy), nil
}

// CreateAnnotator returns the keyword annotator when llm is nil, and an
// LLM annotator that falls back to keywords for non-text media otherwise.
func CreateAnnotator(llm driven.LLMService) driven.Annotator {
	if llm == nil {
		return keyword.New()
	}
	return llmannotator.New(llm, keyword.New())
}
