package driven

import "context"

// EmbeddingService turns text into fixed-length vectors.
//
// It only produces vectors; VectorIndex stores and searches them.
// Implementations include OpenAI, Ollama and a local hashing embedder.
type EmbeddingService interface {
	// Embed returns the embedding for text. Failures are reported as
	// errors; the coordinator classifies them as embedding failures.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector size. It must match the VectorIndex.
	Dimensions() int

	// ModelName returns the model identifier, for display and health output.
	ModelName() string

	// Ping makes a lightweight reachability check without running inference.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
