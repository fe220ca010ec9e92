package driven

import "context"

// LLMService completes chat conversations. It backs the LLM annotator,
// which asks the model for tags and a summary.
//
// Implementations include OpenAI (and compatible servers), Anthropic and
// Ollama.
type LLMService interface {
	// Chat returns the assistant reply to messages.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the model identifier.
	ModelName() string

	// Ping makes a lightweight reachability check without running inference.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single message in a conversation.
type ChatMessage struct {
	// Role is one of RoleSystem, RoleUser or RoleAssistant.
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures a completion.
type ChatOptions struct {
	// MaxTokens caps the reply length. Zero uses the provider default.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// JSON asks the provider to constrain the reply to a JSON object,
	// where the provider supports it.
	JSON bool
}
