// Package llm provides an annotator that asks a language model for tags
// and a summary.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// Ensure Annotator implements the interface.
var _ driven.Annotator = (*Annotator)(nil)

// Limits applied to the prompt and the model reply.
const (
	MaxPromptRunes = 4000
	MaxTags        = 5
	MaxSummary     = 200
	replyTokens    = 300
)

// ErrBadReply is returned when the model reply has no usable tags.
var ErrBadReply = errors.New("model reply has no usable annotation")

const systemPrompt = `You label documents for a search index.
Reply with a single JSON object and nothing else:
{"tags": ["up to 5 short lowercase keywords"], "summary": "one or two sentences"}`

// Annotator annotates textual content with an LLM. Non-textual content
// goes to the fallback annotator, since the model only sees text.
type Annotator struct {
	llm      driven.LLMService
	fallback driven.Annotator
}

// New creates an LLM annotator. fallback handles non-textual media.
func New(llm driven.LLMService, fallback driven.Annotator) *Annotator {
	return &Annotator{llm: llm, fallback: fallback}
}

type reply struct {
	Tags    []string `json:"tags"`
	Summary string   `json:"summary"`
}

// Annotate asks the model to label content.
func (a *Annotator) Annotate(ctx context.Context, content, mimeType string) (domain.Annotation, error) {
	if !domain.IsTextual(mimeType) {
		return a.fallback.Annotate(ctx, content, mimeType)
	}
	if !utf8.ValidString(content) {
		return domain.Annotation{}, errors.New("content is not valid UTF-8")
	}

	text, err := a.llm.Chat(ctx, []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: systemPrompt},
		{Role: driven.RoleUser, Content: truncate(content, MaxPromptRunes)},
	}, driven.ChatOptions{MaxTokens: replyTokens, JSON: true})
	if err != nil {
		return domain.Annotation{}, fmt.Errorf("%s: %w", a.llm.ModelName(), err)
	}
	return parseReply(text)
}

// parseReply extracts the outermost JSON object, so replies wrapped in
// prose or code fences still parse.
func parseReply(text string) (domain.Annotation, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return domain.Annotation{}, ErrBadReply
	}

	var r reply
	if err := json.Unmarshal([]byte(text[start:end+1]), &r); err != nil {
		return domain.Annotation{}, fmt.Errorf("%w: %w", ErrBadReply, err)
	}

	tags := normaliseTags(r.Tags)
	if len(tags) == 0 {
		return domain.Annotation{}, ErrBadReply
	}
	return domain.Annotation{
		Tags:    tags,
		Summary: truncate(strings.TrimSpace(r.Summary), MaxSummary),
	}, nil
}

// normaliseTags lowercases, trims and dedupes, keeping model order.
func normaliseTags(raw []string) []string {
	tags := make([]string, 0, MaxTags)
	seen := make(map[string]struct{}, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
		if len(tags) == MaxTags {
			break
		}
	}
	return tags
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
