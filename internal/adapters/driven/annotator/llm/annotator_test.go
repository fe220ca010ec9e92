package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/omnimind/internal/adapters/driven/annotator/keyword"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

type stubLLM struct {
	reply    string
	err      error
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

func (s *stubLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	s.messages = messages
	s.opts = opts
	return s.reply, s.err
}

func (s *stubLLM) ModelName() string            { return "stub" }
func (s *stubLLM) Ping(_ context.Context) error { return nil }
func (s *stubLLM) Close() error                 { return nil }

func TestAnnotate(t *testing.T) {
	llm := &stubLLM{reply: `{"tags":["Go"," Concurrency ","go",""],"summary":"  About goroutines.  "}`}
	a := New(llm, keyword.New())

	ann, err := a.Annotate(context.Background(), "goroutines and channels", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "concurrency"}, ann.Tags)
	assert.Equal(t, "About goroutines.", ann.Summary)

	require.Len(t, llm.messages, 2)
	assert.Equal(t, driven.RoleSystem, llm.messages[0].Role)
	assert.Equal(t, "goroutines and channels", llm.messages[1].Content)
	assert.True(t, llm.opts.JSON)
}

func TestAnnotate_TruncatesPrompt(t *testing.T) {
	llm := &stubLLM{reply: `{"tags":["long"],"summary":"s"}`}
	a := New(llm, keyword.New())

	_, err := a.Annotate(context.Background(), strings.Repeat("é", MaxPromptRunes+10), "text/markdown")
	require.NoError(t, err)
	assert.Equal(t, MaxPromptRunes, len([]rune(llm.messages[1].Content)))
}

func TestAnnotate_NonTextualUsesFallback(t *testing.T) {
	llm := &stubLLM{err: errors.New("must not be called")}
	a := New(llm, keyword.New())

	ann, err := a.Annotate(context.Background(), "\x89PNG", "image/png")
	require.NoError(t, err)
	assert.Contains(t, ann.Tags, "PNG")
	assert.Nil(t, llm.messages)
}

func TestAnnotate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		llm     *stubLLM
	}{
		{"model error", "text", &stubLLM{err: errors.New("timeout")}},
		{"invalid utf8", "\xff\xfe", &stubLLM{reply: `{"tags":["x"]}`}},
		{"no json", "text", &stubLLM{reply: "I cannot help with that"}},
		{"no tags", "text", &stubLLM{reply: `{"tags":[],"summary":"s"}`}},
		{"malformed", "text", &stubLLM{reply: `{"tags": [1, 2]}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.llm, keyword.New()).Annotate(context.Background(), tt.content, "text/plain")
			assert.Error(t, err)
		})
	}
}

func TestParseReply_CodeFence(t *testing.T) {
	ann, err := parseReply("```json\n{\"tags\":[\"a\",\"b\",\"c\",\"d\",\"e\",\"f\"],\"summary\":\"x\"}\n```")
	require.NoError(t, err)
	assert.Len(t, ann.Tags, MaxTags)
	assert.Equal(t, "x", ann.Summary)
}
