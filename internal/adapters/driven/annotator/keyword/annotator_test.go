package keyword

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotate_Text(t *testing.T) {
	a := New()
	ctx := context.Background()

	tests := []struct {
		name     string
		content  string
		mimeType string
		tags     []string
		summary  string
	}{
		{
			name:     "hello world",
			content:  "hello world",
			mimeType: "text/plain",
			tags:     []string{"hello", "world"},
			summary:  "hello world",
		},
		{
			name:     "stopwords and short words dropped",
			content:  "The cat and the quick brown foxes jumped over a lazy dog",
			mimeType: "text/plain",
			tags:     []string{"quick", "brown", "foxes", "jumped", "over"},
			summary:  "The cat and the quick brown foxes jumped over a lazy dog",
		},
		{
			name:     "duplicates collapse",
			content:  "Golang golang GOLANG rocks",
			mimeType: "text/markdown",
			tags:     []string{"golang", "rocks"},
			summary:  "Golang golang GOLANG rocks",
		},
		{
			name:     "punctuation trimmed",
			content:  `{"title": "Quarterly report"}`,
			mimeType: "application/json",
			tags:     []string{"title", "quarterly", "report"},
			summary:  `{"title": "Quarterly report"}`,
		},
		{
			name:     "fallback tags",
			content:  "a an the of it is",
			mimeType: "text/plain",
			tags:     []string{"document", "text", "file"},
			summary:  "a an the of it is",
		},
		{
			name:     "empty content",
			content:  "",
			mimeType: "text/plain",
			tags:     []string{"document", "text", "file"},
			summary:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Annotate(ctx, tt.content, tt.mimeType)
			require.NoError(t, err)
			assert.Equal(t, tt.tags, got.Tags)
			assert.Equal(t, tt.summary, got.Summary)
		})
	}
}

func TestAnnotate_OnlyFirstHundredWords(t *testing.T) {
	content := strings.Repeat("is ", 100) + "elephant"

	got, err := New().Annotate(context.Background(), content, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, []string{"document", "text", "file"}, got.Tags)
}

func TestAnnotate_SummaryTruncated(t *testing.T) {
	content := strings.Repeat("é", 250)

	got, err := New().Annotate(context.Background(), content, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 200)+"...", got.Summary)
}

func TestAnnotate_Media(t *testing.T) {
	tests := []struct {
		mimeType string
		tags     []string
		summary  string
	}{
		{"application/pdf", []string{"PDF", "media", "file"}, "PDF file uploaded to OmniMind"},
		{"image/png", []string{"PNG", "media", "file"}, "PNG file uploaded to OmniMind"},
		{"binary", []string{"BINARY", "media", "file"}, "BINARY file uploaded to OmniMind"},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			got, err := New().Annotate(context.Background(), "\x00\x01", tt.mimeType)
			require.NoError(t, err)
			assert.Equal(t, tt.tags, got.Tags)
			assert.Equal(t, tt.summary, got.Summary)
		})
	}
}

func TestAnnotate_InvalidUTF8(t *testing.T) {
	_, err := New().Annotate(context.Background(), "bad \xff\xfe bytes", "text/plain")
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}
