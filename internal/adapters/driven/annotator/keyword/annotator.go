// Package keyword provides a heuristic annotator that tags documents by
// their first significant words.
package keyword

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// Ensure Annotator implements the interface.
var _ driven.Annotator = (*Annotator)(nil)

// Heuristic limits.
const (
	scanWords     = 100
	maxTags       = 5
	minWordLen    = 4
	summaryLength = 200
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "a": {}, "an": {},
}

var fallbackTags = []string{"document", "text", "file"}

// ErrInvalidEncoding is returned for textual content that is not UTF-8.
var ErrInvalidEncoding = errors.New("content is not valid UTF-8")

// Annotator derives tags and a summary without any model.
type Annotator struct{}

// New creates a keyword annotator.
func New() *Annotator {
	return &Annotator{}
}

// Annotate returns keyword tags and a prefix summary for textual media,
// and a type-based annotation for everything else.
func (a *Annotator) Annotate(_ context.Context, content, mimeType string) (domain.Annotation, error) {
	if !domain.IsTextual(mimeType) {
		return mediaAnnotation(mimeType), nil
	}
	if !utf8.ValidString(content) {
		return domain.Annotation{}, ErrInvalidEncoding
	}
	return domain.Annotation{
		Tags:    keywords(content),
		Summary: summarise(content),
	}, nil
}

// keywords picks up to maxTags distinct words from the first scanWords
// words, skipping stopwords and short words.
func keywords(content string) []string {
	words := strings.Fields(strings.ToLower(content))
	if len(words) > scanWords {
		words = words[:scanWords]
	}

	tags := make([]string, 0, maxTags)
	seen := make(map[string]struct{}, maxTags)
	for _, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if _, stop := stopwords[w]; stop || utf8.RuneCountInString(w) < minWordLen {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		tags = append(tags, w)
		if len(tags) == maxTags {
			break
		}
	}

	if len(tags) == 0 {
		return append([]string(nil), fallbackTags...)
	}
	return tags
}

// summarise returns the first summaryLength characters, marked with an
// ellipsis when cut.
func summarise(content string) string {
	if utf8.RuneCountInString(content) <= summaryLength {
		return content
	}
	return string([]rune(content)[:summaryLength]) + "..."
}

// mediaAnnotation describes a non-text upload by its subtype.
func mediaAnnotation(mimeType string) domain.Annotation {
	subtype := strings.TrimSpace(mimeType)
	if i := strings.LastIndex(subtype, "/"); i >= 0 {
		subtype = subtype[i+1:]
	}
	subtype = strings.ToUpper(subtype)
	return domain.Annotation{
		Tags:    []string{subtype, "media", "file"},
		Summary: subtype + " file uploaded to OmniMind",
	}
}
