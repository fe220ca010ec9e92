package domain

import (
	"strings"
	"time"
)

// Metadata keys written by the coordinator.
const (
	MetadataTags    = "tags"
	MetadataSummary = "summary"
)

// Document is the canonical record of an uploaded file.
// Documents are immutable after creation except for deletion.
type Document struct {
	// ID is the opaque unique identifier, generated on create.
	ID string `json:"id"`

	// Filename is the client-supplied file name.
	Filename string `json:"filename"`

	// Content is the raw payload as text.
	Content string `json:"content"`

	// MimeType is the media type, e.g. "text/plain".
	MimeType string `json:"mimeType"`

	// CreatedAt is set once, when the document is committed.
	CreatedAt time.Time `json:"createdAt"`

	// Tags is the denormalised tag set. Never nil once loaded.
	Tags []string `json:"tags"`

	// Metadata holds annotator output (tags, summary) and other open keys.
	Metadata map[string]any `json:"metadata"`

	// Similarity is only present on search results and is never persisted.
	Similarity *float64 `json:"similarity,omitempty"`

	// IndexPending marks a committed document whose vector entry is missing.
	IndexPending bool `json:"indexPending,omitempty"`
}

// Summary returns the annotator summary stored in metadata.
func (d *Document) Summary() string {
	if d.Metadata == nil {
		return ""
	}
	s, _ := d.Metadata[MetadataSummary].(string)
	return s
}

// EmbedText returns the text to embed for this document: the content
// for textual media, the summary otherwise.
func (d *Document) EmbedText() string {
	if IsTextual(d.MimeType) {
		return d.Content
	}
	return d.Summary()
}

// IsTextual reports whether a media type carries human-readable text.
func IsTextual(mimeType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	return strings.HasPrefix(mt, "text/") || mt == "application/json"
}

// Annotation is the annotator output for a piece of content.
type Annotation struct {
	Tags    []string
	Summary string
}

// IndexEntry is the vector projection of a document.
type IndexEntry struct {
	// ID is the document ID.
	ID string

	// Vector is the embedding.
	Vector []float32

	// Text is the embedded text, truncated for display.
	Text string

	// Metadata is a denormalised snippet: filename, mime_type, tags.
	Metadata map[string]string
}

// DocumentSummary is the projection kept in the result cache.
type DocumentSummary struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mimeType"`
	CreatedAt time.Time `json:"createdAt"`
	Tags      []string  `json:"tags"`
	Summary   string    `json:"summary"`
}

// SummaryOf builds the cache projection of a document.
func SummaryOf(d *Document) DocumentSummary {
	return DocumentSummary{
		ID:        d.ID,
		Filename:  d.Filename,
		MimeType:  d.MimeType,
		CreatedAt: d.CreatedAt,
		Tags:      d.Tags,
		Summary:   d.Summary(),
	}
}

// Stats summarises the document store.
type Stats struct {
	// Documents is the number of stored documents.
	Documents int `json:"documents"`

	// Tags is the number of distinct tags across all documents.
	Tags int `json:"tags"`

	// IndexPending counts documents awaiting reconciliation.
	IndexPending int `json:"indexPending"`
}
