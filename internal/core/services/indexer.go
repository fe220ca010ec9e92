package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// maxIndexTextLen bounds the text stored next to each vector.
const maxIndexTextLen = 1000

// indexer owns the embed-and-index step shared by create and reconcile.
type indexer struct {
	docStore    driven.DocumentStore
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
}

func newIndexer(docStore driven.DocumentStore, vectorIndex driven.VectorIndex, embedder driven.EmbeddingService) *indexer {
	return &indexer{docStore: docStore, vectorIndex: vectorIndex, embedder: embedder}
}

// index embeds the document, upserts its vector entry and clears the
// index-pending flag. The flag is only cleared once the entry exists.
func (x *indexer) index(ctx context.Context, doc *domain.Document) error {
	if x.vectorIndex == nil {
		return domain.Index("index", domain.ErrVectorIndexUnavailable)
	}
	if x.embedder == nil {
		return domain.Embedding("index", domain.ErrEmbeddingUnavailable)
	}

	text := doc.EmbedText()
	vector, err := x.embedder.Embed(ctx, text)
	if err != nil {
		return domain.Embedding("embed "+doc.ID, err)
	}
	if len(vector) == 0 {
		return domain.Embedding("embed "+doc.ID, errors.New("empty vector"))
	}

	entry, err := indexEntryFor(doc, vector, text)
	if err != nil {
		return domain.Index("upsert "+doc.ID, err)
	}
	if err := x.vectorIndex.Upsert(ctx, entry); err != nil {
		return domain.Index("upsert "+doc.ID, err)
	}

	if err := x.docStore.SetIndexPending(ctx, doc.ID, false); err != nil {
		return domain.Persistence("clear index-pending "+doc.ID, err)
	}
	return nil
}

// remove deletes the vector entry for id. Missing entries are not an error.
func (x *indexer) remove(ctx context.Context, id string) error {
	if x.vectorIndex == nil {
		return nil
	}
	return x.vectorIndex.Delete(ctx, id)
}

// indexEntryFor builds the vector entry with its display snippet.
func indexEntryFor(doc *domain.Document, vector []float32, text string) (domain.IndexEntry, error) {
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return domain.IndexEntry{}, fmt.Errorf("marshal tags: %w", err)
	}

	return domain.IndexEntry{
		ID:     doc.ID,
		Vector: vector,
		Text:   truncateRunes(text, maxIndexTextLen),
		Metadata: map[string]string{
			"filename":  doc.Filename,
			"mime_type": doc.MimeType,
			"tags":      string(tagsJSON),
		},
	}, nil
}

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
