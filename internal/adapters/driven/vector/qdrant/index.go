// Package qdrant provides a vector index backed by Qdrant's REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultTimeout bounds a single REST call.
const DefaultTimeout = 15 * time.Second

// payloadID is the payload key holding the original document ID.
const payloadID = "document_id"

// pointNamespace derives point UUIDs for document IDs that are not UUIDs.
var pointNamespace = uuid.MustParse("6f1c2a8e-4b7d-4e55-9a57-0d8f3c1e9b21")

// Config holds Qdrant connection settings.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Index stores one point per document in a cosine-distance collection.
type Index struct {
	baseURL    string
	apiKey     string
	collection string
	dimensions int
	client     *http.Client
}

// apiError is Qdrant's error envelope.
type apiError struct {
	Status struct {
		Error string `json:"error"`
	} `json:"status"`
}

// errCollectionMissing is returned by ensureCollection's probe on 404.
var errCollectionMissing = errors.New("collection missing")

// NewIndex connects to Qdrant and creates the collection if it does not exist.
func NewIndex(ctx context.Context, cfg Config, dimensions int) (*Index, error) {
	if cfg.URL == "" || cfg.Collection == "" {
		return nil, errors.New("qdrant: url and collection are required")
	}
	if dimensions <= 0 {
		return nil, errors.New("qdrant: dimensions must be positive")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	x := &Index{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimensions: dimensions,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
	if err := x.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return x, nil
}

func (x *Index) ensureCollection(ctx context.Context) error {
	err := x.do(ctx, http.MethodGet, x.collectionPath(""), nil, nil)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errCollectionMissing) {
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{"size": x.dimensions, "distance": "Cosine"},
	}
	return x.do(ctx, http.MethodPut, x.collectionPath(""), body, nil)
}

// Upsert inserts or replaces the point for entry.ID.
func (x *Index) Upsert(ctx context.Context, entry domain.IndexEntry) error {
	if len(entry.Vector) != x.dimensions {
		return domain.Validation("qdrant upsert", fmt.Errorf("vector has %d dimensions, collection expects %d", len(entry.Vector), x.dimensions))
	}

	payload := map[string]any{payloadID: entry.ID, "text": entry.Text}
	for k, v := range entry.Metadata {
		payload[k] = v
	}
	body := map[string]any{
		"points": []map[string]any{{
			"id":      pointID(entry.ID),
			"vector":  entry.Vector,
			"payload": payload,
		}},
	}
	return x.do(ctx, http.MethodPut, x.collectionPath("/points?wait=true"), body, nil)
}

// QueryTopK returns the k nearest points. Qdrant reports cosine similarity,
// converted here to distance.
func (x *Index) QueryTopK(ctx context.Context, vector []float32, k int) ([]domain.VectorHit, error) {
	if k <= 0 {
		return []domain.VectorHit{}, nil
	}
	if len(vector) != x.dimensions {
		return nil, domain.Validation("qdrant query", fmt.Errorf("query has %d dimensions, collection expects %d", len(vector), x.dimensions))
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": []string{payloadID},
	}
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := x.do(ctx, http.MethodPost, x.collectionPath("/points/search"), req, &resp); err != nil {
		return nil, err
	}

	hits := make([]domain.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		id, _ := r.Payload[payloadID].(string)
		if id == "" {
			id = fmt.Sprint(r.ID)
		}
		hits = append(hits, domain.VectorHit{ID: id, Distance: 1 - r.Score})
	}
	return hits, nil
}

// Delete removes the point. Missing points are not an error.
func (x *Index) Delete(ctx context.Context, id string) error {
	body := map[string]any{"points": []string{pointID(id)}}
	return x.do(ctx, http.MethodPost, x.collectionPath("/points/delete?wait=true"), body, nil)
}

// Ping checks that the collection is reachable.
func (x *Index) Ping(ctx context.Context) error {
	return x.do(ctx, http.MethodGet, x.collectionPath(""), nil, nil)
}

// Close releases idle connections.
func (x *Index) Close() error {
	x.client.CloseIdleConnections()
	return nil
}

// pointID maps a document ID to a Qdrant point ID. UUIDs pass through;
// other strings get a stable name-based UUID.
func pointID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return uuid.NewSHA1(pointNamespace, []byte(id)).String()
}

func (x *Index) collectionPath(suffix string) string {
	return x.baseURL + "/collections/" + url.PathEscape(x.collection) + suffix
}

func (x *Index) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("qdrant: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("qdrant: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && method == http.MethodGet {
		_, _ = io.Copy(io.Discard, resp.Body)
		return errCollectionMissing
	}
	if resp.StatusCode >= 300 {
		var apiErr apiError
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Status.Error != "" {
			return fmt.Errorf("qdrant: %s %s: %s: %s", method, endpoint, resp.Status, apiErr.Status.Error)
		}
		return fmt.Errorf("qdrant: %s %s: %s", method, endpoint, resp.Status)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("qdrant: decode response: %w", err)
	}
	return nil
}
