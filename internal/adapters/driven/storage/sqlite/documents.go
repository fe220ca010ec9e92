package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = "id, filename, content, mime_type, created_at, metadata, index_pending"

type documentRow struct {
	ID           string `db:"id"`
	Filename     string `db:"filename"`
	Content      string `db:"content"`
	MimeType     string `db:"mime_type"`
	CreatedAt    string `db:"created_at"`
	Metadata     string `db:"metadata"`
	IndexPending bool   `db:"index_pending"`
}

type tagRow struct {
	DocumentID string `db:"document_id"`
	Tag        string `db:"tag"`
}

// InsertWithTags writes the document and its tags in one transaction.
func (s *documentStore) InsertWithTags(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}

	metadata := doc.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	tx, err := s.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Filename, doc.Content, doc.MimeType,
		formatTime(doc.CreatedAt), string(metadataJSON), boolToInt(doc.IndexPending))
	if isUniqueViolation(err) {
		return domain.DuplicateID("insert "+doc.ID, err)
	}
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}

	for i, tag := range doc.Tags {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO tags (document_id, tag, position) VALUES (?, ?, ?)",
			doc.ID, tag, i); err != nil {
			return fmt.Errorf("inserting tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return domain.DuplicateID("insert "+doc.ID, err)
		}
		return fmt.Errorf("committing document: %w", err)
	}
	return nil
}

// Get retrieves a document by ID.
func (s *documentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	var row documentRow
	err := s.store.db.GetContext(ctx, &row, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	docs, err := s.hydrate(ctx, []documentRow{row})
	if err != nil {
		return nil, err
	}
	return &docs[0], nil
}

// FetchMany returns the documents that exist among ids.
func (s *documentStore) FetchMany(ctx context.Context, ids []string) (map[string]*domain.Document, error) {
	out := make(map[string]*domain.Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In("SELECT "+documentColumns+" FROM documents WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("building fetch query: %w", err)
	}

	var rows []documentRow
	if err := s.store.db.SelectContext(ctx, &rows, s.store.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("fetching documents: %w", err)
	}

	docs, err := s.hydrate(ctx, rows)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		out[docs[i].ID] = &docs[i]
	}
	return out, nil
}

// DeleteByID removes a document and its tags.
func (s *documentStore) DeleteByID(ctx context.Context, id string) (int64, error) {
	tx, err := s.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tags WHERE document_id = ?", id); err != nil {
		return 0, fmt.Errorf("deleting tags: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("deleting document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing delete: %w", err)
	}
	return affected, nil
}

// ListAll returns all documents, newest first.
func (s *documentStore) ListAll(ctx context.Context) ([]domain.Document, error) {
	var rows []documentRow
	if err := s.store.db.SelectContext(ctx, &rows,
		"SELECT "+documentColumns+" FROM documents ORDER BY created_at DESC, id ASC"); err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return s.hydrate(ctx, rows)
}

// Stats counts documents, distinct tags and pending documents.
func (s *documentStore) Stats(ctx context.Context) (domain.Stats, error) {
	var counts struct {
		Documents    int `db:"documents"`
		IndexPending int `db:"pending"`
	}
	if err := s.store.db.GetContext(ctx, &counts,
		"SELECT COUNT(*) AS documents, COALESCE(SUM(index_pending), 0) AS pending FROM documents"); err != nil {
		return domain.Stats{}, fmt.Errorf("counting documents: %w", err)
	}

	var tags int
	if err := s.store.db.GetContext(ctx, &tags, "SELECT COUNT(DISTINCT tag) FROM tags"); err != nil {
		return domain.Stats{}, fmt.Errorf("counting tags: %w", err)
	}

	return domain.Stats{Documents: counts.Documents, Tags: tags, IndexPending: counts.IndexPending}, nil
}

// ListIndexPending returns up to limit pending documents, oldest first.
func (s *documentStore) ListIndexPending(ctx context.Context, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []documentRow
	if err := s.store.db.SelectContext(ctx, &rows,
		"SELECT "+documentColumns+" FROM documents WHERE index_pending = 1 ORDER BY created_at ASC, id ASC LIMIT ?",
		limit); err != nil {
		return nil, fmt.Errorf("listing pending documents: %w", err)
	}
	return s.hydrate(ctx, rows)
}

// SetIndexPending updates the pending flag.
func (s *documentStore) SetIndexPending(ctx context.Context, id string, pending bool) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE documents SET index_pending = ? WHERE id = ?", boolToInt(pending), id)
	if err != nil {
		return fmt.Errorf("updating index-pending: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *documentStore) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close is a no-op; the owning Store closes the connection.
func (s *documentStore) Close() error {
	return nil
}

// hydrate converts rows to documents and attaches their tags in position order.
func (s *documentStore) hydrate(ctx context.Context, rows []documentRow) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(rows))
	if len(rows) == 0 {
		return docs, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	tags, err := s.tagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		doc, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		if t, ok := tags[r.ID]; ok {
			doc.Tags = t
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *documentStore) tagsFor(ctx context.Context, ids []string) (map[string][]string, error) {
	query, args, err := sqlx.In(
		"SELECT document_id, tag FROM tags WHERE document_id IN (?) ORDER BY document_id, position", ids)
	if err != nil {
		return nil, fmt.Errorf("building tag query: %w", err)
	}

	var rows []tagRow
	if err := s.store.db.SelectContext(ctx, &rows, s.store.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("loading tags: %w", err)
	}

	out := make(map[string][]string, len(ids))
	for _, r := range rows {
		out[r.DocumentID] = append(out[r.DocumentID], r.Tag)
	}
	return out, nil
}

func (r documentRow) toDomain() (domain.Document, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.Document{}, fmt.Errorf("parsing created_at of %s: %w", r.ID, err)
	}

	var metadata map[string]any
	if err := json.Unmarshal([]byte(r.Metadata), &metadata); err != nil {
		return domain.Document{}, fmt.Errorf("unmarshalling metadata of %s: %w", r.ID, err)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	return domain.Document{
		ID:           r.ID,
		Filename:     r.Filename,
		Content:      r.Content,
		MimeType:     r.MimeType,
		CreatedAt:    createdAt,
		Tags:         []string{},
		Metadata:     metadata,
		IndexPending: r.IndexPending,
	}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
