// Package postgres provides a PostgreSQL document store using sqlx over
// the pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// uniqueViolation is the SQLSTATE for unique and primary key conflicts.
const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id            TEXT PRIMARY KEY,
    filename      TEXT NOT NULL,
    content       TEXT NOT NULL,
    mime_type     TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL,
    metadata      JSONB NOT NULL DEFAULT '{}',
    index_pending BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);
CREATE TABLE IF NOT EXISTS tags (
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    tag         TEXT NOT NULL,
    position    INTEGER NOT NULL,
    PRIMARY KEY (document_id, tag)
);
CREATE INDEX IF NOT EXISTS idx_tags_tag ON tags(tag);
`

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore on PostgreSQL.
type DocumentStore struct {
	db *sqlx.DB
}

// Open connects to dsn and creates the schema if needed.
func Open(ctx context.Context, dsn string) (*DocumentStore, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	s := &DocumentStore{db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewDocumentStore wraps an existing connection. The schema must exist.
func NewDocumentStore(db *sqlx.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// DB returns the underlying connection, for sharing with the pgvector index.
func (s *DocumentStore) DB() *sqlx.DB {
	return s.db
}

// Migrate creates the tables if they do not exist.
func (s *DocumentStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

type documentRow struct {
	ID           string    `db:"id"`
	Filename     string    `db:"filename"`
	Content      string    `db:"content"`
	MimeType     string    `db:"mime_type"`
	CreatedAt    time.Time `db:"created_at"`
	Metadata     []byte    `db:"metadata"`
	IndexPending bool      `db:"index_pending"`
	Tags         []byte    `db:"tags"`
}

// selectDocuments aggregates tags into a JSON array per row.
const selectDocuments = `
SELECT d.id, d.filename, d.content, d.mime_type, d.created_at, d.metadata, d.index_pending,
       COALESCE((SELECT json_agg(t.tag ORDER BY t.position) FROM tags t WHERE t.document_id = d.id), '[]') AS tags
FROM documents d`

// InsertWithTags writes the document and its tags in one transaction.
func (s *DocumentStore) InsertWithTags(ctx context.Context, doc *domain.Document) error {
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

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, filename, content, mime_type, created_at, metadata, index_pending)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, doc.ID, doc.Filename, doc.Content, doc.MimeType, doc.CreatedAt.UTC(), metadataJSON, doc.IndexPending)
	if isUniqueViolation(err) {
		return domain.DuplicateID("insert "+doc.ID, err)
	}
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}

	for i, tag := range doc.Tags {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tags (document_id, tag, position) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
			doc.ID, tag, i); err != nil {
			return fmt.Errorf("inserting tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing document: %w", err)
	}
	return nil
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	var row documentRow
	err := s.db.GetContext(ctx, &row, selectDocuments+" WHERE d.id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	doc, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FetchMany returns the documents that exist among ids.
func (s *DocumentStore) FetchMany(ctx context.Context, ids []string) (map[string]*domain.Document, error) {
	out := make(map[string]*domain.Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(selectDocuments+" WHERE d.id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("building fetch query: %w", err)
	}
	docs, err := s.selectDocs(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		out[docs[i].ID] = &docs[i]
	}
	return out, nil
}

// DeleteByID removes a document; tags cascade.
func (s *DocumentStore) DeleteByID(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return 0, fmt.Errorf("deleting document: %w", err)
	}
	return res.RowsAffected()
}

// ListAll returns all documents, newest first.
func (s *DocumentStore) ListAll(ctx context.Context) ([]domain.Document, error) {
	return s.selectDocs(ctx, selectDocuments+" ORDER BY d.created_at DESC, d.id ASC")
}

// Stats counts documents, distinct tags and pending documents.
func (s *DocumentStore) Stats(ctx context.Context) (domain.Stats, error) {
	var stats struct {
		Documents    int `db:"documents"`
		Tags         int `db:"tags"`
		IndexPending int `db:"pending"`
	}
	err := s.db.GetContext(ctx, &stats, `
		SELECT
			(SELECT COUNT(*) FROM documents) AS documents,
			(SELECT COUNT(DISTINCT tag) FROM tags) AS tags,
			(SELECT COUNT(*) FROM documents WHERE index_pending) AS pending
	`)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("reading stats: %w", err)
	}
	return domain.Stats{Documents: stats.Documents, Tags: stats.Tags, IndexPending: stats.IndexPending}, nil
}

// ListIndexPending returns up to limit pending documents, oldest first.
func (s *DocumentStore) ListIndexPending(ctx context.Context, limit int) ([]domain.Document, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	return s.selectDocs(ctx,
		selectDocuments+" WHERE d.index_pending ORDER BY d.created_at ASC, d.id ASC LIMIT $1", lim)
}

// SetIndexPending updates the pending flag.
func (s *DocumentStore) SetIndexPending(ctx context.Context, id string, pending bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE documents SET index_pending = $1 WHERE id = $2", pending, id)
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

func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *DocumentStore) Close() error {
	return s.db.Close()
}

func (s *DocumentStore) selectDocs(ctx context.Context, query string, args ...any) ([]domain.Document, error) {
	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("selecting documents: %w", err)
	}
	docs := make([]domain.Document, 0, len(rows))
	for _, r := range rows {
		doc, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r documentRow) toDomain() (domain.Document, error) {
	doc := domain.Document{
		ID:           r.ID,
		Filename:     r.Filename,
		Content:      r.Content,
		MimeType:     r.MimeType,
		CreatedAt:    r.CreatedAt.UTC(),
		Tags:         []string{},
		Metadata:     map[string]any{},
		IndexPending: r.IndexPending,
	}
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &doc.Metadata); err != nil {
			return domain.Document{}, fmt.Errorf("unmarshalling metadata of %s: %w", r.ID, err)
		}
	}
	if len(r.Tags) > 0 {
		if err := json.Unmarshal(r.Tags, &doc.Tags); err != nil {
			return domain.Document{}, fmt.Errorf("unmarshalling tags of %s: %w", r.ID, err)
		}
	}
	return doc, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
