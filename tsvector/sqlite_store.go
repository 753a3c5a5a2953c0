package tsvector

import (
	"context"
	"database/sql"
	"fmt"
)

// Document represents a logical document stored alongside its text-search
// vector.
type Document struct {
	// ID is the logical identifier of the document.
	ID string

	// Content holds the main text/body of the document.
	Content string

	// Metadata is an opaque payload associated with the document, modeled as
	// a raw string so callers choose their own serialization.
	Metadata string

	// Vector is the text-search vector of the document content. Callers
	// typically derive it with Simple or Parse before inserting.
	Vector Vector
}

// Store defines the application-level document store API. Implementations in
// this module use SQLite for durable storage, keeping each document's vector
// as a TSV1 blob next to its content.
type Store interface {
	// AddDocuments inserts documents into the store and returns their IDs.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// Document fetches a single document, decoding its stored vector.
	Document(ctx context.Context, id string) (Document, error)

	// Documents returns up to limit documents in insertion order, with their
	// vectors decoded.
	Documents(ctx context.Context, limit int) ([]Document, error)

	// Remove deletes the document with the given ID.
	Remove(ctx context.Context, id string) error
}

// SQLiteStore is a minimal implementation of Store on a SQLite database. It
// stores exactly what it is given; deriving vectors from content belongs to
// callers (see Simple and the tsvutil helpers).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed Store. It ensures the base docs
// schema exists in the provided database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("tsvector: db is nil")
	}
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// AddDocuments inserts documents into the docs table. Document.ID must be
// non-empty; vectors are encoded into the tsv BLOB column.
func (s *SQLiteStore) AddDocuments(ctx context.Context, docs []Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO docs(id, content, meta, tsv) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			return nil, fmt.Errorf("tsvector: Document.ID must be set in AddDocuments")
		}
		blob, err := EncodeVector(d.Vector)
		if err != nil {
			return nil, err
		}
		if _, err := stmt.ExecContext(ctx, d.ID, d.Content, d.Metadata, blob); err != nil {
			return nil, err
		}
		ids = append(ids, d.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Document fetches one document by ID and decodes its stored vector.
func (s *SQLiteStore) Document(ctx context.Context, id string) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("tsvector: Document called with empty id")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		d    Document
		blob []byte
	)
	row := s.db.QueryRowContext(ctx, `SELECT id, content, meta, tsv FROM docs WHERE id = ?`, id)
	if err := row.Scan(&d.ID, &d.Content, &d.Metadata, &blob); err != nil {
		return Document{}, err
	}
	vec, err := DecodeVector(blob)
	if err != nil {
		return Document{}, err
	}
	d.Vector = vec
	return d, nil
}

// Documents returns up to limit documents in insertion order with decoded
// vectors. A non-positive limit returns nothing.
func (s *SQLiteStore) Documents(ctx context.Context, limit int) ([]Document, error) {
	if limit <= 0 {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, content, meta, tsv FROM docs ORDER BY rowid LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var (
			d    Document
			blob []byte
		)
		if err := rows.Scan(&d.ID, &d.Content, &d.Metadata, &blob); err != nil {
			return nil, err
		}
		vec, err := DecodeVector(blob)
		if err != nil {
			return nil, err
		}
		d.Vector = vec
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Remove deletes a document by ID from the docs table.
func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("tsvector: Remove called with empty id")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM docs WHERE id = ?`, id)
	return err
}

// Ensure SQLiteStore satisfies the Store interface.
var _ Store = (*SQLiteStore)(nil)
