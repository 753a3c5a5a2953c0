package tsvutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/sqlite-tsv/tsvector"
)

// VectorizeFunc converts free-form text into a text-search vector.
//
// Implementations can run any tokenizer pipeline (stemming, stop words,
// external text-search services, etc.) as long as they return a normalized
// tsvector.Vector. The core sqlite-tsv packages remain tokenizer-agnostic and
// only depend on the vectors and their encoded BLOB representation.
type VectorizeFunc func(ctx context.Context, text string) (tsvector.Vector, error)

// SimpleVectorize is the default VectorizeFunc: it lowercases the document,
// splits it on non-alphanumeric runes and records word positions, like
// PostgreSQL's to_tsvector with the simple configuration minus stop words.
func SimpleVectorize(_ context.Context, text string) (tsvector.Vector, error) {
	return tsvector.Simple(text), nil
}

// ShadowTableName derives the default shadow table name for a given tsvlex
// virtual table. It mirrors the naming convention used by the tsvlex module,
// which prefixes the table name with _tsv_.
//
// For example:
//   ShadowTableName("docs_lex") == "_tsv_docs_lex".
//
// Schema/database qualification (e.g. main.) is handled by SQLite; this helper
// only returns the bare table name.
func ShadowTableName(virtualTable string) string {
	return "_tsv_" + virtualTable
}

// UpsertShadowDocument inserts or updates a document row in a tsvlex shadow
// table, computing the text-search vector from content using the provided
// VectorizeFunc.
//
// The shadowTable is typically derived via ShadowTableName or known
// explicitly. It is assumed to follow the schema created by the tsvlex module:
//   dataset_id TEXT NOT NULL
//   id         TEXT NOT NULL
//   content    TEXT
//   meta       TEXT
//   vector     BLOB
//   PRIMARY KEY(dataset_id, id)
//
// Table and column names are interpolated into SQL; callers should ensure
// that shadowTable is trusted and not derived from untrusted input.
func UpsertShadowDocument(
	ctx context.Context,
	db *sql.DB,
	shadowTable string,
	vectorize VectorizeFunc,
	dataset, id, content, meta string,
) error {
	if db == nil {
		return fmt.Errorf("tsvutil: db is nil")
	}
	if vectorize == nil {
		return fmt.Errorf("tsvutil: VectorizeFunc is nil")
	}

	v, err := vectorize(ctx, content)
	if err != nil {
		return err
	}
	blob, err := tsvector.EncodeVector(v)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf(`
INSERT INTO %s(dataset_id, id, content, meta, vector)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(dataset_id, id) DO UPDATE SET
  content = excluded.content,
  meta = excluded.meta,
  vector = excluded.vector`, shadowTable)

	_, err = db.ExecContext(ctx, stmt, dataset, id, content, meta, blob)
	return err
}

// UpsertVirtualTableDocument is a convenience wrapper around
// UpsertShadowDocument that derives the shadow table name from the virtual
// table name using ShadowTableName.
func UpsertVirtualTableDocument(
	ctx context.Context,
	db *sql.DB,
	virtualTable string,
	vectorize VectorizeFunc,
	dataset, id, content, meta string,
) error {
	shadow := ShadowTableName(virtualTable)
	return UpsertShadowDocument(ctx, db, shadow, vectorize, dataset, id, content, meta)
}
