package tsvutil

import (
	"context"
	"database/sql"
	"fmt"
)

// Collection provides a higher-level, document-store style API on top of a
// tsvlex virtual table and its shadow table. It remains tokenizer-agnostic by
// requiring a VectorizeFunc supplied by the caller.
type Collection struct {
	DB          *sql.DB
	VirtualName string
	ShadowName  string
	DatasetID   string
	Vectorize   VectorizeFunc
}

// NewCollection constructs a Collection for a given tsvlex virtual table name.
//
// The shadow table name is derived using ShadowTableName. The caller is
// responsible for having created both the virtual table and its shadow table
// schema.
func NewCollection(db *sql.DB, virtualTable string, datasetID string, vectorize VectorizeFunc) (*Collection, error) {
	if db == nil {
		return nil, fmt.Errorf("tsvutil: db is nil")
	}
	if vectorize == nil {
		return nil, fmt.Errorf("tsvutil: VectorizeFunc is nil")
	}
	return &Collection{
		DB:          db,
		VirtualName: virtualTable,
		ShadowName:  ShadowTableName(virtualTable),
		DatasetID:   datasetID,
		Vectorize:   vectorize,
	}, nil
}

// Document represents a logical document stored in the tsvlex shadow table.
// Metadata is modeled as a raw JSON (or other encoding) string for maximum
// flexibility.
type Document struct {
	ID      string
	Content string
	Meta    string
}

// LexemeRow is one expanded lexeme of a document as reported by the tsvlex
// virtual table. Positions carries the JSON position list, "" when the stored
// vector keeps no positions for the lexeme.
type LexemeRow struct {
	Lexeme    string
	Positions string
}

// UpsertDocumentsText upserts the provided documents into the shadow table,
// computing text-search vectors from Content using the Collection's
// VectorizeFunc.
func (c *Collection) UpsertDocumentsText(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	for _, d := range docs {
		if err := UpsertShadowDocument(ctx, c.DB, c.ShadowName, c.Vectorize, c.DatasetID, d.ID, d.Content, d.Meta); err != nil {
			return err
		}
	}
	return nil
}

// DeleteDocuments removes documents with the given ids from the shadow table.
// Triggers installed by the tsvlex module will invalidate any cached
// expansions and persisted statistics, causing them to be rebuilt on the next
// scan.
func (c *Collection) DeleteDocuments(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if c.DB == nil {
		return fmt.Errorf("tsvutil: DB is nil on Collection")
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE dataset_id = ? AND id = ?", c.ShadowName)
	for _, id := range ids {
		if _, err := c.DB.ExecContext(ctx, stmt, c.DatasetID, id); err != nil {
			return err
		}
	}
	return nil
}

// DocumentLexemes lists the lexemes of one document through the tsvlex
// virtual table, in canonical (bytewise ascending) order.
func (c *Collection) DocumentLexemes(ctx context.Context, id string) ([]LexemeRow, error) {
	if c.DB == nil {
		return nil, fmt.Errorf("tsvutil: DB is nil on Collection")
	}
	q := fmt.Sprintf("SELECT lexeme, positions FROM %s WHERE dataset_id = ? AND doc_id = ? ORDER BY lexeme", c.VirtualName)
	rows, err := c.DB.QueryContext(ctx, q, c.DatasetID, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LexemeRow
	for rows.Next() {
		var r LexemeRow
		var positions *string
		if err := rows.Scan(&r.Lexeme, &positions); err != nil {
			return nil, err
		}
		if positions != nil {
			r.Positions = *positions
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// FindWord returns the ids of the documents whose vector contains the given
// word, in ascending id order. The dataset constraint is pushed down to the
// tsvlex module; the lexeme filter is applied by SQLite over the expansion.
func (c *Collection) FindWord(ctx context.Context, word string) ([]string, error) {
	if c.DB == nil {
		return nil, fmt.Errorf("tsvutil: DB is nil on Collection")
	}
	q := fmt.Sprintf("SELECT doc_id FROM %s WHERE dataset_id = ? AND lexeme = ? ORDER BY doc_id", c.VirtualName)
	rows, err := c.DB.QueryContext(ctx, q, c.DatasetID, word)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
