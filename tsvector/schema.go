package tsvector

import (
	"database/sql"
)

const docsSchema = `
CREATE TABLE IF NOT EXISTS docs (
    id TEXT PRIMARY KEY,
    content TEXT,
    meta TEXT,
    tsv BLOB
);
`

// EnsureSchema creates the base documents table in the provided database if
// it does not already exist. The tsv column holds the document's encoded
// text-search vector (see EncodeVector).
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(docsSchema)
	return err
}
