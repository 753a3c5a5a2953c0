package tsvstat

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/sqlite-tsv/tsvector"
)

// EnsureStorage ensures the shared tsv_storage table exists.
func EnsureStorage(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("tsvstat: db is nil")
	}
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS tsv_storage (
    shadow_table_name TEXT NOT NULL,
    dataset_id        TEXT NOT NULL DEFAULT '',
    stat              BLOB,
    PRIMARY KEY (shadow_table_name, dataset_id)
)`)
	return err
}

// Collect builds statistics over every stored vector of a dataset in the
// given shadow table. Rows with an empty vector column are skipped.
func Collect(ctx context.Context, db *sql.DB, shadow, dataset string) (*Statistics, error) {
	if db == nil {
		return nil, fmt.Errorf("tsvstat: db is nil")
	}
	q := fmt.Sprintf("SELECT vector FROM %s WHERE dataset_id = ? AND vector IS NOT NULL", shadow)
	rows, err := db.QueryContext(ctx, q, dataset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stats := New()
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		if len(blob) == 0 {
			continue
		}
		v, err := tsvector.DecodeVector(blob)
		if err != nil {
			return nil, err
		}
		stats.Add(v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// Persist stores the statistics blob for a (shadow table, dataset) pair,
// replacing any previous one.
func Persist(ctx context.Context, db *sql.DB, shadow, dataset string, s *Statistics) error {
	if err := EnsureStorage(db); err != nil {
		return err
	}
	data, err := s.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT OR REPLACE INTO tsv_storage(shadow_table_name, dataset_id, stat) VALUES(?, ?, ?)`, shadow, dataset, data)
	return err
}

// LoadPersisted fetches previously persisted statistics. It reports ok=false
// when nothing usable is stored, so callers can rebuild via Collect.
func LoadPersisted(ctx context.Context, db *sql.DB, shadow, dataset string) (*Statistics, bool, error) {
	if db == nil {
		return nil, false, fmt.Errorf("tsvstat: db is nil")
	}
	var blob []byte
	err := db.QueryRowContext(ctx, `SELECT stat FROM tsv_storage WHERE shadow_table_name = ? AND dataset_id = ?`, shadow, dataset).Scan(&blob)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(blob) == 0 {
		return nil, false, nil
	}
	s := New()
	if err := s.UnmarshalBinary(blob); err != nil {
		return nil, false, nil
	}
	return s, true, nil
}
