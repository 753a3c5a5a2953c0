package tsvadmin

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/viant/sqlite-tsv/tsvector"
	"github.com/viant/sqlite-tsv/tsvstat"
	"modernc.org/sqlite/vtab"
)

// Module provides administrative operations via a virtual table.
// Usage:
//   CREATE VIRTUAL TABLE tsv_admin USING tsv_admin(op);
//   SELECT op FROM tsv_admin WHERE op MATCH 'recanonicalize:main._tsv_docs';
//   SELECT op FROM tsv_admin WHERE op MATCH 'restat:main._tsv_docs';
// recanonicalize rewrites stored vector blobs that are not in canonical form
// and returns op='recanonicalized:<count>'; restat rebuilds and persists the
// lexeme statistics of every dataset and returns op='restat:<words>:<entries>'.
type Module struct { db *sql.DB }

type Table struct { db *sql.DB }

type Cursor struct {
	table *Table
	rows  []string
	pos   int
}

func Register(db *sql.DB) error {
	if err := vtab.RegisterModule(db, "tsv_admin", &Module{db: db}); err != nil {
		if !strings.Contains(err.Error(), "already registered") { return err }
	}
	return nil
}

func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 { return nil, fmt.Errorf("tsv_admin: need at least 3 args") }
	// Single TEXT column `op` reporting results.
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(op)", args[2])); err != nil { return nil, err }
	return &Table{db: m.db}, nil
}
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 { return nil, fmt.Errorf("tsv_admin: need at least 3 args") }
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(op)", args[2])); err != nil { return nil, err }
	return &Table{db: m.db}, nil
}

func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable { continue }
		if c.Column == 0 && c.Op == vtab.OpMATCH { c.ArgIndex = 1; info.IdxNum = 1; break }
	}
	return nil
}

func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }
func (t *Table) Disconnect() error { return nil }
func (t *Table) Destroy() error { return nil }

func (c *Cursor) Filter(idxNum int, idxStr string, vals []vtab.Value) error {
	c.rows = nil
	c.pos = 0
	if idxNum != 1 || len(vals) == 0 || vals[0] == nil { return nil }
	op, ok := vals[0].(string)
	if !ok { return fmt.Errorf("tsv_admin: MATCH expects an op as TEXT") }
	parts := strings.SplitN(op, ":", 2)
	if len(parts) != 2 || parts[1] == "" { return fmt.Errorf("tsv_admin: op %q, want <verb>:<shadow>", op) }
	verb, shadow := parts[0], parts[1]
	switch verb {
	case "recanonicalize":
		n, err := recanonicalize(c.table.db, shadow)
		if err != nil { return err }
		c.rows = []string{fmt.Sprintf("recanonicalized:%d", n)}
	case "restat":
		words, entries, err := restat(c.table.db, shadow)
		if err != nil { return err }
		c.rows = []string{fmt.Sprintf("restat:%d:%d", words, entries)}
	default:
		return fmt.Errorf("tsv_admin: unknown op %q", verb)
	}
	return nil
}

func (c *Cursor) Next() error { if c.pos < len(c.rows) { c.pos++ }; return nil }
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) { return nil, fmt.Errorf("tsv_admin: Column out of range") }
	if col == 0 { return c.rows[c.pos], nil }
	return nil, nil
}
func (c *Cursor) Rowid() (int64, error) { return int64(c.pos + 1), nil }
func (c *Cursor) Close() error { c.rows = nil; c.pos = 0; return nil }

// recanonicalize decodes every stored vector of the given shadow table and
// rewrites the rows whose blob differs from the canonical encoding.
func recanonicalize(db *sql.DB, shadow string) (int, error) {
	ctx := context.Background()
	// Acquire single-writer gate for this rewrite via transaction. BEGIN IMMEDIATE
	// ensures a write reservation and cooperates with busy_timeout.
	if _, err := db.ExecContext(ctx, `BEGIN IMMEDIATE`); err != nil {
		return 0, err
	}
	defer func() { _, _ = db.ExecContext(ctx, `ROLLBACK`) }()

	q := fmt.Sprintf("SELECT rowid, vector FROM %s WHERE vector IS NOT NULL", shadow)
	rows, err := db.QueryContext(ctx, q)
	if err != nil { return 0, err }
	type rewrite struct {
		rowid int64
		blob  []byte
	}
	var rewrites []rewrite
	for rows.Next() {
		var rowid int64
		var blob []byte
		if err := rows.Scan(&rowid, &blob); err != nil { rows.Close(); return 0, err }
		if len(blob) == 0 { continue }
		v, err := tsvector.DecodeVector(blob)
		if err != nil { rows.Close(); return 0, err }
		canonical, err := tsvector.EncodeVector(v)
		if err != nil { rows.Close(); return 0, err }
		if !bytes.Equal(blob, canonical) { rewrites = append(rewrites, rewrite{rowid: rowid, blob: canonical}) }
	}
	if err := rows.Err(); err != nil { rows.Close(); return 0, err }
	rows.Close()

	upd := fmt.Sprintf("UPDATE %s SET vector = ? WHERE rowid = ?", shadow)
	for _, r := range rewrites {
		if _, err := db.ExecContext(ctx, upd, r.blob, r.rowid); err != nil { return 0, err }
	}
	if _, err := db.ExecContext(ctx, `COMMIT`); err != nil {
		return 0, err
	}
	return len(rewrites), nil
}

// restat rebuilds and persists lexeme statistics for every dataset of the
// given shadow table. It returns the summed distinct-word and occurrence
// counts across datasets.
func restat(db *sql.DB, shadow string) (int, int, error) {
	ctx := context.Background()
	q := fmt.Sprintf("SELECT DISTINCT dataset_id FROM %s", shadow)
	rows, err := db.QueryContext(ctx, q)
	if err != nil { return 0, 0, err }
	var datasets []string
	for rows.Next() {
		var dataset string
		if err := rows.Scan(&dataset); err != nil { rows.Close(); return 0, 0, err }
		datasets = append(datasets, dataset)
	}
	if err := rows.Err(); err != nil { rows.Close(); return 0, 0, err }
	rows.Close()

	words, entries := 0, 0
	for _, dataset := range datasets {
		stats, err := tsvstat.Collect(ctx, db, shadow, dataset)
		if err != nil { return 0, 0, err }
		if err := tsvstat.Persist(ctx, db, shadow, dataset, stats); err != nil { return 0, 0, err }
		words += stats.Len()
		for _, entry := range stats.Top(-1) { entries += entry.NEntry }
	}
	return words, entries, nil
}
