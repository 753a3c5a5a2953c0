package tsvlex

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"

	j "github.com/goccy/go-json"
	"github.com/viant/sqlite-tsv/tsvector"
	"github.com/viant/sqlite-tsv/tsvstat"
	"golang.org/x/sync/singleflight"
	sqlite "modernc.org/sqlite"
	"modernc.org/sqlite/vtab"
)

// Module implements vtab.Module for the tsvlex virtual table. It creates a
// per-table shadow store and expands each stored vector into lexeme rows.
type Module struct {
	db *sql.DB
}

// Table represents a single tsvlex virtual table instance.
type Table struct {
	db        *sql.DB
	dbName    string
	tableName string
	shadow    string // qualified shadow table name (e.g. "main._tsv_docs")

	dbPathOnce sync.Once
	dbPathErr  error
	dbPath     string
}

// lexRow is one expanded row: a single lexeme of a single document.
type lexRow struct {
	rowid     int64
	dataset   string
	id        string
	lexeme    string
	positions string // JSON array of {"pos","weight"} objects, "" when none
}

// Global shared cache of expanded rows keyed by db path/table/dataset for
// cross-connection reuse. Builds go through a singleflight group so each
// dataset is decoded once no matter how many scans ask for it concurrently.
var sharedCache = struct {
	mu    sync.RWMutex
	byKey map[string][]lexRow
}{byKey: make(map[string][]lexRow)}

var buildGroup singleflight.Group

var registerInvalidateOnce sync.Once

func cacheKey(dbPath, tableName, dataset string) string {
	return dbPath + "|" + tableName + "|" + dataset
}

func getCachedRows(key string) ([]lexRow, bool) {
	sharedCache.mu.RLock()
	rows, ok := sharedCache.byKey[key]
	sharedCache.mu.RUnlock()
	return rows, ok
}

func setCachedRows(key string, rows []lexRow) {
	sharedCache.mu.Lock()
	sharedCache.byKey[key] = rows
	sharedCache.mu.Unlock()
}

// InvalidateCache drops cached expansions for a given shadow/dataset across
// active connections. An empty dataset drops every dataset of the table.
func InvalidateCache(shadow, dataset string) int {
	tableName := tableNameFromShadow(shadow)
	if tableName == "" {
		tableName = shadow
	}
	sharedCache.mu.Lock()
	defer sharedCache.mu.Unlock()
	count := 0
	if dataset == "" {
		pattern := "|" + tableName + "|"
		for k := range sharedCache.byKey {
			if strings.Contains(k, pattern) {
				delete(sharedCache.byKey, k)
				buildGroup.Forget(k)
				count++
			}
		}
		return count
	}
	suffix := "|" + tableName + "|" + dataset
	for k := range sharedCache.byKey {
		if strings.HasSuffix(k, suffix) {
			delete(sharedCache.byKey, k)
			buildGroup.Forget(k)
			count++
		}
	}
	return count
}

// invalidateFunc implements SQL scalar tsv_invalidate(shadow TEXT, dataset TEXT) → INT.
func invalidateFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return int64(0), nil
	}
	shadow, err := asString(args[0])
	if err != nil {
		return int64(0), nil
	}
	dataset, err := asString(args[1])
	if err != nil {
		return int64(0), nil
	}
	n := InvalidateCache(shadow, dataset)
	return int64(n), nil
}

const (
	idxDatasetScan = iota
	idxDatasetDoc
)

// Cursor scans expansion rows from a tsvlex table.
type Cursor struct {
	table *Table
	rows  []lexRow
	pos   int
}

// Register registers the tsvlex virtual table module with the provided *sql.DB.
func Register(db *sql.DB) error {
	mod := &Module{db: db}
	if err := vtab.RegisterModule(db, "tsvlex", mod); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
	}
	// Register tsv_invalidate globally for new connections; idempotent.
	registerInvalidateOnce.Do(func() { _ = sqlite.RegisterDeterministicScalarFunction("tsv_invalidate", 2, invalidateFunc) })
	return nil
}

// docColumn returns the declared document-id column name from the CREATE
// args (e.g. USING tsvlex(doc_id)).
func docColumn(args []string) string {
	if len(args) > 3 {
		a := strings.TrimSpace(args[3])
		if a != "" && !strings.Contains(a, "=") {
			return a
		}
	}
	return "doc_id"
}

// Create initializes a tsvlex table instance and declares its schema.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("tsvlex: CREATE expects at least 3 args, got %d", len(args))
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("tsvlex: EnableConstraintSupport failed: %w", err)
	}
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(dataset_id TEXT, %s TEXT, lexeme TEXT, positions TEXT)", args[2], docColumn(args))); err != nil {
		return nil, err
	}
	t := &Table{db: m.db, dbName: args[1], tableName: args[2]}
	// Initialize shadow name eagerly so subsequent statements on the same connection work.
	t.shadow = t.qualifiedShadow()
	// Defer shadow/storage creation until first use to avoid cross-connection DDL during xCreate.
	return t, nil
}

// Connect attaches to an existing tsvlex table instance.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("tsvlex: CONNECT expects at least 3 args, got %d", len(args))
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("tsvlex: EnableConstraintSupport failed: %w", err)
	}
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(dataset_id TEXT, %s TEXT, lexeme TEXT, positions TEXT)", args[2], docColumn(args))); err != nil {
		return nil, err
	}
	t := &Table{db: m.db, dbName: args[1], tableName: args[2]}
	// Reconstruct the shadow name; creation stays deferred until first use.
	t.shadow = t.qualifiedShadow()
	return t, nil
}

// BestIndex requires dataset_id equality; an equality on the document-id
// column narrows the scan to one document.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	var (
		datasetConstraint *vtab.Constraint
		docConstraint     *vtab.Constraint
		nextArg           int
	)

	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		switch {
		case c.Column == 0 && c.Op == vtab.OpEQ:
			datasetConstraint = c
		case c.Column == 1 && c.Op == vtab.OpEQ:
			docConstraint = c
		}
	}

	if datasetConstraint == nil {
		return fmt.Errorf("tsvlex: dataset_id constraint required")
	}
	datasetConstraint.ArgIndex = nextArg
	datasetConstraint.Omit = true
	nextArg++

	if docConstraint == nil {
		info.IdxNum = idxDatasetScan
		return nil
	}
	docConstraint.ArgIndex = nextArg
	docConstraint.Omit = true
	info.IdxNum = idxDatasetDoc
	return nil
}

// Open allocates a new cursor.
func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }

// Disconnect cleans up per-connection resources.
func (t *Table) Disconnect() error { return nil }

// Destroy drops nothing for now; shadow persists.
func (t *Table) Destroy() error { return nil }

// Filter computes the result set based on idxNum/vals.
func (c *Cursor) Filter(idxNum int, idxStr string, vals []vtab.Value) error {
	_ = idxStr
	if c.table == nil || c.table.db == nil {
		c.rows = nil
		c.pos = 0
		return nil
	}
	if len(vals) == 0 || vals[0] == nil {
		return fmt.Errorf("tsvlex: dataset_id argument is required")
	}
	dataset, err := asString(vals[0])
	if err != nil {
		return err
	}
	ctx := context.Background()
	rows, err := c.table.ensureRows(ctx, dataset)
	if err != nil {
		return err
	}

	switch idxNum {
	case idxDatasetScan:
		c.rows = rows
	case idxDatasetDoc:
		if len(vals) < 2 || vals[1] == nil {
			return fmt.Errorf("tsvlex: document id argument is required")
		}
		id, err := asString(vals[1])
		if err != nil {
			return err
		}
		out := make([]lexRow, 0, 8)
		for _, r := range rows {
			if r.id == id {
				out = append(out, r)
			}
		}
		c.rows = out
	default:
		return fmt.Errorf("tsvlex: unsupported query plan")
	}
	c.pos = 0
	return nil
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

// Eof reports end-of-rows.
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

// Column returns the value of a column in the current row.
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("tsvlex: Column out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	row := c.rows[c.pos]
	switch col {
	case 0:
		return row.dataset, nil
	case 1:
		return row.id, nil
	case 2:
		return row.lexeme, nil
	case 3:
		if row.positions == "" {
			return nil, nil
		}
		return row.positions, nil
	}
	return nil, fmt.Errorf("tsvlex: unsupported column %d", col)
}

// Rowid returns the current rowid.
func (c *Cursor) Rowid() (int64, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return 0, fmt.Errorf("tsvlex: Rowid out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	return c.rows[c.pos].rowid, nil
}

// Close releases resources.
func (c *Cursor) Close() error { c.rows = nil; c.pos = 0; return nil }

// ensureShadow ensures the per-table shadow table, the shared storage table
// and the invalidation triggers exist.
func (t *Table) ensureShadow() error {
	if t.db == nil {
		return fmt.Errorf("tsvlex: db is nil")
	}
	name := t.qualifiedShadow()
	t.shadow = name
	stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    dataset_id TEXT NOT NULL,
    id TEXT NOT NULL,
    content TEXT,
    meta TEXT,
    vector BLOB,
    PRIMARY KEY(dataset_id, id)
);
`, name)
	if _, err := t.db.Exec(stmt); err != nil {
		return err
	}
	// The triggers below delete from tsv_storage, so it must exist first.
	if err := tsvstat.EnsureStorage(t.db); err != nil {
		return err
	}
	// Create triggers to invalidate cached expansions and persisted
	// statistics on any shadow change.
	trigBase := sanitizeName("trg_tsv_" + t.shadow)
	shadowLit := quoteLiteral(t.shadow)
	delNew := `DELETE FROM tsv_storage WHERE shadow_table_name = ` + shadowLit + ` AND dataset_id = NEW.dataset_id;`
	invNew := `SELECT tsv_invalidate(` + shadowLit + `, NEW.dataset_id);`
	delOld := `DELETE FROM tsv_storage WHERE shadow_table_name = ` + shadowLit + ` AND dataset_id = OLD.dataset_id;`
	invOld := `SELECT tsv_invalidate(` + shadowLit + `, OLD.dataset_id);`
	// AFTER INSERT
	stmtIns := fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_ins AFTER INSERT ON %s BEGIN %s %s END;`, trigBase, name, delNew, invNew)
	if _, err := t.db.Exec(stmtIns); err != nil {
		return err
	}
	// AFTER UPDATE - invalidate both NEW and OLD datasets (handles dataset moves).
	stmtUpd := fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_upd AFTER UPDATE ON %s BEGIN %s %s %s %s END;`, trigBase, name, delNew, invNew, delOld, invOld)
	if _, err := t.db.Exec(stmtUpd); err != nil {
		return err
	}
	// AFTER DELETE
	stmtDel := fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_del AFTER DELETE ON %s BEGIN %s %s END;`, trigBase, name, delOld, invOld)
	if _, err := t.db.Exec(stmtDel); err != nil {
		return err
	}
	return nil
}

// qualifiedShadow returns a fully-qualified shadow table name.
func (t *Table) qualifiedShadow() string {
	// Use a deterministic shadow name to avoid clashes, prefixed with _tsv_.
	base := "_tsv_" + t.tableName
	if strings.TrimSpace(t.dbName) == "" {
		return base
	}
	return t.dbName + "." + base
}

func tableNameFromShadow(shadow string) string {
	if shadow == "" {
		return ""
	}
	if i := strings.Index(shadow, "._tsv_"); i >= 0 {
		return shadow[i+len("._tsv_"):]
	}
	if strings.HasPrefix(shadow, "_tsv_") {
		return strings.TrimPrefix(shadow, "_tsv_")
	}
	return ""
}

func resolveDbPath(ctx context.Context, db *sql.DB, dbName string) (string, error) {
	if db == nil {
		return "", fmt.Errorf("tsvlex: db is nil")
	}
	rows, err := db.QueryContext(ctx, `SELECT name, file FROM pragma_database_list`)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	for rows.Next() {
		var name, file string
		if err := rows.Scan(&name, &file); err != nil {
			return "", err
		}
		if dbName == "" {
			if name == "main" {
				if file == "" {
					return name, nil
				}
				return file, nil
			}
		} else if name == dbName {
			if file == "" {
				return name, nil
			}
			return file, nil
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if dbName != "" {
		return dbName, nil
	}
	return "main", nil
}

func (t *Table) cachedDbPath(ctx context.Context) string {
	t.dbPathOnce.Do(func() {
		path, err := resolveDbPath(ctx, t.db, t.dbName)
		if err != nil {
			t.dbPathErr = err
			if t.dbName != "" {
				t.dbPath = t.dbName
			} else {
				t.dbPath = "main"
			}
			return
		}
		t.dbPath = path
	})
	return t.dbPath
}

// ensureRows loads or builds the expanded lexeme rows for one dataset.
func (t *Table) ensureRows(ctx context.Context, dataset string) ([]lexRow, error) {
	if err := t.ensureShadow(); err != nil {
		return nil, err
	}
	dbPath := t.cachedDbPath(ctx)
	key := cacheKey(dbPath, t.tableName, dataset)
	if rows, ok := getCachedRows(key); ok {
		return rows, nil
	}
	v, err, _ := buildGroup.Do(key, func() (interface{}, error) {
		if rows, ok := getCachedRows(key); ok {
			return rows, nil
		}
		rows, err := t.expandRows(ctx, dataset)
		if err != nil {
			return nil, err
		}
		setCachedRows(key, rows)
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]lexRow), nil
}

// expandRows decodes every stored vector of a dataset into per-lexeme rows,
// in shadow rowid order.
func (t *Table) expandRows(ctx context.Context, dataset string) ([]lexRow, error) {
	q := fmt.Sprintf("SELECT id, vector FROM %s WHERE dataset_id = ? AND vector IS NOT NULL ORDER BY rowid", t.shadow)
	rows, err := t.db.QueryContext(ctx, q, dataset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []lexRow
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		if len(blob) == 0 {
			continue
		}
		v, err := tsvector.DecodeVector(blob)
		if err != nil {
			return nil, err
		}
		for _, lexeme := range v.Lexemes() {
			positions, err := positionsJSON(lexeme)
			if err != nil {
				return nil, err
			}
			out = append(out, lexRow{
				rowid:     int64(len(out) + 1),
				dataset:   dataset,
				id:        id,
				lexeme:    lexeme.Text(),
				positions: positions,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type jsonPosition struct {
	Pos    int    `json:"pos"`
	Weight string `json:"weight,omitempty"`
}

// positionsJSON renders a lexeme's position list as a JSON array. The default
// weight is omitted, like in the canonical text form; lexemes without
// positions yield "" (surfaced as SQL NULL).
func positionsJSON(lexeme tsvector.Lexeme) (string, error) {
	positions := lexeme.Positions()
	if len(positions) == 0 {
		return "", nil
	}
	items := make([]jsonPosition, 0, len(positions))
	for _, p := range positions {
		item := jsonPosition{Pos: p.Pos()}
		if w := p.Weight(); w != tsvector.WeightD {
			item.Weight = w.String()
		}
		items = append(items, item)
	}
	data, err := j.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func asString(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case nil:
		return "", fmt.Errorf("tsvlex: value is nil")
	default:
		return "", fmt.Errorf("tsvlex: unsupported value type %T", v)
	}
}

// sanitizeName converts a qualified name into a safe identifier for triggers.
func sanitizeName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case '.', '-', ' ':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// quoteLiteral returns a SQL string literal with single quotes escaped.
func quoteLiteral(s string) string {
	escaped := strings.ReplaceAll(s, "'", "''")
	return "'" + escaped + "'"
}
