package tsvadmin

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/viant/sqlite-tsv/engine"
	"github.com/viant/sqlite-tsv/tsvector"
	"github.com/viant/sqlite-tsv/tsvstat"
)

func mustEncode(t *testing.T, input string) []byte {
	t.Helper()
	v, err := tsvector.Parse(input)
	if err != nil { t.Fatalf("Parse(%q) failed: %v", input, err) }
	blob, err := tsvector.EncodeVector(v)
	if err != nil { t.Fatalf("EncodeVector(%q) failed: %v", input, err) }
	return blob
}

// nonCanonicalBlob builds a valid vector blob whose lexemes are stored out of
// order, so the canonical re-encoding differs byte for byte.
func nonCanonicalBlob() []byte {
	payload := []byte{
		0, 0, 0, 2, // two lexemes
		'd', 'o', 'g', 0, 0, 1, 0, 1, // "dog", one position: 1
		'c', 'a', 't', 0, 0, 1, 0, 2, // "cat", one position: 2
	}
	return append([]byte("TSV1\x00"), payload...)
}

func TestTsvAdminRecanonicalize(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tsv_admin.sqlite")
	db, err := engine.Open(dbPath)
	if err != nil { t.Fatalf("engine.Open failed: %v", err) }
	defer db.Close()
	if err := Register(db); err != nil { t.Fatalf("tsvadmin.Register failed: %v", err) }
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		t.Fatalf("PRAGMA setup failed: %v", err)
	}

	// Create admin virtual table on a connection opened after Register so module is visible
	if conn, err := db.Conn(context.Background()); err != nil {
		t.Fatalf("Conn failed: %v", err)
	} else {
		defer conn.Close()
		if _, err := conn.ExecContext(context.Background(), `CREATE VIRTUAL TABLE tsv_admin USING tsv_admin(op)`); err != nil {
			if strings.Contains(err.Error(), "no such module") {
				t.Skipf("skipping: tsv_admin vtab not available (%v)", err)
			}
			t.Fatalf("CREATE VIRTUAL TABLE tsv_admin failed: %v", err)
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _tsv_adm_docs (
        dataset_id TEXT NOT NULL,
        id TEXT NOT NULL,
        content TEXT,
        meta TEXT,
        vector BLOB,
        PRIMARY KEY(dataset_id, id)
    )`); err != nil { t.Fatalf("create shadow: %v", err) }

	if _, err := db.Exec(`INSERT INTO _tsv_adm_docs(dataset_id, id, content, meta, vector) VALUES
        ('', 'ok', '', '{}', ?),
        ('', 'stale', '', '{}', ?)`, mustEncode(t, "cat:1 dog:2"), nonCanonicalBlob()); err != nil {
		t.Fatalf("insert shadow failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	rows, err := db.QueryContext(ctx, `SELECT op FROM tsv_admin WHERE op MATCH 'recanonicalize:main._tsv_adm_docs'`)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded || strings.Contains(err.Error(), "xBestIndex malfunction") {
			t.Skipf("skipping: tsv_admin MATCH not supported in this environment (%v)", err)
		}
		t.Fatalf("tsv_admin MATCH failed: %v", err)
	}
	defer rows.Close()
	if !rows.Next() { t.Fatalf("expected one result from tsv_admin") }
	var op string
	if err := rows.Scan(&op); err != nil { t.Fatalf("scan op: %v", err) }
	if op != "recanonicalized:1" { t.Fatalf("op = %q, want recanonicalized:1", op) }
	rows.Close()

	// The rewritten blob must now round-trip to identical bytes.
	var blob []byte
	if err := db.QueryRow(`SELECT vector FROM _tsv_adm_docs WHERE id = 'stale'`).Scan(&blob); err != nil {
		t.Fatalf("read rewritten blob: %v", err)
	}
	v, err := tsvector.DecodeVector(blob)
	if err != nil { t.Fatalf("DecodeVector failed: %v", err) }
	if got, want := v.String(), "'cat':2 'dog':1"; got != want {
		t.Fatalf("rewritten vector = %q, want %q", got, want)
	}
	canonical, err := tsvector.EncodeVector(v)
	if err != nil { t.Fatalf("EncodeVector failed: %v", err) }
	if !bytes.Equal(blob, canonical) { t.Fatalf("stored blob still differs from canonical form") }
}

func TestTsvAdminRestat(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tsv_admin_restat.sqlite")
	db, err := engine.Open(dbPath)
	if err != nil { t.Fatalf("engine.Open failed: %v", err) }
	defer db.Close()
	if err := Register(db); err != nil { t.Fatalf("tsvadmin.Register failed: %v", err) }
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		t.Fatalf("PRAGMA setup failed: %v", err)
	}
	if conn, err := db.Conn(context.Background()); err != nil {
		t.Fatalf("Conn failed: %v", err)
	} else {
		defer conn.Close()
		if _, err := conn.ExecContext(context.Background(), `CREATE VIRTUAL TABLE tsv_admin USING tsv_admin(op)`); err != nil {
			if strings.Contains(err.Error(), "no such module") {
				t.Skipf("skipping: tsv_admin vtab not available (%v)", err)
			}
			t.Fatalf("CREATE VIRTUAL TABLE tsv_admin failed: %v", err)
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _tsv_stat_docs (
        dataset_id TEXT NOT NULL,
        id TEXT NOT NULL,
        content TEXT,
        meta TEXT,
        vector BLOB,
        PRIMARY KEY(dataset_id, id)
    )`); err != nil { t.Fatalf("create shadow: %v", err) }

	if _, err := db.Exec(`INSERT INTO _tsv_stat_docs(dataset_id, id, content, meta, vector) VALUES
        ('', 'd1', '', '{}', ?),
        ('', 'd2', '', '{}', ?)`, mustEncode(t, "cat:1 dog:2"), mustEncode(t, "cat:3,4")); err != nil {
		t.Fatalf("insert shadow failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	rows, err := db.QueryContext(ctx, `SELECT op FROM tsv_admin WHERE op MATCH 'restat:main._tsv_stat_docs'`)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded || strings.Contains(err.Error(), "xBestIndex malfunction") {
			t.Skipf("skipping: tsv_admin MATCH not supported in this environment (%v)", err)
		}
		t.Fatalf("tsv_admin MATCH failed: %v", err)
	}
	defer rows.Close()
	if !rows.Next() { t.Fatalf("expected one result from tsv_admin") }
	var op string
	if err := rows.Scan(&op); err != nil { t.Fatalf("scan op: %v", err) }
	// cat occurs 3 times across 2 docs, dog once: 2 words, 4 occurrences.
	if op != "restat:2:4" { t.Fatalf("op = %q, want restat:2:4", op) }
	rows.Close()

	stats, ok, err := tsvstat.LoadPersisted(context.Background(), db, "main._tsv_stat_docs", "")
	if err != nil { t.Fatalf("LoadPersisted failed: %v", err) }
	if !ok { t.Fatalf("LoadPersisted found no statistics after restat") }
	if got, want := stats.Len(), 2; got != want { t.Fatalf("persisted Len() = %d, want %d", got, want) }
	cat, _ := stats.Lookup("cat")
	if cat.NDoc != 2 || cat.NEntry != 3 { t.Fatalf("persisted cat = %+v, want NDoc=2 NEntry=3", cat) }
}
