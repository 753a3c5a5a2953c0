package tsvstat

import (
	"context"
	"database/sql"
	"reflect"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/viant/sqlite-tsv/tsvector"
)

func mustVector(t *testing.T, input string) tsvector.Vector {
	t.Helper()
	v, err := tsvector.Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", input, err)
	}
	return v
}

func TestStatisticsAdd(t *testing.T) {
	s := New()
	s.Add(mustVector(t, "cat:1,5 dog:2"))
	s.Add(mustVector(t, "cat:3 fish"))
	s.Add(mustVector(t, "dog:1A,2B,3"))

	if got, want := s.Docs(), 3; got != want {
		t.Fatalf("Docs() = %d, want %d", got, want)
	}
	if got, want := s.Len(), 3; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}

	cases := []struct {
		word   string
		ndoc   int
		nentry int
	}{
		{"cat", 2, 3},
		{"dog", 2, 4},
		{"fish", 1, 1}, // no positions still counts as one occurrence
	}
	for _, tc := range cases {
		entry, ok := s.Lookup(tc.word)
		if !ok {
			t.Fatalf("Lookup(%q) not found", tc.word)
		}
		if entry.NDoc != tc.ndoc || entry.NEntry != tc.nentry {
			t.Fatalf("Lookup(%q) = {NDoc:%d NEntry:%d}, want {NDoc:%d NEntry:%d}",
				tc.word, entry.NDoc, entry.NEntry, tc.ndoc, tc.nentry)
		}
	}
	if _, ok := s.Lookup("absent"); ok {
		t.Fatalf("Lookup(absent) reported ok")
	}
}

func TestStatisticsWordsSorted(t *testing.T) {
	s := New()
	s.Add(mustVector(t, "zebra ant mole"))
	got := s.Words()
	want := []string{"ant", "mole", "zebra"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Words() = %v, want %v", got, want)
	}
}

func TestStatisticsTop(t *testing.T) {
	s := New()
	s.Add(mustVector(t, "cat dog"))
	s.Add(mustVector(t, "cat dog"))
	s.Add(mustVector(t, "cat ant"))

	top := s.Top(2)
	if len(top) != 2 {
		t.Fatalf("Top(2) returned %d entries", len(top))
	}
	if top[0].Word != "cat" || top[0].NDoc != 3 {
		t.Fatalf("Top(2)[0] = %+v, want cat with NDoc=3", top[0])
	}
	if top[1].Word != "dog" || top[1].NDoc != 2 {
		t.Fatalf("Top(2)[1] = %+v, want dog with NDoc=2", top[1])
	}

	// Ties break by word ascending.
	all := s.Top(-1)
	if len(all) != 3 || all[2].Word != "ant" {
		t.Fatalf("Top(-1) = %+v, want ant last", all)
	}
}

func TestStatisticsBinaryRoundTrip(t *testing.T) {
	s := New()
	s.Add(mustVector(t, "cat:1,2 dog:3B"))
	s.Add(mustVector(t, "cat fish:7"))

	data, err := s.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary error: %v", err)
	}
	restored := New()
	if err := restored.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary error: %v", err)
	}
	if got, want := restored.Docs(), s.Docs(); got != want {
		t.Fatalf("restored Docs() = %d, want %d", got, want)
	}
	if !reflect.DeepEqual(restored.Words(), s.Words()) {
		t.Fatalf("restored Words() = %v, want %v", restored.Words(), s.Words())
	}
	for _, word := range s.Words() {
		got, _ := restored.Lookup(word)
		want, _ := s.Lookup(word)
		if got != want {
			t.Fatalf("restored Lookup(%q) = %+v, want %+v", word, got, want)
		}
	}

	// Deterministic encoding.
	again, err := s.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary error: %v", err)
	}
	if !reflect.DeepEqual(data, again) {
		t.Fatalf("MarshalBinary not deterministic")
	}
}

func TestStatisticsUnmarshalTruncated(t *testing.T) {
	s := New()
	s.Add(mustVector(t, "cat:1 dog:2"))
	data, err := s.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary error: %v", err)
	}
	for _, n := range []int{1, 4, 7, len(data) - 1} {
		if err := New().UnmarshalBinary(data[:n]); err == nil {
			t.Fatalf("UnmarshalBinary(%d bytes) succeeded, want error", n)
		}
	}
	if err := New().UnmarshalBinary(append(append([]byte(nil), data...), 0)); err == nil {
		t.Fatalf("UnmarshalBinary with trailing byte succeeded, want error")
	}
}

func openStatsDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:stats?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCollectAndPersist(t *testing.T) {
	db := openStatsDB(t)
	ctx := context.Background()

	if _, err := db.Exec(`CREATE TABLE _tsv_docs (
        dataset_id TEXT NOT NULL DEFAULT '',
        id         TEXT NOT NULL,
        content    TEXT,
        meta       TEXT,
        vector     BLOB,
        PRIMARY KEY (dataset_id, id)
    )`); err != nil {
		t.Fatalf("create shadow: %v", err)
	}
	insert := func(dataset, id, input string) {
		blob, err := tsvector.EncodeVector(mustVector(t, input))
		if err != nil {
			t.Fatalf("EncodeVector(%q) error: %v", input, err)
		}
		if _, err := db.Exec(`INSERT INTO _tsv_docs(dataset_id, id, vector) VALUES(?, ?, ?)`, dataset, id, blob); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	insert("", "d1", "cat:1 dog:2")
	insert("", "d2", "cat:5,6")
	insert("other", "d3", "zebra:1")

	stats, err := Collect(ctx, db, "_tsv_docs", "")
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if got, want := stats.Docs(), 2; got != want {
		t.Fatalf("Docs() = %d, want %d", got, want)
	}
	if _, ok := stats.Lookup("zebra"); ok {
		t.Fatalf("Collect leaked a row from another dataset")
	}
	cat, _ := stats.Lookup("cat")
	if cat.NDoc != 2 || cat.NEntry != 3 {
		t.Fatalf("cat = %+v, want NDoc=2 NEntry=3", cat)
	}

	if err := Persist(ctx, db, "_tsv_docs", "", stats); err != nil {
		t.Fatalf("Persist error: %v", err)
	}
	loaded, ok, err := LoadPersisted(ctx, db, "_tsv_docs", "")
	if err != nil {
		t.Fatalf("LoadPersisted error: %v", err)
	}
	if !ok {
		t.Fatalf("LoadPersisted reported no statistics")
	}
	if got, want := loaded.Len(), stats.Len(); got != want {
		t.Fatalf("loaded Len() = %d, want %d", got, want)
	}

	if _, ok, err := LoadPersisted(ctx, db, "_tsv_docs", "missing"); err != nil || ok {
		t.Fatalf("LoadPersisted(missing dataset) = ok=%v err=%v, want ok=false err=nil", ok, err)
	}
}
