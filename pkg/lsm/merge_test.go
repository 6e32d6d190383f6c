package lsm

import (
	"bytes"
	"path/filepath"
	"testing"
)

func writeTestTable(t *testing.T, dir, name string, index int, kv map[string]string) *SSTable {
	t.Helper()
	entries := make([]Entry, 0, len(kv))
	for k, v := range kv {
		entries = append(entries, Entry{Key: []byte(k), Value: []byte(v)})
	}
	// writeSSTable requires sorted input; reuse a memtable to sort it.
	m := NewMemTable()
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	path := filepath.Join(dir, name)
	if err := writeSSTable(path, m.SortedEntries()); err != nil {
		t.Fatalf("writeSSTable: %v", err)
	}
	return &SSTable{path: path, index: index}
}

func TestMergeTablesLayering(t *testing.T) {
	dir := t.TempDir()

	t1 := writeTestTable(t, dir, "00000000.sstable", 0, map[string]string{
		"fruita": "poma", "nom": "Gerard", "ciutat": "Barcelona",
	})
	t2 := writeTestTable(t, dir, "00000001.sstable", 1, map[string]string{
		"cotxe": "Honda", "ciutat": "Mataro",
	})
	t3 := writeTestTable(t, dir, "00000002.sstable", 2, map[string]string{
		"fruita": "mandarina", "ciutat": "Sabadell",
	})

	outPath := filepath.Join(dir, "merged.sstable")
	if err := mergeTables([]*SSTable{t1, t2, t3}, outPath); err != nil {
		t.Fatalf("mergeTables: %v", err)
	}

	merged := &SSTable{path: outPath, index: 2}
	cases := map[string]string{
		"fruita": "mandarina",
		"ciutat": "Sabadell",
		"cotxe":  "Honda",
		"nom":    "Gerard",
	}
	for k, want := range cases {
		v, ok, err := merged.Get([]byte(k))
		if err != nil {
			t.Fatalf("Get(%q): %v", k, err)
		}
		if !ok || !bytes.Equal(v, []byte(want)) {
			t.Fatalf("Get(%q): expected %q, got %q ok=%v", k, want, v, ok)
		}
	}
	if _, ok, err := merged.Get([]byte("coffee")); err != nil || ok {
		t.Fatalf("expected coffee absent, got ok=%v err=%v", ok, err)
	}
}

func TestMergeTablesNoDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	t1 := writeTestTable(t, dir, "00000000.sstable", 0, map[string]string{"a": "1", "b": "2"})
	t2 := writeTestTable(t, dir, "00000001.sstable", 1, map[string]string{"a": "3"})

	outPath := filepath.Join(dir, "merged.sstable")
	if err := mergeTables([]*SSTable{t1, t2}, outPath); err != nil {
		t.Fatalf("mergeTables: %v", err)
	}

	it, err := newSSTableIterator(outPath)
	if err != nil {
		t.Fatalf("iterate merged: %v", err)
	}
	defer it.close()

	seen := map[string]bool{}
	for it.ok {
		if seen[string(it.key)] {
			t.Fatalf("duplicate key %q in merged output", it.key)
		}
		seen[string(it.key)] = true
		if err := it.advance(); err != nil {
			t.Fatal(err)
		}
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(seen))
	}
}
