package lsm

import (
	"bytes"
	"fmt"
	"testing"
)

func TestMemTableSetGet(t *testing.T) {
	m := NewMemTable()
	m.Set([]byte("a"), []byte("mandarina"))
	m.Set([]byte("b"), []byte("platan"))

	v, ok := m.Get([]byte("a"))
	if !ok || !bytes.Equal(v, []byte("mandarina")) {
		t.Fatalf("expected mandarina, got %q ok=%v", v, ok)
	}

	if _, ok := m.Get([]byte("z")); ok {
		t.Fatal("expected miss for absent key")
	}
}

func TestMemTableOverwrite(t *testing.T) {
	m := NewMemTable()
	m.Set([]byte("k"), []byte("v1"))
	m.Set([]byte("k"), []byte("v2"))

	v, ok := m.Get([]byte("k"))
	if !ok || string(v) != "v2" {
		t.Fatalf("expected v2, got %q", v)
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 distinct key, got %d", m.Len())
	}
}

func TestMemTableSortedEntries(t *testing.T) {
	m := NewMemTable()
	for _, k := range []string{"c", "a", "b"} {
		m.Set([]byte(k), []byte(k+"-val"))
	}

	entries := m.SortedEntries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"a", "b", "c"} {
		if string(entries[i].Key) != want {
			t.Fatalf("entry %d: expected key %q, got %q", i, want, entries[i].Key)
		}
	}
}

func TestMemTableLen(t *testing.T) {
	m := NewMemTable()
	for i := 0; i < 500; i++ {
		m.Set([]byte(fmt.Sprintf("k%04d", i)), []byte("v"))
	}
	if m.Len() != 500 {
		t.Fatalf("expected 500, got %d", m.Len())
	}
}

func TestMemTableSetIsCopy(t *testing.T) {
	key := []byte("k")
	value := []byte("v")
	m := NewMemTable()
	m.Set(key, value)

	key[0] = 'z'
	value[0] = 'z'

	got, ok := m.Get([]byte("k"))
	if !ok || string(got) != "v" {
		t.Fatalf("mutating caller's slices after Set must not affect stored entry, got %q ok=%v", got, ok)
	}
}
