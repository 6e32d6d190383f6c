package lsm

import (
	"bytes"
	"fmt"
	"testing"
)

func TestSkipListInsertSearch(t *testing.T) {
	sl := newSkipList()
	sl.insert([]byte("b"), []byte("2"))
	sl.insert([]byte("a"), []byte("1"))
	sl.insert([]byte("c"), []byte("3"))

	v, ok := sl.search([]byte("a"))
	if !ok || string(v) != "1" {
		t.Fatalf("expected 1, got %q ok=%v", v, ok)
	}
	if sl.len() != 3 {
		t.Fatalf("expected 3 entries, got %d", sl.len())
	}
}

func TestSkipListInsertReplaces(t *testing.T) {
	sl := newSkipList()
	sl.insert([]byte("k"), []byte("v1"))
	sl.insert([]byte("k"), []byte("v2"))

	if sl.len() != 1 {
		t.Fatalf("expected 1 entry after overwrite, got %d", sl.len())
	}
	v, _ := sl.search([]byte("k"))
	if string(v) != "v2" {
		t.Fatalf("expected v2, got %q", v)
	}
}

func TestSkipListSortedEntries(t *testing.T) {
	sl := newSkipList()
	for i := 99; i >= 0; i-- {
		sl.insert([]byte(fmt.Sprintf("k%03d", i)), []byte("v"))
	}

	entries := sl.sortedEntries()
	if len(entries) != 100 {
		t.Fatalf("expected 100 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if bytes.Compare(entries[i-1].Key, entries[i].Key) >= 0 {
			t.Fatalf("entries not strictly ascending at index %d: %q >= %q", i, entries[i-1].Key, entries[i].Key)
		}
	}
}

func TestSkipListSearchMiss(t *testing.T) {
	sl := newSkipList()
	sl.insert([]byte("a"), []byte("1"))
	if _, ok := sl.search([]byte("z")); ok {
		t.Fatal("expected miss")
	}
}
