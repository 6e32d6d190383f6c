package lsm

import "testing"

func TestTombstoneLength(t *testing.T) {
	if len(Tombstone) != 32 {
		t.Fatalf("expected 32-byte tombstone, got %d", len(Tombstone))
	}
}

func TestIsTombstone(t *testing.T) {
	if !IsTombstone(Tombstone) {
		t.Fatal("expected Tombstone to be recognized as itself")
	}
	if IsTombstone([]byte("platan")) {
		t.Fatal("ordinary value misidentified as tombstone")
	}
	if IsTombstone(nil) {
		t.Fatal("nil value misidentified as tombstone")
	}
}
