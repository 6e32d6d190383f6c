package kvstore

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/mnohosten/lsmkv/pkg/lsm"
)

func TestStoreBasicScenario(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	must(t, s.Set([]byte("a"), []byte("mandarina")))
	must(t, s.Set([]byte("b"), []byte("platan")))
	must(t, s.Set([]byte("c"), []byte("poma")))
	must(t, s.Delete([]byte("c")))

	expectValue(t, s, "a", "mandarina")
	expectValue(t, s, "b", "platan")
	expectAbsent(t, s, "c")
}

func TestStoreLastWriterWins(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	must(t, s.Set([]byte("k"), []byte("v1")))
	must(t, s.Set([]byte("k"), []byte("v2")))
	expectValue(t, s, "k", "v2")
}

func TestStoreDeleteAbsentKey(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	expectAbsent(t, s, "ghost")
	must(t, s.Delete([]byte("ghost")))
	expectAbsent(t, s, "ghost")
}

func TestStoreRotation(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.MemtableThreshold = 64
	s, err := OpenConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	must(t, s.Set([]byte("a"), []byte("platan")))

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10001; i++ {
		key := []byte(fmt.Sprintf("key-%d-%d", i, rng.Int()))
		must(t, s.Set(key, []byte("v")))
	}

	s.WaitForThreads()
	expectValue(t, s, "a", "platan")
}

func TestStorePersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	must(t, s.Set([]byte("a"), []byte("mandarina")))
	must(t, s.Set([]byte("b"), []byte("gerard")))
	must(t, s.Set([]byte("a"), []byte("platan")))

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	expectValue(t, s2, "a", "platan")
	expectValue(t, s2, "b", "gerard")
}

func TestStoreMergeLayering(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	set := func(k, v string) { must(t, s.Set([]byte(k), []byte(v))) }

	set("fruita", "poma")
	set("nom", "Gerard")
	set("ciutat", "Barcelona")
	s.SaveMemtable()
	s.WaitForThreads()

	set("cotxe", "Honda")
	set("ciutat", "Mataro")
	s.SaveMemtable()
	s.WaitForThreads()

	set("fruita", "mandarina")
	set("ciutat", "Sabadell")
	s.SaveMemtable()
	s.WaitForThreads()

	expectValue(t, s, "fruita", "mandarina")
	expectValue(t, s, "ciutat", "Sabadell")
	expectValue(t, s, "cotxe", "Honda")
	expectValue(t, s, "nom", "Gerard")
	expectAbsent(t, s, "coffee")
}

func TestStoreDeleteAfterFlush(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	must(t, s.Set([]byte("a"), []byte("x")))
	s.SaveMemtable()
	expectValue(t, s, "a", "x") // still visible through the coordinator's pending slot

	must(t, s.Delete([]byte("a")))
	expectAbsent(t, s, "a")

	s.WaitForThreads()
	expectAbsent(t, s, "a")
}

func TestStoreSetOversizedField(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	big := make([]byte, lsm.MaxFieldSize+1)
	if err := s.Set([]byte("k"), big); err != lsm.ErrOversizedField {
		t.Fatalf("expected ErrOversizedField, got %v", err)
	}
}

func TestStoreSetEmptyKey(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Set(nil, []byte("v")); err != lsm.ErrEmptyKey {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func expectValue(t *testing.T, s *Store, key, want string) {
	t.Helper()
	v, ok, err := s.Get([]byte(key))
	if err != nil {
		t.Fatalf("Get(%q): %v", key, err)
	}
	if !ok || !bytes.Equal(v, []byte(want)) {
		t.Fatalf("Get(%q): expected %q, got %q ok=%v", key, want, v, ok)
	}
}

func expectAbsent(t *testing.T, s *Store, key string) {
	t.Helper()
	_, ok, err := s.Get([]byte(key))
	if err != nil {
		t.Fatalf("Get(%q): %v", key, err)
	}
	if ok {
		t.Fatalf("Get(%q): expected absent", key)
	}
}
