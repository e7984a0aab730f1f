package engine

import (
	"bytes"
	"errors"
	"os"
	"testing"
)

func TestCompact(t *testing.T) {
	f, path := openTestFile(t, Config{})
	s := testStore(t, f, "docs")
	other := testStore(t, f, "other")

	for i := 0; i < 20; i++ {
		s.Set("a", nil, []byte("revision"))
	}
	s.Set("b", []byte("meta"), []byte("keep"))
	s.Set("c", nil, []byte("gone"))
	s.Delete("c")
	other.Set("x", nil, []byte("y"))

	before, _ := os.Stat(path)
	if err := f.Compact(); err != nil {
		t.Fatalf("Compact: %v", err)
	}
	after, _ := os.Stat(path)
	if after.Size() >= before.Size() {
		t.Errorf("size %d -> %d, want smaller", before.Size(), after.Size())
	}

	doc, err := s.Get("a")
	if err != nil || doc.Sequence != 20 {
		t.Errorf("Get(a) = %v, %v", doc, err)
	}
	doc, err = s.Get("b")
	if err != nil || string(doc.Meta) != "meta" || string(doc.Body) != "keep" {
		t.Errorf("Get(b) = %v, %v", doc, err)
	}
	if _, err := s.Get("c"); !errors.Is(err, StatusKeyNotFound) {
		t.Errorf("Get(c) = %v", err)
	}
	if _, err := other.Get("x"); err != nil {
		t.Errorf("other store: %v", err)
	}
	if s.Count() != 2 {
		t.Errorf("Count() = %d, want 2", s.Count())
	}
	// The tombstone for c holds sequence 23 and is kept for it.
	if s.LastSequence() != 23 {
		t.Errorf("LastSequence() = %d, want 23", s.LastSequence())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestCompactKeepsLock(t *testing.T) {
	f, path := openTestFile(t, Config{})
	testStore(t, f, "s").Set("k", nil, []byte("v"))

	if err := f.Compact(); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, Config{}); !errors.Is(err, StatusFileIsBusy) {
		t.Errorf("open after compact: got %v, want StatusFileIsBusy", err)
	}
}

func TestCompactThenWrite(t *testing.T) {
	f, path := openTestFile(t, Config{})
	s := testStore(t, f, "s")
	s.Set("k", nil, []byte("v1"))
	s.Set("k", nil, []byte("v2"))
	f.Compact()

	seq, err := s.Set("k", nil, []byte("v3"))
	if err != nil || seq != 3 {
		t.Fatalf("Set after compact = %d, %v", seq, err)
	}
	f.Close()

	f, err = Open(path, Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	doc, err := testStore(t, f, "s").Get("k")
	if err != nil || string(doc.Body) != "v3" {
		t.Errorf("Get = %v, %v", doc, err)
	}
}

func TestCompactEmpty(t *testing.T) {
	f, path := openTestFile(t, Config{})
	if err := f.Compact(); err != nil {
		t.Fatalf("Compact: %v", err)
	}
	info, _ := os.Stat(path)
	if info.Size() != HeaderSize {
		t.Errorf("size = %d, want %d", info.Size(), HeaderSize)
	}
}

func TestCompactClearsDirty(t *testing.T) {
	f, path := openTestFile(t, Config{})
	testStore(t, f, "s").Set("k", nil, []byte("v"))
	f.Compact()

	data, _ := os.ReadFile(path)
	if data[dirtyOffset] != '0' {
		t.Error("compacted file is marked dirty")
	}
}

func TestStaleTempRemoved(t *testing.T) {
	f, path := openTestFile(t, Config{})
	f.Close()
	os.WriteFile(path+".tmp", []byte("partial"), 0644)

	// Readers never touch it.
	r, err := Open(path, Config{ReadOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	r.Close()
	if _, err := os.Stat(path + ".tmp"); err != nil {
		t.Error("read-only open removed the temporary file")
	}

	f, err = Open(path, Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("stale temporary file not removed")
	}
}

func TestCompactKeepsSequenceHighWater(t *testing.T) {
	f, path := openTestFile(t, Config{})
	s := testStore(t, f, "s")
	gone := testStore(t, f, "gone")

	s.Set("a", nil, []byte("1"))
	s.Set("b", nil, []byte("2"))
	s.Delete("b")
	s.Set("c", nil, []byte("3"))
	s.Delete("c")
	gone.Set("x", nil, nil)
	gone.Delete("x")

	if err := f.Compact(); err != nil {
		t.Fatalf("Compact: %v", err)
	}
	f.Close()

	f, err := Open(path, Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	s = testStore(t, f, "s")
	gone = testStore(t, f, "gone")

	if s.LastSequence() != 5 || gone.LastSequence() != 2 {
		t.Errorf("LastSequence = %d, %d; want 5, 2", s.LastSequence(), gone.LastSequence())
	}
	if s.Count() != 1 || gone.Count() != 0 {
		t.Errorf("Count = %d, %d; want 1, 0", s.Count(), gone.Count())
	}
	if _, err := s.Get("c"); !errors.Is(err, StatusKeyNotFound) {
		t.Errorf("Get(c) = %v", err)
	}
	if seq, _ := s.Set("d", nil, nil); seq != 6 {
		t.Errorf("next sequence = %d, want 6", seq)
	}

	// Only the newest tombstone is kept.
	data, _ := os.ReadFile(path)
	if n := bytes.Count(data, []byte(`"_x":true`)); n != 2 {
		t.Errorf("file holds %d tombstones, want 2", n)
	}
}
