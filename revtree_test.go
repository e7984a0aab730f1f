package forest

import (
	"bytes"
	"testing"

	"github.com/jpl-au/forest/engine"
)

func mustRev(t *testing.T, s string) RevID {
	t.Helper()
	r, err := ParseRevID(s)
	if err != nil {
		t.Fatalf("ParseRevID(%q): %v", s, err)
	}
	return r
}

func TestRevTreeInsert(t *testing.T) {
	tree := &RevTree{}
	r1 := mustRev(t, "1-a")
	r2 := mustRev(t, "2-b")

	if ok, err := tree.Insert(r1, []byte("one"), false, RevID{}); !ok || err != nil {
		t.Fatalf("Insert root = %v, %v", ok, err)
	}
	if ok, err := tree.Insert(r2, []byte("two"), false, r1); !ok || err != nil {
		t.Fatalf("Insert child = %v, %v", ok, err)
	}
	if ok, err := tree.Insert(r2, []byte("two"), false, r1); ok || err != nil {
		t.Errorf("duplicate Insert = %v, %v; want false, nil", ok, err)
	}
	if !tree.Changed() {
		t.Error("Changed() = false after inserts")
	}

	cur, ok := tree.Current()
	if !ok || cur.ID != r2 {
		t.Errorf("Current() = %v", cur)
	}
	if tree.IsLeaf(r1) || !tree.IsLeaf(r2) {
		t.Error("leaf detection wrong")
	}
}

func TestRevTreeInsertErrors(t *testing.T) {
	tree := &RevTree{}
	r1 := mustRev(t, "1-a")
	tree.Insert(r1, nil, false, RevID{})

	if _, err := tree.Insert(mustRev(t, "2-b"), nil, false, mustRev(t, "1-zz")); err != ErrNotFound {
		t.Errorf("missing parent: err = %v, want ErrNotFound", err)
	}
	if _, err := tree.Insert(mustRev(t, "3-b"), nil, false, r1); err != FromStatus(engine.StatusInvalidArgs) {
		t.Errorf("generation gap: err = %v, want invalid args", err)
	}
	if _, err := tree.Insert(RevID{}, nil, false, RevID{}); err != ErrBadRevisionID {
		t.Errorf("zero ID: err = %v, want ErrBadRevisionID", err)
	}
}

func TestRevTreeCurrentPrefersLiveLeaves(t *testing.T) {
	tree := &RevTree{}
	r1 := mustRev(t, "1-a")
	tree.Insert(r1, nil, false, RevID{})
	tree.Insert(mustRev(t, "2-z"), nil, true, r1)
	tree.Insert(mustRev(t, "2-b"), []byte("live"), false, r1)

	cur, _ := tree.Current()
	if cur.ID.String() != "2-b" {
		t.Errorf("Current() = %s, want 2-b", cur.ID)
	}
	if n := len(tree.Leaves()); n != 2 {
		t.Errorf("Leaves() = %d, want 2", n)
	}
}

func TestRevTreeEncodeDecode(t *testing.T) {
	tree := &RevTree{}
	r1 := mustRev(t, "1-a")
	tree.Insert(r1, []byte("one"), false, RevID{})
	tree.Insert(mustRev(t, "2-b"), []byte("two"), true, r1)

	data, err := tree.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := DecodeRevTree(data)
	if err != nil {
		t.Fatalf("DecodeRevTree: %v", err)
	}
	if got.Len() != 2 || got.Changed() {
		t.Fatalf("Len = %d, Changed = %v", got.Len(), got.Changed())
	}
	rev := got.At(1)
	if rev.ID.String() != "2-b" || rev.Parent != 0 || !rev.Deleted || !bytes.Equal(rev.Body, []byte("two")) {
		t.Errorf("decoded revision = %+v", rev)
	}
}

func TestDecodeRevTreeCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"wrong shape", `{"id":"1-a"}`},
		{"bad rev id", `[{"id":"one","p":-1}]`},
		{"empty rev id", `[{"id":"","p":-1}]`},
		{"parent out of range", `[{"id":"1-a","p":5}]`},
		{"parent after child", `[{"id":"2-b","p":1},{"id":"1-a","p":-1}]`},
		{"self parent", `[{"id":"1-a","p":0}]`},
		{"negative parent", `[{"id":"1-a","p":-2}]`},
		{"generation gap", `[{"id":"1-a","p":-1},{"id":"3-b","p":0}]`},
		{"duplicate", `[{"id":"1-a","p":-1},{"id":"1-a","p":-1}]`},
		{"bad body", `[{"id":"1-a","p":-1,"b":"!!"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := DecodeRevTree([]byte(tt.data))
			if err != ErrCorruptRevisionData {
				t.Errorf("err = %v, want ErrCorruptRevisionData", err)
			}
			if tree != nil {
				t.Error("corrupt tree returned alongside error")
			}
		})
	}
}

func TestDecodeRevTreeEmpty(t *testing.T) {
	tree, err := DecodeRevTree([]byte(`[]`))
	if err != nil || tree.Len() != 0 {
		t.Errorf("DecodeRevTree([]) = %v, %v", tree, err)
	}
	if _, ok := tree.Current(); ok {
		t.Error("Current() on empty tree reported a revision")
	}
}

func TestRevTreeInsertLastGeneration(t *testing.T) {
	tree := &RevTree{}
	last := mustRev(t, "4294967295-aa")
	if ok, err := tree.Insert(last, nil, false, RevID{}); !ok || err != nil {
		t.Fatalf("Insert at last generation = %v, %v", ok, err)
	}

	// Gen+1 wraps to 0; the child must be refused, not stored.
	wrapped := RevID{Gen: last.Gen + 1, Digest: "bb"}
	if _, err := tree.Insert(wrapped, nil, false, last); err != ErrBadRevisionID {
		t.Errorf("Insert wrapped child = %v, want ErrBadRevisionID", err)
	}
	if _, err := tree.Insert(mustRev(t, "1-bb"), nil, false, last); err != FromStatus(engine.StatusInvalidArgs) {
		t.Errorf("Insert under last generation = %v, want InvalidArgs", err)
	}
	if tree.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tree.Len())
	}
}

func TestRevTreeInsertUnencodableID(t *testing.T) {
	tree := &RevTree{}
	for _, id := range []RevID{{Gen: 0, Digest: "a"}, {Gen: 1, Digest: ""}, {Gen: 1, Digest: "a-b"}} {
		if _, err := tree.Insert(id, nil, false, RevID{}); err != ErrBadRevisionID {
			t.Errorf("Insert(%+v) = %v, want ErrBadRevisionID", id, err)
		}
	}
}

func TestRevTreePointersSurviveInsert(t *testing.T) {
	tree := &RevTree{}
	r1 := mustRev(t, "1-a")
	tree.Insert(r1, []byte("one"), false, RevID{})
	held, _ := tree.Get(r1)

	parent := r1
	for i := 0; i < 64; i++ {
		child := NewRevID(parent, []byte{byte(i)}, false)
		tree.Insert(child, nil, false, parent)
		parent = child
	}

	again, _ := tree.Get(r1)
	if held != again {
		t.Error("pointer from Get changed after inserts")
	}
	held.Sequence = 7
	if tree.At(0).Sequence != 7 {
		t.Error("held pointer no longer aliases the stored revision")
	}
}
