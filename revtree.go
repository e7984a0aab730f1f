// Revision trees.
//
// A document's revisions are stored as one JSON array in the engine body.
// Each entry names its parent by index, and parents always precede their
// children, so the array is a topologically sorted tree. Decoding checks
// that shape; a tree that fails any check is ErrCorruptRevisionData and is
// never partially returned.
package forest

import (
	"math"

	json "github.com/goccy/go-json"

	"github.com/jpl-au/forest/engine"
)

// NoParent marks a revision without a parent.
const NoParent = -1

// Revision is one node of a RevTree.
type Revision struct {
	ID       RevID
	Parent   int // Index of the parent revision, or NoParent
	Deleted  bool
	Body     []byte
	Sequence uint64 // Engine sequence of the save that added this revision
}

// storedRevision is the on-disk form of a Revision.
type storedRevision struct {
	ID       string `json:"id"`
	Parent   int    `json:"p"`
	Deleted  bool   `json:"d,omitempty"`
	Body     []byte `json:"b,omitempty"`
	Sequence uint64 `json:"s,omitempty"`
}

// RevTree is the revision history of one document. Revisions are held by
// pointer, so a *Revision returned by At, Get, Leaves or Current stays valid
// and current across later inserts.
type RevTree struct {
	revs    []*Revision
	changed bool
}

// DecodeRevTree parses and validates an encoded tree.
func DecodeRevTree(data []byte) (*RevTree, error) {
	var stored []storedRevision
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, ErrCorruptRevisionData
	}

	t := &RevTree{revs: make([]*Revision, 0, len(stored))}
	seen := make(map[RevID]bool, len(stored))
	for i, s := range stored {
		id, err := ParseRevID(s.ID)
		if err != nil || seen[id] {
			return nil, ErrCorruptRevisionData
		}
		if s.Parent != NoParent {
			if s.Parent < 0 || s.Parent >= i {
				return nil, ErrCorruptRevisionData
			}
			if t.revs[s.Parent].ID.Gen+1 != id.Gen {
				return nil, ErrCorruptRevisionData
			}
		}
		seen[id] = true
		t.revs = append(t.revs, &Revision{
			ID:       id,
			Parent:   s.Parent,
			Deleted:  s.Deleted,
			Body:     s.Body,
			Sequence: s.Sequence,
		})
	}
	return t, nil
}

// Encode serialises the tree.
func (t *RevTree) Encode() ([]byte, error) {
	stored := make([]storedRevision, len(t.revs))
	for i, r := range t.revs {
		stored[i] = storedRevision{
			ID:       r.ID.String(),
			Parent:   r.Parent,
			Deleted:  r.Deleted,
			Body:     r.Body,
			Sequence: r.Sequence,
		}
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return nil, FromStatus(engine.StatusInvalidArgs)
	}
	return data, nil
}

// Len returns the number of revisions.
func (t *RevTree) Len() int {
	return len(t.revs)
}

// Changed reports whether revisions were inserted since the tree was
// decoded.
func (t *RevTree) Changed() bool {
	return t.changed
}

// At returns the revision at index i.
func (t *RevTree) At(i int) *Revision {
	return t.revs[i]
}

// Get finds a revision by ID.
func (t *RevTree) Get(id RevID) (*Revision, bool) {
	i := t.find(id)
	if i < 0 {
		return nil, false
	}
	return t.revs[i], true
}

func (t *RevTree) find(id RevID) int {
	for i := range t.revs {
		if t.revs[i].ID == id {
			return i
		}
	}
	return -1
}

// Leaves returns the revisions without children, in tree order.
func (t *RevTree) Leaves() []*Revision {
	parent := make([]bool, len(t.revs))
	for _, r := range t.revs {
		if r.Parent != NoParent {
			parent[r.Parent] = true
		}
	}
	var leaves []*Revision
	for i := range t.revs {
		if !parent[i] {
			leaves = append(leaves, t.revs[i])
		}
	}
	return leaves
}

// IsLeaf reports whether id names a revision without children.
func (t *RevTree) IsLeaf(id RevID) bool {
	i := t.find(id)
	if i < 0 {
		return false
	}
	for _, r := range t.revs {
		if r.Parent == i {
			return false
		}
	}
	return true
}

// Current returns the winning revision: live leaves beat deleted ones, then
// the higher RevID wins.
func (t *RevTree) Current() (*Revision, bool) {
	var best *Revision
	for _, r := range t.Leaves() {
		if best == nil ||
			best.Deleted && !r.Deleted ||
			best.Deleted == r.Deleted && r.ID.Compare(best.ID) > 0 {
			best = r
		}
	}
	return best, best != nil
}

// Insert adds a revision under parent (zero RevID for a root). It returns
// false without error if the revision is already present. id must survive a
// round trip through its text form, so everything stored can be decoded.
func (t *RevTree) Insert(id RevID, body []byte, deleted bool, parent RevID) (bool, error) {
	if _, err := ParseRevID(id.String()); err != nil {
		return false, ErrBadRevisionID
	}
	if t.find(id) >= 0 {
		return false, nil
	}

	p := NoParent
	if !parent.IsZero() {
		p = t.find(parent)
		if p < 0 {
			return false, ErrNotFound
		}
		// A parent at the last generation has no valid child generation.
		if g := t.revs[p].ID.Gen; g == math.MaxUint32 || g+1 != id.Gen {
			return false, FromStatus(engine.StatusInvalidArgs)
		}
	}

	t.revs = append(t.revs, &Revision{
		ID:      id,
		Parent:  p,
		Deleted: deleted,
		Body:    body,
	})
	t.changed = true
	return true, nil
}
