// Versioned documents.
//
// A VersionedDocument is a document ID plus its RevTree, stored as a single
// engine record: the encoded tree is the body and the current revision ID is
// the metadata, so listings can show the current revision without decoding
// the tree.
package forest

import (
	"errors"
	"math"

	"github.com/jpl-au/forest/engine"
)

// VersionedDocument is a document and its revision history.
type VersionedDocument struct {
	ks       *KeyStore
	docID    string
	tree     *RevTree
	sequence uint64
	exists   bool
}

// Document reads docID from the store. A missing document yields an empty
// VersionedDocument whose Exists reports false.
func (ks *KeyStore) Document(docID string) (*VersionedDocument, error) {
	d := &VersionedDocument{ks: ks, docID: docID, tree: &RevTree{}}

	doc, err := ks.Get(docID)
	if errors.Is(err, ErrNotFound) {
		return d, nil
	}
	if err != nil {
		return nil, err
	}

	tree, err := DecodeRevTree(doc.Body)
	if err != nil {
		return nil, err
	}
	// Revisions are written before the save assigns a sequence, so the
	// ones without one were added by the save that produced this record.
	for i := range tree.revs {
		if tree.revs[i].Sequence == 0 {
			tree.revs[i].Sequence = doc.Sequence
		}
	}

	d.tree = tree
	d.sequence = doc.Sequence
	d.exists = true
	return d, nil
}

// DocID returns the document's ID.
func (d *VersionedDocument) DocID() string {
	return d.docID
}

// Exists reports whether the document has been saved.
func (d *VersionedDocument) Exists() bool {
	return d.exists
}

// Sequence returns the engine sequence of the last save.
func (d *VersionedDocument) Sequence() uint64 {
	return d.sequence
}

// Tree returns the revision tree.
func (d *VersionedDocument) Tree() *RevTree {
	return d.tree
}

// Current returns the winning revision.
func (d *VersionedDocument) Current() (*Revision, bool) {
	return d.tree.Current()
}

// Get returns the revision named by revID.
func (d *VersionedDocument) Get(revID string) (*Revision, error) {
	id, err := ParseRevID(revID)
	if err != nil {
		return nil, err
	}
	rev, ok := d.tree.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return rev, nil
}

// Put adds a new revision as a child of parentRevID and returns its ID. An
// empty parentRevID creates the first revision of a document that has none;
// otherwise the parent must be a leaf below the last generation.
func (d *VersionedDocument) Put(body []byte, parentRevID string, deleted bool) (RevID, error) {
	var parent RevID
	if parentRevID != "" {
		p, err := ParseRevID(parentRevID)
		if err != nil {
			return RevID{}, err
		}
		if _, ok := d.tree.Get(p); !ok {
			return RevID{}, ErrNotFound
		}
		if !d.tree.IsLeaf(p) || p.Gen == math.MaxUint32 {
			return RevID{}, FromStatus(engine.StatusInvalidArgs)
		}
		parent = p
	} else if d.tree.Len() > 0 {
		return RevID{}, FromStatus(engine.StatusInvalidArgs)
	}

	id := NewRevID(parent, body, deleted)
	if _, err := d.tree.Insert(id, body, deleted, parent); err != nil {
		return RevID{}, err
	}
	return id, nil
}

// Insert adds a revision with a caller-supplied ID, as a replicator does.
// It returns false if the revision is already present.
func (d *VersionedDocument) Insert(revID string, body []byte, deleted bool, parentRevID string) (bool, error) {
	id, err := ParseRevID(revID)
	if err != nil {
		return false, err
	}
	var parent RevID
	if parentRevID != "" {
		if parent, err = ParseRevID(parentRevID); err != nil {
			return false, err
		}
	}
	return d.tree.Insert(id, body, deleted, parent)
}

// Save writes the document if revisions were added since it was read.
func (d *VersionedDocument) Save() error {
	if !d.tree.Changed() {
		return nil
	}

	body, err := d.tree.Encode()
	if err != nil {
		return err
	}
	var meta []byte
	if cur, ok := d.tree.Current(); ok {
		meta = []byte(cur.ID.String())
	}

	seq, err := d.ks.Set(d.docID, meta, body)
	if err != nil {
		return err
	}
	for i := range d.tree.revs {
		if d.tree.revs[i].Sequence == 0 {
			d.tree.revs[i].Sequence = seq
		}
	}
	d.tree.changed = false
	d.sequence = seq
	d.exists = true
	return nil
}
