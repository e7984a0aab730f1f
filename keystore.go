// Key-value store access.
package forest

import (
	"iter"

	"github.com/jpl-au/forest/engine"
)

// Doc is a raw document read from a KeyStore.
type Doc struct {
	Key       string
	Meta      []byte
	Body      []byte
	Sequence  uint64
	Timestamp int64 // Unix milliseconds
}

// KeyStore is a named keyspace in a Database.
type KeyStore struct {
	store *engine.Store
}

// Name returns the store's name.
func (ks *KeyStore) Name() string {
	return ks.store.Name()
}

// Get returns the current document stored under key.
func (ks *KeyStore) Get(key string) (Doc, error) {
	d, err := ks.store.Get(key)
	if err != nil {
		return Doc{}, native(err)
	}
	return docFrom(d), nil
}

// Set stores a new version of key and returns its sequence number.
func (ks *KeyStore) Set(key string, meta, body []byte) (uint64, error) {
	seq, err := ks.store.Set(key, meta, body)
	if err != nil {
		return 0, native(err)
	}
	return seq, nil
}

// Delete removes key.
func (ks *KeyStore) Delete(key string) error {
	return native(ks.store.Delete(key))
}

// All iterates over the store's documents in key order. Iteration stops at
// the first error.
func (ks *KeyStore) All() iter.Seq2[Doc, error] {
	return func(yield func(Doc, error) bool) {
		for d, err := range ks.store.All() {
			if err != nil {
				yield(Doc{}, native(err))
				return
			}
			if !yield(docFrom(d), nil) {
				return
			}
		}
	}
}

// LastSequence returns the sequence number of the store's latest write.
func (ks *KeyStore) LastSequence() uint64 {
	return ks.store.LastSequence()
}

// Count returns the number of documents in the store.
func (ks *KeyStore) Count() int {
	return ks.store.Count()
}

func docFrom(d *engine.Doc) Doc {
	return Doc{
		Key:       d.Key,
		Meta:      d.Meta,
		Body:      d.Body,
		Sequence:  d.Sequence,
		Timestamp: d.Timestamp,
	}
}
