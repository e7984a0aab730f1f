// Key-value store operations.
//
// A Store is a named keyspace inside a File. Each Set appends a record with
// the store's next sequence number; Delete appends a tombstone. Get reads
// the newest record through the in-memory index and verifies it before
// returning it, so on-disk damage surfaces as a status instead of garbage.
package engine

import (
	"errors"
	"iter"
	"slices"
)

// Store is a handle to one key-value store in a File.
type Store struct {
	f    *File
	name string
}

// Name returns the store's name.
func (s *Store) Name() string {
	return s.name
}

// Get returns the current document for key.
func (s *Store) Get(key string) (*Doc, error) {
	if key == "" {
		return nil, StatusInvalidArgs
	}

	f := s.f
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, StatusFileNotOpen
	}

	e, ok := f.lookup(s.name, key)
	if !ok || e.deleted {
		return nil, StatusKeyNotFound
	}
	return f.read(s.name, key, e)
}

// Set writes a new version of key and returns its sequence number.
func (s *Store) Set(key string, meta, body []byte) (uint64, error) {
	if key == "" {
		return 0, StatusInvalidArgs
	}

	f := s.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, StatusFileNotOpen
	}
	if f.config.ReadOnly {
		return 0, StatusReadOnlyViolation
	}

	idx := f.index(s.name)
	r := &record{
		Store:      s.name,
		Key:        key,
		Seq:        idx.seq + 1,
		Timestamp:  now(),
		Meta:       encodePayload(meta, false),
		Body:       encodePayload(body, f.config.Compress),
		Compressed: f.config.Compress && len(body) > 0,
	}
	if err := f.write(idx, r); err != nil {
		return 0, err
	}
	return r.Seq, nil
}

// Delete appends a tombstone for key.
func (s *Store) Delete(key string) error {
	if key == "" {
		return StatusInvalidArgs
	}

	f := s.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return StatusFileNotOpen
	}
	if f.config.ReadOnly {
		return StatusReadOnlyViolation
	}

	e, ok := f.lookup(s.name, key)
	if !ok || e.deleted {
		return StatusKeyNotFound
	}

	idx := f.index(s.name)
	r := &record{
		Store:     s.name,
		Key:       key,
		Seq:       idx.seq + 1,
		Timestamp: now(),
		Deleted:   true,
	}
	return f.write(idx, r)
}

// All iterates over the live documents in key order. The key set is
// captured when iteration starts; keys deleted afterwards are skipped.
// Iteration stops at the first error.
func (s *Store) All() iter.Seq2[*Doc, error] {
	return func(yield func(*Doc, error) bool) {
		f := s.f
		f.mu.RLock()
		if f.closed {
			f.mu.RUnlock()
			yield(nil, StatusFileNotOpen)
			return
		}
		var keys []string
		if idx := f.stores[s.name]; idx != nil {
			for k, e := range idx.keys {
				if !e.deleted {
					keys = append(keys, k)
				}
			}
		}
		f.mu.RUnlock()

		slices.Sort(keys)
		for _, k := range keys {
			doc, err := s.Get(k)
			if errors.Is(err, StatusKeyNotFound) {
				continue
			}
			if !yield(doc, err) || err != nil {
				return
			}
		}
	}
}

// LastSequence returns the sequence number of the most recent write.
func (s *Store) LastSequence() uint64 {
	s.f.mu.RLock()
	defer s.f.mu.RUnlock()
	if idx := s.f.stores[s.name]; idx != nil {
		return idx.seq
	}
	return 0
}

// Count returns the number of live documents.
func (s *Store) Count() int {
	s.f.mu.RLock()
	defer s.f.mu.RUnlock()
	if idx := s.f.stores[s.name]; idx != nil {
		return idx.live
	}
	return 0
}

func (f *File) lookup(store, key string) (entry, bool) {
	idx := f.stores[store]
	if idx == nil {
		return entry{}, false
	}
	e, ok := idx.keys[key]
	return e, ok
}

// index returns the store's index, creating it. Caller holds f.mu.
func (f *File) index(store string) *keyIndex {
	idx := f.stores[store]
	if idx == nil {
		idx = &keyIndex{keys: make(map[string]entry)}
		f.stores[store] = idx
	}
	return idx
}

// write checksums, encodes and appends r, then updates the index. Caller
// holds f.mu for writing.
func (f *File) write(idx *keyIndex, r *record) error {
	r.Sum = r.checksum(f.header.Algorithm)
	line, err := encode(r)
	if err != nil {
		return f.fail("encode", StatusInvalidArgs, err)
	}
	if len(line) > f.config.MaxRecordSize {
		return StatusRecordTooLarge
	}

	offset, err := f.appendLine("write", line)
	if err != nil {
		return err
	}

	prev, existed := idx.keys[r.Key]
	idx.keys[r.Key] = entry{offset: offset, length: len(line), seq: r.Seq, deleted: r.Deleted}
	idx.seq = r.Seq
	switch {
	case r.Deleted && existed && !prev.deleted:
		idx.live--
	case !r.Deleted && (!existed || prev.deleted):
		idx.live++
	}
	return nil
}

// read loads and verifies the record at e. Caller holds f.mu.
func (f *File) read(store, key string, e entry) (*Doc, error) {
	line, err := lineAt(f.file, e.offset, e.length)
	if err != nil {
		return nil, f.fail("read", StatusReadFail, err)
	}
	r, err := decode(line)
	if err != nil {
		return nil, f.fail("read", StatusFileCorruption, err)
	}
	if r.Store != store || r.Key != key || r.Seq != e.seq {
		return nil, f.fail("read", StatusFileCorruption, errors.New("record does not match index"))
	}
	if r.Sum != r.checksum(f.header.Algorithm) {
		return nil, f.fail("read", StatusChecksumError, errors.New(key))
	}

	meta, err := decodePayload(r.Meta, false)
	if err != nil {
		return nil, f.fail("read", StatusCompressionFail, err)
	}
	body, err := decodePayload(r.Body, r.Compressed)
	if err != nil {
		return nil, f.fail("read", StatusCompressionFail, err)
	}

	return &Doc{
		Key:       r.Key,
		Meta:      meta,
		Body:      body,
		Sequence:  r.Seq,
		Timestamp: r.Timestamp,
	}, nil
}
