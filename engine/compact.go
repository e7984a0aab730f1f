// Compaction rewrites the file with only the newest live record per key.
//
// A temporary file (.tmp) is written, synced and atomically renamed over
// the original, so a crash at any point leaves either the old file intact or
// the new one complete. A leftover .tmp is removed on the next Open.
// Records are copied byte for byte, so sequence numbers and checksums carry
// over unchanged. Tombstones are dropped except a store's newest record
// when it is one: it carries the store's highest sequence, which must
// survive so sequence numbers are never reused.
package engine

import (
	"os"
	"slices"
)

// Compact rewrites the file. Readers and writers are blocked for the
// duration.
func (f *File) Compact() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return StatusFileNotOpen
	}
	if f.config.ReadOnly {
		return StatusReadOnlyViolation
	}

	tmpName := f.name + ".tmp"
	kept, err := f.rebuild(tmpName)
	if err != nil {
		f.root.Remove(tmpName)
		return err
	}

	// The lock belongs to the old handle; drop both before the rename.
	f.lock.Unlock()
	f.lock.setFile(nil)
	f.file.Close()
	f.file = nil

	if err := f.root.Rename(tmpName, f.name); err != nil {
		f.fail("compact", StatusFileRenameFail, err)
		// The original is untouched; reattach to it.
		f.root.Remove(tmpName)
		if aerr := f.attach(); aerr != nil {
			f.closed = true
			f.root.Close()
		}
		return StatusFileRenameFail
	}

	if err := f.attach(); err != nil {
		f.closed = true
		f.root.Close()
		return err
	}

	f.log.Debug().Str("file", f.name).Int("records", kept).Int64("size", f.tail).Msg("compacted")
	return nil
}

// rebuild writes a clean header followed by the live records of every store,
// plus any tombstone holding a store's highest sequence, to tmpName and
// syncs it. Caller holds f.mu for writing.
func (f *File) rebuild(tmpName string) (int, error) {
	tmp, err := f.root.OpenFile(tmpName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, f.fail("compact", StatusCompactionFail, err)
	}
	defer tmp.Close()

	hdr := Header{
		Version:   FormatVersion,
		Algorithm: f.header.Algorithm,
		Timestamp: f.header.Timestamp,
	}
	buf, err := hdr.encode()
	if err != nil {
		return 0, f.fail("compact", StatusCompactionFail, err)
	}
	if _, err := tmp.Write(buf); err != nil {
		return 0, f.fail("compact", StatusCompactionFail, err)
	}

	kept := 0
	stores := make([]string, 0, len(f.stores))
	for name := range f.stores {
		stores = append(stores, name)
	}
	slices.Sort(stores)

	for _, name := range stores {
		idx := f.stores[name]
		keys := make([]string, 0, len(idx.keys))
		var mark string
		for k, e := range idx.keys {
			switch {
			case !e.deleted:
				keys = append(keys, k)
			case e.seq == idx.seq:
				mark = k
			}
		}
		slices.Sort(keys)
		if mark != "" {
			keys = append(keys, mark)
		}

		for _, k := range keys {
			e := idx.keys[k]
			line, err := lineAt(f.file, e.offset, e.length)
			if err != nil {
				return 0, f.fail("compact", StatusReadFail, err)
			}
			if _, err := decode(line); err != nil {
				return 0, f.fail("compact", StatusFileCorruption, err)
			}
			if _, err := tmp.Write(append(line, '\n')); err != nil {
				return 0, f.fail("compact", StatusCompactionFail, err)
			}
			kept++
		}
	}

	if err := tmp.Sync(); err != nil {
		return 0, f.fail("compact", StatusFsyncFail, err)
	}
	return kept, nil
}
