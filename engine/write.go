// Write primitives for the append-only file.
//
// New records are always appended at f.tail. The dirty flag is set on the
// first write of a session so an unclean shutdown is visible on the next
// Open. It is cleared by Close once everything has been flushed.
package engine

// appendLine writes line plus a newline at the tail and advances it. The
// caller must hold f.mu for writing.
func (f *File) appendLine(op string, line []byte) (int64, error) {
	if f.header.Dirty == 0 {
		if err := markDirty(f.file, true); err != nil {
			return 0, f.fail(op, StatusWriteFail, err)
		}
		f.header.Dirty = 1
	}

	offset := f.tail
	data := make([]byte, 0, len(line)+1)
	data = append(data, line...)
	data = append(data, '\n')
	if _, err := f.file.WriteAt(data, offset); err != nil {
		return 0, f.fail(op, StatusWriteFail, err)
	}
	f.tail += int64(len(data))

	if f.config.SyncWrites {
		if err := f.file.Sync(); err != nil {
			return 0, f.fail(op, StatusFsyncFail, err)
		}
	}
	return offset, nil
}
