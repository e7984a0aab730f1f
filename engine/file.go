// Package engine is an append-only key-value storage engine backed by a
// single file of JSON lines.
//
// A file holds any number of named key-value stores. Every write appends a
// record; the newest record for a key wins. An in-memory index mapping each
// key to its newest record is rebuilt by scanning the file on Open, and
// Compact rewrites the file with only the live records.
//
// The engine reports failures exclusively as Status codes. Underlying OS and
// codec errors are logged at debug level with the status they were mapped
// to, then dropped.
package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"unicode"

	"github.com/rs/zerolog"
)

// MaxStoreName is the maximum length of a key-value store name in bytes.
const MaxStoreName = 64

// Config holds engine options. The zero value is usable.
type Config struct {
	Checksum      int            // ChecksumXXH3 (default), ChecksumFNV1a or ChecksumBlake2b; new files only
	Compress      bool           // zstd-compress bodies on write
	SyncWrites    bool           // fsync after every write
	ReadOnly      bool           // open without write access; never creates
	MaxRecordSize int            // Maximum encoded record size (default 16MB)
	ReadBuffer    int            // Buffer size for the load scan (default 64KB)
	Logger        zerolog.Logger // Debug output; zero value discards
}

// entry locates the newest record for a key.
type entry struct {
	offset  int64
	length  int
	seq     uint64
	deleted bool
}

// keyIndex is the in-memory state of one key-value store.
type keyIndex struct {
	keys map[string]entry
	seq  uint64
	live int
}

// File is an open database file.
type File struct {
	root   *os.Root  // Sandboxed access to the containing directory
	name   string    // Base name of the file
	file   *os.File  // O_RDWR, or O_RDONLY when read-only
	lock   *fileLock // Held for the lifetime of the handle
	header *Header
	config Config
	log    zerolog.Logger
	tail   int64 // Append offset
	stores map[string]*keyIndex
	closed bool
	mu     sync.RWMutex
}

// Open opens or creates the database file at path.
func Open(path string, config Config) (*File, error) {
	log := config.Logger
	if config.Checksum == 0 {
		config.Checksum = ChecksumXXH3
	}
	if config.MaxRecordSize == 0 {
		config.MaxRecordSize = 16 * 1024 * 1024
	}
	if config.ReadBuffer == 0 {
		config.ReadBuffer = 64 * 1024
	}
	if !validChecksum(config.Checksum) || config.MaxRecordSize < 0 || config.ReadBuffer < 0 {
		return nil, fail(log, "open", StatusInvalidConfig, errors.New("bad config"))
	}

	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if name == "" {
		return nil, fail(log, "open", StatusInvalidArgs, errors.New("empty file name"))
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fail(log, "open", StatusNoSuchFile, err)
		}
		return nil, fail(log, "open", StatusOpenFail, err)
	}

	f, err := openFile(root, name, config)
	if err != nil {
		root.Close()
		return nil, err
	}
	return f, nil
}

func openFile(root *os.Root, name string, config Config) (*File, error) {
	log := config.Logger

	if _, err := root.Stat(name); errors.Is(err, os.ErrNotExist) {
		if config.ReadOnly {
			return nil, fail(log, "open", StatusNoSuchFile, err)
		}
		if err := create(root, name, config.Checksum); err != nil {
			return nil, fail(log, "create", StatusWriteFail, err)
		}
	}

	if !config.ReadOnly {
		// A leftover .tmp means a compaction died before its rename.
		if err := root.Remove(name + ".tmp"); err == nil {
			log.Debug().Str("file", name).Msg("removed stale compaction file")
		}
	}

	f := &File{
		root:   root,
		name:   name,
		config: config,
		log:    log,
		lock:   &fileLock{},
	}
	if err := f.attach(); err != nil {
		return nil, err
	}
	return f, nil
}

// create writes a new file containing only a clean header.
func create(root *os.Root, name string, alg int) error {
	hdr := Header{
		Version:   FormatVersion,
		Algorithm: alg,
		Timestamp: now(),
	}
	buf, err := hdr.encode()
	if err != nil {
		return err
	}

	file, err := root.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := file.Write(buf); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// attach opens the handle, takes the lock, reads the header and rebuilds
// the index. Used by Open and again by Compact after the rename.
func (f *File) attach() error {
	flag, mode := os.O_RDWR, LockExclusive
	if f.config.ReadOnly {
		flag, mode = os.O_RDONLY, LockShared
	}

	file, err := f.root.OpenFile(f.name, flag, 0644)
	if err != nil {
		return f.fail("open", StatusOpenFail, err)
	}

	f.lock.setFile(file)
	if err := f.lock.TryLock(mode); err != nil {
		f.lock.setFile(nil)
		file.Close()
		return f.fail("lock", StatusFileIsBusy, err)
	}

	hdr, status, err := readHeader(file)
	if err != nil {
		f.lock.Unlock()
		f.lock.setFile(nil)
		file.Close()
		return f.fail("header", status, err)
	}
	if !validChecksum(hdr.Algorithm) {
		f.lock.Unlock()
		f.lock.setFile(nil)
		file.Close()
		return f.fail("header", StatusFileCorruption, errors.New("unknown checksum algorithm"))
	}
	if hdr.Dirty == 1 {
		f.log.Warn().Str("file", f.name).Msg("file was not closed cleanly")
	}

	f.file = file
	f.header = hdr
	if err := f.load(); err != nil {
		f.lock.Unlock()
		f.lock.setFile(nil)
		file.Close()
		f.file = nil
		return err
	}
	return nil
}

// load scans every record and rebuilds the in-memory index. A line that
// does not decode still names its store, key and sequence unless the damage
// reaches them; it is indexed like any other record, so a Get of that key
// reports StatusFileCorruption instead of an older version. A line that
// cannot be attributed fails the load. A torn trailing line is cut off when
// the file is writable.
func (f *File) load() error {
	stores := make(map[string]*keyIndex)
	damaged, lost := 0, 0

	tail, err := lines(f.file, f.config.ReadBuffer, func(offset int64, line []byte) {
		r, err := decode(line)
		if err != nil {
			store, key, seq, ok := attribute(line)
			if !ok {
				lost++
				return
			}
			damaged++
			r = &record{Store: store, Key: key, Seq: seq}
		}
		idx := stores[r.Store]
		if idx == nil {
			idx = &keyIndex{keys: make(map[string]entry)}
			stores[r.Store] = idx
		}
		if prev, ok := idx.keys[r.Key]; ok && !prev.deleted {
			idx.live--
		}
		idx.keys[r.Key] = entry{offset: offset, length: len(line), seq: r.Seq, deleted: r.Deleted}
		if !r.Deleted {
			idx.live++
		}
		idx.seq = max(idx.seq, r.Seq)
	})
	if err != nil {
		return f.fail("load", StatusReadFail, err)
	}
	if lost > 0 {
		return f.fail("load", StatusFileCorruption, fmt.Errorf("%d unattributable records", lost))
	}
	if damaged > 0 {
		f.log.Warn().Str("file", f.name).Int("records", damaged).Msg("damaged records indexed")
	}

	sz, err := size(f.file)
	if err != nil {
		return f.fail("load", StatusReadFail, err)
	}
	if sz > tail && !f.config.ReadOnly {
		f.log.Warn().Str("file", f.name).Int64("bytes", sz-tail).Msg("truncating torn write")
		if err := f.file.Truncate(tail); err != nil {
			return f.fail("load", StatusWriteFail, err)
		}
	}

	f.stores = stores
	f.tail = tail
	return nil
}

// Close releases the lock and the file handle. The dirty flag is cleared
// when the file was written in this session.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return StatusFileNotOpen
	}
	f.closed = true

	var status Status
	var cause error
	if f.header.Dirty == 1 && !f.config.ReadOnly {
		if err := f.file.Sync(); err != nil {
			status, cause = StatusFsyncFail, err
		} else if err := markDirty(f.file, false); err != nil {
			status, cause = StatusWriteFail, err
		} else if err := f.file.Sync(); err != nil {
			status, cause = StatusFsyncFail, err
		} else {
			f.header.Dirty = 0
		}
	}

	f.lock.Unlock()
	f.lock.setFile(nil)
	if err := f.file.Close(); err != nil && cause == nil {
		status, cause = StatusCloseFail, err
	}
	if err := f.root.Close(); err != nil && cause == nil {
		status, cause = StatusCloseFail, err
	}

	if cause != nil {
		return f.fail("close", status, cause)
	}
	return nil
}

// Commit flushes appended records to stable storage.
func (f *File) Commit() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return StatusFileNotOpen
	}
	if f.config.ReadOnly {
		return StatusReadOnlyViolation
	}
	if err := f.file.Sync(); err != nil {
		return f.fail("commit", StatusCommitFail, err)
	}
	return nil
}

// Store returns a handle to the named key-value store. The store comes into
// existence with its first write.
func (f *File) Store(name string) (*Store, error) {
	if !validStoreName(name) {
		return nil, StatusInvalidStoreName
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, StatusFileNotOpen
	}
	return &Store{f: f, name: name}, nil
}

// Stores returns the sorted names of stores that hold at least one record.
func (f *File) Stores() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.stores))
	for name := range f.stores {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Algorithm returns the checksum algorithm recorded in the header.
func (f *File) Algorithm() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.header.Algorithm
}

func validStoreName(name string) bool {
	if name == "" || len(name) > MaxStoreName {
		return false
	}
	for _, r := range name {
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return false
		}
	}
	return true
}

// fail logs the underlying error with the status replacing it.
func (f *File) fail(op string, s Status, err error) error {
	return fail(f.log, op, s, err)
}

func fail(log zerolog.Logger, op string, s Status, err error) error {
	log.Debug().Err(err).Str("op", op).Int("status", int(s)).Msg(s.String())
	return s
}
