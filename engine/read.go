// Low-level read primitives.
//
// All reads go through ReadAt or a SectionReader so that concurrent readers
// sharing one *os.File never disturb each other's offsets.
package engine

import (
	"bufio"
	"errors"
	"io"
	"os"
)

var errShortRead = errors.New("short read")

// lineAt reads length bytes of a record starting at offset. The trailing
// newline is not included in length.
func lineAt(f *os.File, offset int64, length int) ([]byte, error) {
	buf := make([]byte, length)
	n, err := f.ReadAt(buf, offset)
	if n == length {
		return buf, nil
	}
	if err == nil || err == io.EOF {
		err = errShortRead
	}
	return nil, err
}

// lines calls fn for every newline-terminated line after the header. It
// returns the offset just past the last complete line; anything beyond it
// is a torn write.
func lines(f *os.File, bufSize int, fn func(offset int64, line []byte)) (int64, error) {
	sz, err := size(f)
	if err != nil {
		return 0, err
	}
	if sz <= HeaderSize {
		return HeaderSize, nil
	}

	section := io.NewSectionReader(f, HeaderSize, sz-HeaderSize)
	reader := bufio.NewReaderSize(section, bufSize)

	pos := int64(HeaderSize)
	for {
		data, err := reader.ReadBytes('\n')
		if err == io.EOF {
			// Partial trailing line (or clean end when data is empty).
			return pos, nil
		}
		if err != nil {
			return pos, err
		}
		fn(pos, data[:len(data)-1])
		pos += int64(len(data))
	}
}

func size(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
