// File header.
//
// The header is a fixed HeaderSize-byte JSON line padded with spaces. The
// dirty flag sits at a fixed byte offset so it can be toggled with a single
// one-byte write instead of re-encoding the header.
package engine

import (
	"bytes"
	"errors"
	"os"

	json "github.com/goccy/go-json"
)

// HeaderSize is the fixed size of the header in bytes.
const HeaderSize = 128

// FormatVersion is written to new files. It must stay a single digit so
// that dirtyOffset remains valid.
const FormatVersion = 1

// dirtyOffset is the position of the _e digit: {"_v":1,"_e":X
const dirtyOffset = 13

var errHeaderTooLarge = errors.New("header exceeds fixed size")

// Header holds file-level metadata.
type Header struct {
	Version   int   `json:"_v"`   // Format version
	Dirty     int   `json:"_e"`   // 0=clean, 1=written since last clean close
	Algorithm int   `json:"_alg"` // Checksum algorithm
	Timestamp int64 `json:"_ts"`  // Unix milliseconds when the file was created
}

// readHeader reads the header from the start of f. A short read reports
// StatusNoDBHeaders and a malformed header StatusFileCorruption; the
// underlying error is returned alongside for logging.
func readHeader(f *os.File) (*Header, Status, error) {
	buf := make([]byte, HeaderSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return nil, StatusNoDBHeaders, err
	}

	var hdr Header
	if err := json.Unmarshal(bytes.TrimSpace(buf), &hdr); err != nil {
		return nil, StatusFileCorruption, err
	}
	if hdr.Version != FormatVersion {
		return nil, StatusFileCorruption, errors.New("unsupported format version")
	}
	return &hdr, StatusOK, nil
}

// markDirty sets or clears the dirty flag in place.
func markDirty(w *os.File, v bool) error {
	b := byte('0')
	if v {
		b = '1'
	}
	_, err := w.WriteAt([]byte{b}, dirtyOffset)
	return err
}

// encode serialises the header to exactly HeaderSize bytes.
func (h *Header) encode() ([]byte, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	if len(data) > HeaderSize-1 {
		return nil, errHeaderTooLarge
	}

	buf := bytes.Repeat([]byte{' '}, HeaderSize)
	copy(buf, data)
	buf[HeaderSize-1] = '\n'
	return buf, nil
}
