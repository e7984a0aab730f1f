// Record format.
//
// Every record is a single JSON line. A Set appends a live record, a Delete
// appends a tombstone with _x set. Records are never rewritten in place; the
// newest line for a store/key pair wins when the file is loaded.
package engine

import (
	"bytes"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// record is the on-disk form of one write.
type record struct {
	Store      string `json:"_s"`           // Key-value store name
	Key        string `json:"_k"`           // Document key
	Seq        uint64 `json:"_q"`           // Per-store sequence number
	Timestamp  int64  `json:"_ts"`          // Unix milliseconds
	Deleted    bool   `json:"_x,omitempty"` // Tombstone
	Meta       string `json:"_m,omitempty"` // Ascii85 metadata
	Body       string `json:"_b,omitempty"` // Ascii85 body, zstd first when _z
	Compressed bool   `json:"_z,omitempty"` // Body is zstd-compressed
	Sum        string `json:"_c"`           // Checksum, see checksum.go
}

// Doc is a document read from a Store.
type Doc struct {
	Key       string
	Meta      []byte
	Body      []byte
	Sequence  uint64
	Timestamp int64
}

// checksum computes the record's checksum with the file's algorithm.
func (r *record) checksum(alg int) string {
	return checksum(alg,
		r.Store,
		r.Key,
		strconv.FormatUint(r.Seq, 10),
		strconv.FormatBool(r.Deleted),
		r.Meta,
		r.Body,
	)
}

func decode(line []byte) (*record, error) {
	var r record
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func encode(r *record) ([]byte, error) {
	return json.Marshal(r)
}

// now returns the current time in unix milliseconds.
func now() int64 {
	return time.Now().UnixMilli()
}

// attribute recovers the store, key and sequence of a line that does not
// decode. encode writes those fields first, so damage later in the line
// leaves them readable. ok is false when the damage reaches them.
func attribute(line []byte) (store, key string, seq uint64, ok bool) {
	rest, ok := bytes.CutPrefix(line, []byte(`{"_s":`))
	if !ok {
		return "", "", 0, false
	}
	if store, rest, ok = cutString(rest); !ok {
		return "", "", 0, false
	}
	if rest, ok = bytes.CutPrefix(rest, []byte(`,"_k":`)); !ok {
		return "", "", 0, false
	}
	if key, rest, ok = cutString(rest); !ok {
		return "", "", 0, false
	}
	if rest, ok = bytes.CutPrefix(rest, []byte(`,"_q":`)); !ok {
		return "", "", 0, false
	}
	end := bytes.IndexByte(rest, ',')
	if end < 0 {
		return "", "", 0, false
	}
	seq, err := strconv.ParseUint(string(rest[:end]), 10, 64)
	if err != nil || seq == 0 {
		return "", "", 0, false
	}
	return store, key, seq, true
}

// cutString decodes the JSON string at the start of b and returns the rest.
func cutString(b []byte) (string, []byte, bool) {
	if len(b) == 0 || b[0] != '"' {
		return "", nil, false
	}
	for i := 1; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case '"':
			var s string
			if err := json.Unmarshal(b[:i+1], &s); err != nil {
				return "", nil, false
			}
			return s, b[i+1:], true
		}
	}
	return "", nil, false
}
