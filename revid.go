// Revision identifiers.
//
// A revision ID is "<generation>-<digest>": the generation counts edits from
// the document's first revision and the digest distinguishes sibling edits
// of the same generation. IDs arrive as text from callers and replicators,
// so parsing is strict and every failure is ErrBadRevisionID.
package forest

import (
	"cmp"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// MaxDigestSize is the maximum length of a revision digest in bytes.
const MaxDigestSize = 64

// RevID identifies one revision of a document.
type RevID struct {
	Gen    uint32
	Digest string
}

// ParseRevID parses the text form of a revision ID.
func ParseRevID(s string) (RevID, error) {
	gen, digest, ok := strings.Cut(s, "-")
	if !ok || gen == "" || digest == "" || len(digest) > MaxDigestSize {
		return RevID{}, ErrBadRevisionID
	}
	// No sign, no leading zero.
	if gen[0] < '1' || gen[0] > '9' {
		return RevID{}, ErrBadRevisionID
	}
	n, err := strconv.ParseUint(gen, 10, 32)
	if err != nil {
		return RevID{}, ErrBadRevisionID
	}
	for i := 0; i < len(digest); i++ {
		if !isDigestByte(digest[i]) {
			return RevID{}, ErrBadRevisionID
		}
	}
	return RevID{Gen: uint32(n), Digest: digest}, nil
}

func isDigestByte(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// NewRevID derives the ID of a child of parent. The digest covers the
// parent ID, the deletion flag and the body, so identical edits made on
// different replicas produce the same ID. A zero parent yields generation 1.
// A parent at math.MaxUint32 has no next generation; callers reject it.
func NewRevID(parent RevID, body []byte, deleted bool) RevID {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(parent.String()))
	if deleted {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	h.Write(body)
	return RevID{Gen: parent.Gen + 1, Digest: hex.EncodeToString(h.Sum(nil))}
}

// String returns the text form, or "" for the zero RevID.
func (r RevID) String() string {
	if r.IsZero() {
		return ""
	}
	return strconv.FormatUint(uint64(r.Gen), 10) + "-" + r.Digest
}

// IsZero reports whether r is the zero RevID.
func (r RevID) IsZero() bool {
	return r.Gen == 0 && r.Digest == ""
}

// Compare orders by generation, then digest.
func (r RevID) Compare(o RevID) int {
	if c := cmp.Compare(r.Gen, o.Gen); c != 0 {
		return c
	}
	return strings.Compare(r.Digest, o.Digest)
}
