package forest

import (
	"math"
	"regexp"
	"testing"
)

func TestParseRevID(t *testing.T) {
	tests := []struct {
		in   string
		want RevID
	}{
		{"1-abc", RevID{1, "abc"}},
		{"12-0f9e", RevID{12, "0f9e"}},
		{"4294967295-X", RevID{math.MaxUint32, "X"}},
	}

	for _, tt := range tests {
		got, err := ParseRevID(tt.in)
		if err != nil {
			t.Errorf("ParseRevID(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRevID(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if got.String() != tt.in {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}

func TestParseRevIDMalformed(t *testing.T) {
	tests := []string{
		"",
		"-",
		"1-",
		"-abc",
		"abc",
		"0-abc",
		"01-abc",
		"+1-abc",
		"x-abc",
		"4294967296-abc",
		"18446744073709551616-abc",
		"1-ab-c",
		"1-ab c",
		"1-\x00",
		"1-" + string(make([]byte, MaxDigestSize+1)),
	}

	for _, in := range tests {
		_, err := ParseRevID(in)
		if err != ErrBadRevisionID {
			t.Errorf("ParseRevID(%q) = %v, want ErrBadRevisionID", in, err)
		}
	}
}

var digestPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestNewRevID(t *testing.T) {
	first := NewRevID(RevID{}, []byte("body"), false)
	if first.Gen != 1 {
		t.Errorf("Gen = %d, want 1", first.Gen)
	}
	if !digestPattern.MatchString(first.Digest) {
		t.Errorf("Digest = %q, want 32 hex chars", first.Digest)
	}

	again := NewRevID(RevID{}, []byte("body"), false)
	if again != first {
		t.Errorf("NewRevID not deterministic: %v != %v", again, first)
	}

	deleted := NewRevID(RevID{}, []byte("body"), true)
	if deleted == first {
		t.Error("deletion flag does not change the digest")
	}

	child := NewRevID(first, []byte("body"), false)
	if child.Gen != 2 || child.Digest == first.Digest {
		t.Errorf("child = %v", child)
	}

	if _, err := ParseRevID(child.String()); err != nil {
		t.Errorf("generated ID does not parse: %v", err)
	}
}

func TestRevIDCompare(t *testing.T) {
	a := RevID{1, "b"}
	b := RevID{2, "a"}
	c := RevID{2, "b"}

	if a.Compare(b) >= 0 || b.Compare(a) <= 0 {
		t.Error("generation does not dominate")
	}
	if b.Compare(c) >= 0 {
		t.Error("digest does not break ties")
	}
	if c.Compare(c) != 0 {
		t.Error("Compare(self) != 0")
	}
}

func TestRevIDZero(t *testing.T) {
	var r RevID
	if !r.IsZero() || r.String() != "" {
		t.Errorf("zero RevID = %q, IsZero %v", r.String(), r.IsZero())
	}
}
