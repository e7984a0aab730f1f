// Payload encoding.
//
// Bodies and metadata are stored as Ascii85 strings so they embed in a JSON
// line without escaping or newlines. When compression is enabled the body is
// zstd-compressed before encoding; the record's _z flag says which form the
// reader must undo.
package engine

import (
	"bytes"
	"encoding/ascii85"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Shared encoder/decoder, both safe for concurrent use. Construction is
// expensive so they are built once.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	zstdDecoder, _ = zstd.NewReader(nil)
)

func encodePayload(data []byte, compressed bool) string {
	if len(data) == 0 {
		return ""
	}
	if compressed {
		data = zstdEncoder.EncodeAll(data, nil)
	}

	var encoded bytes.Buffer
	enc := ascii85.NewEncoder(&encoded)
	// bytes.Buffer.Write never errors; enc.Close flushes trailing padding.
	_, _ = enc.Write(data)
	_ = enc.Close()
	return encoded.String()
}

func decodePayload(encoded string, compressed bool) ([]byte, error) {
	if encoded == "" {
		return nil, nil
	}

	dec := ascii85.NewDecoder(bytes.NewReader([]byte(encoded)))
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("ascii85: %w", err)
	}
	if !compressed {
		return raw, nil
	}

	out, err := zstdDecoder.DecodeAll(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return out, nil
}
