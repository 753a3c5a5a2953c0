package tsvector

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/klauspost/compress/s2"
)

// Vectors are stored in SQLite as a TSV1 blob: a 4-byte magic, one flag
// byte, then the payload. The payload mirrors PostgreSQL's binary tsvector
// layout: a big-endian uint32 lexeme count followed by, per lexeme, the
// NUL-terminated UTF-8 text, a uint16 position count and that many packed
// uint16 positions. Payloads past a size threshold are s2-compressed, marked
// by the flag bit.
const (
	blobMagic      = "TSV1"
	flagCompressed = 0x01

	compressThreshold = 512
)

// EncodeVector encodes a Vector into a BLOB representation suitable for
// storage in SQLite. The empty vector encodes to nil. Lexeme text must not
// contain a NUL byte.
func EncodeVector(v Vector) ([]byte, error) {
	if v.Len() == 0 {
		return nil, nil
	}
	payload, err := appendPayload(nil, v)
	if err != nil {
		return nil, err
	}
	flags := byte(0)
	if len(payload) > compressThreshold {
		if packed := s2.Encode(nil, payload); len(packed) < len(payload) {
			payload = packed
			flags |= flagCompressed
		}
	}
	out := make([]byte, 0, len(blobMagic)+1+len(payload))
	out = append(out, blobMagic...)
	out = append(out, flags)
	return append(out, payload...), nil
}

func appendPayload(b []byte, v Vector) ([]byte, error) {
	b = binary.BigEndian.AppendUint32(b, uint32(len(v.lexemes)))
	for _, l := range v.lexemes {
		if strings.IndexByte(l.text, 0) >= 0 {
			return nil, fmt.Errorf("tsvector: lexeme %q contains a NUL byte", l.text)
		}
		b = append(b, l.text...)
		b = append(b, 0)
		b = binary.BigEndian.AppendUint16(b, uint16(len(l.positions)))
		for _, p := range l.positions {
			b = binary.BigEndian.AppendUint16(b, p.packed)
		}
	}
	return b, nil
}

// DecodeVector decodes a BLOB produced by EncodeVector. The result is
// re-normalized, so even a hand-crafted payload cannot yield a non-canonical
// Vector; structural damage (truncation, trailing bytes, a zero position)
// is an error.
func DecodeVector(b []byte) (Vector, error) {
	if len(b) == 0 {
		return Vector{}, nil
	}
	if !isVectorBlob(b) {
		return Vector{}, fmt.Errorf("tsvector: not a %s blob", blobMagic)
	}
	flags := b[4]
	if flags&^byte(flagCompressed) != 0 {
		return Vector{}, fmt.Errorf("tsvector: unsupported blob flags %#x", flags)
	}
	payload := b[5:]
	if flags&flagCompressed != 0 {
		raw, err := s2.Decode(nil, payload)
		if err != nil {
			return Vector{}, fmt.Errorf("tsvector: corrupt compressed blob: %w", err)
		}
		payload = raw
	}
	if len(payload) < 4 {
		return Vector{}, fmt.Errorf("tsvector: truncated blob header")
	}
	count := binary.BigEndian.Uint32(payload)
	payload = payload[4:]
	// Every lexeme takes at least 3 bytes (empty text, its NUL, the position
	// count), which bounds count before any allocation.
	if uint64(count)*3 > uint64(len(payload)) {
		return Vector{}, fmt.Errorf("tsvector: blob lexeme count %d exceeds payload", count)
	}
	ls := make([]Lexeme, 0, count)
	for i := uint32(0); i < count; i++ {
		nul := bytes.IndexByte(payload, 0)
		if nul < 0 {
			return Vector{}, fmt.Errorf("tsvector: truncated blob: unterminated lexeme text")
		}
		text := string(payload[:nul])
		payload = payload[nul+1:]
		if len(payload) < 2 {
			return Vector{}, fmt.Errorf("tsvector: truncated blob: missing position count")
		}
		npos := int(binary.BigEndian.Uint16(payload))
		payload = payload[2:]
		if len(payload) < 2*npos {
			return Vector{}, fmt.Errorf("tsvector: truncated blob: missing positions")
		}
		var ps []Position
		if npos > 0 {
			ps = make([]Position, npos)
			for j := range ps {
				packed := binary.BigEndian.Uint16(payload[2*j:])
				if packed&MaxPosition == 0 {
					return Vector{}, fmt.Errorf("tsvector: blob carries position 0")
				}
				ps[j] = Position{packed: packed}
			}
			payload = payload[2*npos:]
		}
		ls = append(ls, Lexeme{text: text, positions: ps})
	}
	if len(payload) != 0 {
		return Vector{}, fmt.Errorf("tsvector: %d trailing bytes after blob payload", len(payload))
	}
	return newOwned(ls), nil
}

// isVectorBlob reports whether b starts like a TSV1 blob.
func isVectorBlob(b []byte) bool {
	return len(b) >= 5 && string(b[:4]) == blobMagic
}
