package kv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Segment type tags. Tag order defines the order between segments of
// different types: bytes < string < int < uint < bool.
const (
	tagBytes  byte = 0x01
	tagString byte = 0x02
	tagInt    byte = 0x15
	tagUint   byte = 0x16
	tagFalse  byte = 0x26
	tagTrue   byte = 0x27
)

var (
	ErrInvalidKey     = errors.New("invalid key")
	ErrUnsupportedKey = errors.New("unsupported key segment type")
)

// Key is an ordered tuple of segments. Supported segment types are
// string, []byte, int, int64, uint64 and bool. Encoded keys sort in the
// same order as their tuples.
type Key []any

// Encode returns the order-preserving binary form of the key.
func (k Key) Encode() ([]byte, error) {
	if len(k) == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	return k.appendTo(make([]byte, 0, 32))
}

func (k Key) appendTo(buf []byte) ([]byte, error) {
	for i, seg := range k {
		switch v := seg.(type) {
		case string:
			buf = appendEscaped(append(buf, tagString), []byte(v))
		case []byte:
			buf = appendEscaped(append(buf, tagBytes), v)
		case int:
			buf = appendInt(buf, int64(v))
		case int64:
			buf = appendInt(buf, v)
		case uint64:
			buf = binary.BigEndian.AppendUint64(append(buf, tagUint), v)
		case bool:
			if v {
				buf = append(buf, tagTrue)
			} else {
				buf = append(buf, tagFalse)
			}
		default:
			return nil, fmt.Errorf("%w: segment %d has type %T", ErrUnsupportedKey, i, seg)
		}
	}
	return buf, nil
}

// encodePrefix is like Encode but allows an empty tuple, which selects
// the whole keyspace.
func (k Key) encodePrefix() ([]byte, error) {
	return k.appendTo(nil)
}

func appendInt(buf []byte, v int64) []byte {
	// flipping the sign bit makes two's complement sort as unsigned
	return binary.BigEndian.AppendUint64(append(buf, tagInt), uint64(v)^(1<<63))
}

func appendEscaped(buf, b []byte) []byte {
	for _, c := range b {
		buf = append(buf, c)
		if c == 0x00 {
			buf = append(buf, 0xFF)
		}
	}
	return append(buf, 0x00)
}

// DecodeKey is the inverse of Key.Encode. Integer segments decode as
// int64 regardless of the type they were encoded from.
func DecodeKey(b []byte) (Key, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty encoding", ErrInvalidKey)
	}

	var key Key
	for len(b) > 0 {
		tag := b[0]
		b = b[1:]
		switch tag {
		case tagString, tagBytes:
			raw, rest, err := readEscaped(b)
			if err != nil {
				return nil, err
			}
			if tag == tagString {
				key = append(key, string(raw))
			} else {
				key = append(key, raw)
			}
			b = rest
		case tagInt, tagUint:
			if len(b) < 8 {
				return nil, fmt.Errorf("%w: truncated integer", ErrInvalidKey)
			}
			u := binary.BigEndian.Uint64(b[:8])
			if tag == tagInt {
				key = append(key, int64(u^(1<<63)))
			} else {
				key = append(key, u)
			}
			b = b[8:]
		case tagFalse:
			key = append(key, false)
		case tagTrue:
			key = append(key, true)
		default:
			return nil, fmt.Errorf("%w: unknown tag 0x%02x", ErrInvalidKey, tag)
		}
	}
	return key, nil
}

func readEscaped(b []byte) ([]byte, []byte, error) {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != 0x00 {
			out = append(out, b[i])
			continue
		}
		if i+1 < len(b) && b[i+1] == 0xFF {
			out = append(out, 0x00)
			i++
			continue
		}
		return out, b[i+1:], nil
	}
	return nil, nil, fmt.Errorf("%w: unterminated segment", ErrInvalidKey)
}

// prefixRange returns the [start, end) byte range holding every key that
// extends prefix by at least one segment. No segment starts with 0x00 or
// 0xFF, so prefix+0x00 skips the prefix key itself and prefix+0xFF bounds
// every extension.
func prefixRange(prefix []byte) (start, end []byte) {
	return successor(prefix), append(bytes.Clone(prefix), 0xFF)
}

// successor returns the smallest byte string greater than b.
func successor(b []byte) []byte {
	return append(bytes.Clone(b), 0x00)
}

// Equal reports whether two keys have identical encodings.
func (k Key) Equal(other Key) bool {
	a, errA := k.Encode()
	b, errB := other.Encode()
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

func (k Key) String() string {
	parts := make([]string, len(k))
	for i, seg := range k {
		switch v := seg.(type) {
		case string:
			parts[i] = fmt.Sprintf("%q", v)
		case []byte:
			parts[i] = fmt.Sprintf("0x%x", v)
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
