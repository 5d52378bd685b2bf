package usage

import (
	"encoding/json"
	"fmt"
)

// Size is a byte count that is either known or unavailable. The zero value is
// unavailable, so a size that was never computed can not pass for zero bytes.
type Size struct {
	bytes int64
	known bool
}

// Known returns a known size of n bytes.
func Known(n int64) Size {
	return Size{bytes: n, known: true}
}

// Unavailable returns the size of something that could not be read.
func Unavailable() Size {
	return Size{}
}

// Bytes returns the byte count and whether it is known.
func (s Size) Bytes() (int64, bool) {
	return s.bytes, s.known
}

func (s Size) IsKnown() bool {
	return s.known
}

// Add sums two sizes. Unavailability is absorbing.
func (s Size) Add(other Size) Size {
	if !s.known || !other.known {
		return Unavailable()
	}
	return Known(s.bytes + other.bytes)
}

func (s Size) String() string {
	if !s.known {
		return "unavailable"
	}
	return fmt.Sprintf("%d", s.bytes)
}

// MarshalJSON encodes an unavailable size as null.
func (s Size) MarshalJSON() ([]byte, error) {
	if !s.known {
		return []byte("null"), nil
	}
	return json.Marshal(s.bytes)
}

// MarshalYAML encodes an unavailable size as null.
func (s Size) MarshalYAML() (interface{}, error) {
	if !s.known {
		return nil, nil
	}
	return s.bytes, nil
}
