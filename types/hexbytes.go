package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// HexBytes is a []byte which encodes as hexadecimal in json, as opposed to the
// base64 default.
type HexBytes []byte

// String returns the hexadecimal representation of the bytes.
func (b HexBytes) String() string {
	return hex.EncodeToString(b)
}

// Bytes returns the underlying byte slice.
func (b HexBytes) Bytes() []byte {
	return b
}

// Equal reports whether b and o hold the same bytes.
func (b HexBytes) Equal(o HexBytes) bool {
	if len(b) != len(o) {
		return false
	}
	for i := range b {
		if b[i] != o[i] {
			return false
		}
	}
	return true
}

// IsEmpty reports whether b holds no bytes.
func (b HexBytes) IsEmpty() bool {
	return len(b) == 0
}

func (b HexBytes) MarshalJSON() ([]byte, error) {
	enc := make([]byte, hex.EncodedLen(len(b))+2)
	enc[0] = '"'
	hex.Encode(enc[1:], b)
	enc[len(enc)-1] = '"'
	return enc, nil
}

func (b *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid JSON string: %q", data)
	}
	return b.FromString(s)
}

// FromString decodes a hex string, with or without the 0x prefix, into b.
func (b *HexBytes) FromString(s string) error {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex string: %w", err)
	}
	*b = decoded
	return nil
}

// HexStringToHexBytes converts a hex string to a HexBytes, panicking on error.
// Meant for tests and constants.
func HexStringToHexBytes(s string) HexBytes {
	var b HexBytes
	if err := b.FromString(s); err != nil {
		panic(err)
	}
	return b
}
