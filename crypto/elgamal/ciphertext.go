package elgamal

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
)

const (
	sizePoint = 32
	// SizeCiphertext is the size in bytes of a serialized Ciphertext, two
	// compressed points.
	SizeCiphertext = 2 * sizePoint
)

// Ciphertext represents an ElGamal encrypted message with additive
// homomorphic properties over the BabyJubJub curve.
type Ciphertext struct {
	C1 *babyjub.Point
	C2 *babyjub.Point
}

// NewCiphertext returns the encryption of zero with zero randomness, the
// identity of the homomorphic addition.
func NewCiphertext() *Ciphertext {
	return &Ciphertext{C1: babyjub.NewPoint(), C2: babyjub.NewPoint()}
}

// Encrypt encrypts a message using the public key provided as elliptic curve point.
// The randomness k can be provided or nil to generate a new one.
func (z *Ciphertext) Encrypt(message *big.Int, publicKey *babyjub.Point, k *big.Int) (*Ciphertext, error) {
	var err error
	if k == nil {
		k, err = RandK()
		if err != nil {
			return nil, fmt.Errorf("elgamal encryption failed: %w", err)
		}
	}
	z.C1, z.C2 = EncryptWithK(publicKey, message, k)
	return z, nil
}

// Add adds two Ciphertext and stores the result in z, which is also returned.
func (z *Ciphertext) Add(x, y *Ciphertext) *Ciphertext {
	c1, c2 := add(x.C1, y.C1), add(x.C2, y.C2)
	z.C1, z.C2 = c1, c2
	return z
}

// Valid reports whether both points lie on the curve and in the prime order
// subgroup.
func (z *Ciphertext) Valid() bool {
	if z == nil || z.C1 == nil || z.C2 == nil {
		return false
	}
	return z.C1.InCurve() && z.C1.InSubGroup() && z.C2.InCurve() && z.C2.InSubGroup()
}

// Equal reports whether z and x hold the same points.
func (z *Ciphertext) Equal(x *Ciphertext) bool {
	return z.C1.Compress() == x.C1.Compress() && z.C2.Compress() == x.C2.Compress()
}

// Serialize returns a slice of len 2*32 bytes, the compressed C1 and C2 points.
func (z *Ciphertext) Serialize() []byte {
	c1, c2 := z.C1.Compress(), z.C2.Compress()
	buf := make([]byte, 0, SizeCiphertext)
	buf = append(buf, c1[:]...)
	return append(buf, c2[:]...)
}

// Deserialize reconstructs a Ciphertext from a slice of bytes. The input must
// be of len 2*32 bytes (otherwise it returns an error).
func (z *Ciphertext) Deserialize(data []byte) error {
	if len(data) != SizeCiphertext {
		return fmt.Errorf("invalid input length: got %d bytes, expected %d bytes", len(data), SizeCiphertext)
	}
	var b1, b2 [sizePoint]byte
	copy(b1[:], data[:sizePoint])
	copy(b2[:], data[sizePoint:])
	c1, err := babyjub.NewPoint().Decompress(b1)
	if err != nil {
		return fmt.Errorf("invalid C1 point: %w", err)
	}
	c2, err := babyjub.NewPoint().Decompress(b2)
	if err != nil {
		return fmt.Errorf("invalid C2 point: %w", err)
	}
	z.C1, z.C2 = c1, c2
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler, also used by CBOR.
func (z *Ciphertext) MarshalBinary() ([]byte, error) {
	return z.Serialize(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler, also used by CBOR.
func (z *Ciphertext) UnmarshalBinary(data []byte) error {
	return z.Deserialize(data)
}

// MarshalJSON encodes the serialized ciphertext as a hex string.
func (z *Ciphertext) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(z.Serialize()))
}

// UnmarshalJSON decodes a hex string produced by MarshalJSON.
func (z *Ciphertext) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	return z.Deserialize(b)
}

// String returns a string representation of the Ciphertext.
func (z *Ciphertext) String() string {
	if z == nil || z.C1 == nil || z.C2 == nil {
		return "{C1: nil, C2: nil}"
	}
	return fmt.Sprintf("{C1: %s,%s, C2: %s,%s}", z.C1.X, z.C1.Y, z.C2.X, z.C2.Y)
}
