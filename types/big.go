package types

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// BigInt is a big.Int wrapper which marshals JSON to a string representation of
// the big number. Note that a nil pointer value marshals as the empty string.
type BigInt big.Int

// NewInt returns a BigInt holding x.
func NewInt(x int64) *BigInt {
	return (*BigInt)(big.NewInt(x))
}

func (i *BigInt) MarshalText() ([]byte, error) {
	return (*big.Int)(i).MarshalText()
}

func (i *BigInt) UnmarshalText(data []byte) error {
	if i == nil {
		return fmt.Errorf("cannot unmarshal into nil BigInt")
	}
	if _, ok := (*big.Int)(i).SetString(string(data), 0); !ok {
		return fmt.Errorf("invalid BigInt: %q", data)
	}
	return nil
}

func (i *BigInt) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal((*big.Int)(i))
}

func (i *BigInt) UnmarshalCBOR(data []byte) error {
	bi := new(big.Int)
	if err := cbor.Unmarshal(data, bi); err != nil {
		return err
	}
	(*big.Int)(i).Set(bi)
	return nil
}

// String returns the decimal representation of the number.
func (i *BigInt) String() string {
	return (*big.Int)(i).String()
}

// MathBigInt converts i to a *math/big.Int.
func (i *BigInt) MathBigInt() *big.Int {
	return (*big.Int)(i)
}

// Bytes returns the absolute value of i as a big-endian byte slice.
func (i *BigInt) Bytes() []byte {
	return (*big.Int)(i).Bytes()
}

// SetBytes interprets buf as a big-endian unsigned integer and sets i to it.
func (i *BigInt) SetBytes(buf []byte) *BigInt {
	(*big.Int)(i).SetBytes(buf)
	return i
}

// Uint64 returns the uint64 representation of i.
func (i *BigInt) Uint64() uint64 {
	return (*big.Int)(i).Uint64()
}

// Equal reports whether i and j hold the same value.
func (i *BigInt) Equal(j *BigInt) bool {
	return (*big.Int)(i).Cmp((*big.Int)(j)) == 0
}
