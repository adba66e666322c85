package elgamal

import (
	"encoding/json"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/fxamacker/cbor/v2"
	"github.com/iden3/go-iden3-crypto/babyjub"
)

func TestNewCiphertext(t *testing.T) {
	c := qt.New(t)

	cipher := NewCiphertext()
	c.Assert(cipher, qt.Not(qt.IsNil))
	c.Assert(cipher.Valid(), qt.IsTrue)

	// the zero ciphertext decrypts to zero under any key
	_, privateKey, err := GenerateKey()
	c.Assert(err, qt.IsNil)
	msg, err := Decrypt(privateKey, cipher, 10)
	c.Assert(err, qt.IsNil)
	c.Assert(msg.Int64(), qt.Equals, int64(0))
}

func TestCiphertextEncrypt(t *testing.T) {
	c := qt.New(t)

	publicKey, privateKey, err := GenerateKey()
	c.Assert(err, qt.IsNil)

	encrypted, err := NewCiphertext().Encrypt(big.NewInt(42), publicKey, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(encrypted.Valid(), qt.IsTrue)

	msg, err := Decrypt(privateKey, encrypted, 100)
	c.Assert(err, qt.IsNil)
	c.Assert(msg.Int64(), qt.Equals, int64(42))

	// same k yields the same ciphertext
	k := big.NewInt(12345)
	a, err := NewCiphertext().Encrypt(big.NewInt(7), publicKey, k)
	c.Assert(err, qt.IsNil)
	b, err := NewCiphertext().Encrypt(big.NewInt(7), publicKey, k)
	c.Assert(err, qt.IsNil)
	c.Assert(a.Equal(b), qt.IsTrue)
}

func TestCiphertextAdd(t *testing.T) {
	c := qt.New(t)

	publicKey, privateKey, err := GenerateKey()
	c.Assert(err, qt.IsNil)

	values := []int64{5, 3, 0, 4, 2}
	sum := NewCiphertext()
	for _, v := range values {
		ct, err := NewCiphertext().Encrypt(big.NewInt(v), publicKey, nil)
		c.Assert(err, qt.IsNil)
		sum = NewCiphertext().Add(sum, ct)
	}
	msg, err := Decrypt(privateKey, sum, 100)
	c.Assert(err, qt.IsNil)
	c.Assert(msg.Int64(), qt.Equals, int64(14))
}

func TestCiphertextAddCommutative(t *testing.T) {
	c := qt.New(t)

	publicKey, _, err := GenerateKey()
	c.Assert(err, qt.IsNil)

	x, err := NewCiphertext().Encrypt(big.NewInt(3), publicKey, nil)
	c.Assert(err, qt.IsNil)
	y, err := NewCiphertext().Encrypt(big.NewInt(9), publicKey, nil)
	c.Assert(err, qt.IsNil)

	xy := NewCiphertext().Add(x, y)
	yx := NewCiphertext().Add(y, x)
	c.Assert(xy.Equal(yx), qt.IsTrue)
}

func TestCiphertextSerialization(t *testing.T) {
	c := qt.New(t)

	publicKey, _, err := GenerateKey()
	c.Assert(err, qt.IsNil)
	original, err := NewCiphertext().Encrypt(big.NewInt(11), publicKey, nil)
	c.Assert(err, qt.IsNil)

	c.Run("binary", func(c *qt.C) {
		data := original.Serialize()
		c.Assert(data, qt.HasLen, SizeCiphertext)
		decoded := NewCiphertext()
		c.Assert(decoded.Deserialize(data), qt.IsNil)
		c.Assert(decoded.Equal(original), qt.IsTrue)
	})

	c.Run("invalid length", func(c *qt.C) {
		err := NewCiphertext().Deserialize(make([]byte, SizeCiphertext-1))
		c.Assert(err, qt.ErrorMatches, "invalid input length.*")
	})

	c.Run("json", func(c *qt.C) {
		data, err := json.Marshal(original)
		c.Assert(err, qt.IsNil)
		decoded := NewCiphertext()
		c.Assert(json.Unmarshal(data, decoded), qt.IsNil)
		c.Assert(decoded.Equal(original), qt.IsTrue)
	})

	c.Run("cbor", func(c *qt.C) {
		data, err := cbor.Marshal(original)
		c.Assert(err, qt.IsNil)
		decoded := NewCiphertext()
		c.Assert(cbor.Unmarshal(data, decoded), qt.IsNil)
		c.Assert(decoded.Equal(original), qt.IsTrue)
	})
}

func TestCiphertextValid(t *testing.T) {
	c := qt.New(t)

	c.Assert((*Ciphertext)(nil).Valid(), qt.IsFalse)
	c.Assert((&Ciphertext{C1: babyjub.NewPoint()}).Valid(), qt.IsFalse)

	// a point off the curve
	bad := &Ciphertext{
		C1: &babyjub.Point{X: big.NewInt(1), Y: big.NewInt(2)},
		C2: babyjub.NewPoint(),
	}
	c.Assert(bad.Valid(), qt.IsFalse)
}
