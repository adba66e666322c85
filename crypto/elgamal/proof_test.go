package elgamal

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/fxamacker/cbor/v2"
)

func TestProofOfRandomness(t *testing.T) {
	c := qt.New(t)

	publicKey, _, err := GenerateKey()
	c.Assert(err, qt.IsNil)
	k, err := RandK()
	c.Assert(err, qt.IsNil)
	ct, err := NewCiphertext().Encrypt(big.NewInt(4), publicKey, k)
	c.Assert(err, qt.IsNil)

	binding := big.NewInt(0xdead)
	proof, err := ProveRandomness(ct, k, binding)
	c.Assert(err, qt.IsNil)
	c.Assert(proof.Verify(ct, binding), qt.IsTrue)

	c.Run("wrong binding", func(c *qt.C) {
		c.Assert(proof.Verify(ct, big.NewInt(0xbeef)), qt.IsFalse)
	})

	c.Run("wrong ciphertext", func(c *qt.C) {
		other, err := NewCiphertext().Encrypt(big.NewInt(4), publicKey, nil)
		c.Assert(err, qt.IsNil)
		c.Assert(proof.Verify(other, binding), qt.IsFalse)
	})

	c.Run("wrong randomness", func(c *qt.C) {
		bad, err := ProveRandomness(ct, new(big.Int).Add(k, big.NewInt(1)), binding)
		c.Assert(err, qt.IsNil)
		c.Assert(bad.Verify(ct, binding), qt.IsFalse)
	})

	c.Run("nil proof", func(c *qt.C) {
		c.Assert((*Proof)(nil).Verify(ct, binding), qt.IsFalse)
	})

	c.Run("serialization", func(c *qt.C) {
		data, err := cbor.Marshal(proof)
		c.Assert(err, qt.IsNil)
		decoded := &Proof{}
		c.Assert(cbor.Unmarshal(data, decoded), qt.IsNil)
		c.Assert(decoded.Verify(ct, binding), qt.IsTrue)

		err = decoded.Deserialize(make([]byte, 10))
		c.Assert(err, qt.ErrorMatches, "invalid proof length.*")
	})
}
