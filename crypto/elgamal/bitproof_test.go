package elgamal

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/fxamacker/cbor/v2"
)

func TestBitProof(t *testing.T) {
	c := qt.New(t)

	publicKey, _, err := GenerateKey()
	c.Assert(err, qt.IsNil)
	binding := big.NewInt(0xb17)

	for _, bit := range []uint64{0, 1} {
		k, err := RandK()
		c.Assert(err, qt.IsNil)
		ct, err := NewCiphertext().Encrypt(new(big.Int).SetUint64(bit), publicKey, k)
		c.Assert(err, qt.IsNil)
		proof, err := ProveBit(ct, bit, k, publicKey, binding)
		c.Assert(err, qt.IsNil)
		c.Assert(proof.Verify(ct, publicKey, binding), qt.IsTrue, qt.Commentf("bit %d", bit))

		c.Assert(proof.Verify(ct, publicKey, big.NewInt(0xbad)), qt.IsFalse)
		otherKey, _, err := GenerateKey()
		c.Assert(err, qt.IsNil)
		c.Assert(proof.Verify(ct, otherKey, binding), qt.IsFalse)

		data, err := cbor.Marshal(proof)
		c.Assert(err, qt.IsNil)
		decoded := &BitProof{}
		c.Assert(cbor.Unmarshal(data, decoded), qt.IsNil)
		c.Assert(decoded.Verify(ct, publicKey, binding), qt.IsTrue)
	}

	c.Run("value out of range", func(c *qt.C) {
		k, err := RandK()
		c.Assert(err, qt.IsNil)
		ct, err := NewCiphertext().Encrypt(big.NewInt(2), publicKey, k)
		c.Assert(err, qt.IsNil)
		_, err = ProveBit(ct, 2, k, publicKey, binding)
		c.Assert(err, qt.ErrorMatches, "cannot prove 2 is a bit")
		// claiming either bit does not produce a valid proof
		for _, bit := range []uint64{0, 1} {
			forged, err := ProveBit(ct, bit, k, publicKey, binding)
			c.Assert(err, qt.IsNil)
			c.Assert(forged.Verify(ct, publicKey, binding), qt.IsFalse)
		}
	})

	c.Run("wrong bit", func(c *qt.C) {
		k, err := RandK()
		c.Assert(err, qt.IsNil)
		ct, err := NewCiphertext().Encrypt(big.NewInt(1), publicKey, k)
		c.Assert(err, qt.IsNil)
		forged, err := ProveBit(ct, 0, k, publicKey, binding)
		c.Assert(err, qt.IsNil)
		c.Assert(forged.Verify(ct, publicKey, binding), qt.IsFalse)
	})

	c.Run("malformed", func(c *qt.C) {
		c.Assert((*BitProof)(nil).Verify(NewCiphertext(), publicKey, binding), qt.IsFalse)
		c.Assert((&BitProof{}).Verify(NewCiphertext(), publicKey, binding), qt.IsFalse)
		err := (&BitProof{}).Deserialize(make([]byte, 10))
		c.Assert(err, qt.ErrorMatches, "invalid bit proof length.*")
	})
}
