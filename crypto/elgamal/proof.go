package elgamal

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/iden3/go-iden3-crypto/poseidon"
)

// SizeProof is the size in bytes of a serialized Proof.
const SizeProof = sizePoint + 32

// Proof is a Schnorr proof of knowledge of the randomness k used to produce a
// ciphertext (C1 = k*G). The Fiat-Shamir challenge binds the proof to the
// ciphertext and to an arbitrary binding value, typically the submitter
// address, so a ciphertext cannot be resubmitted by someone else.
type Proof struct {
	R *babyjub.Point
	S *big.Int
}

// ProveRandomness builds a Proof that the caller knows the k used to encrypt ct.
func ProveRandomness(ct *Ciphertext, k, binding *big.Int) (*Proof, error) {
	r, err := RandK()
	if err != nil {
		return nil, fmt.Errorf("failed to generate proof nonce: %w", err)
	}
	R := babyjub.NewPoint().Mul(r, babyjub.B8)
	e, err := challenge(ct, R, binding)
	if err != nil {
		return nil, err
	}
	// s = r + e*k mod n
	s := new(big.Int).Mul(e, k)
	s.Add(s, r)
	s.Mod(s, babyjub.SubOrder)
	return &Proof{R: R, S: s}, nil
}

// Verify checks the proof against the ciphertext and the binding value.
func (p *Proof) Verify(ct *Ciphertext, binding *big.Int) bool {
	if p == nil || p.R == nil || p.S == nil || !ct.Valid() {
		return false
	}
	if !p.R.InCurve() || p.S.Cmp(babyjub.SubOrder) >= 0 {
		return false
	}
	e, err := challenge(ct, p.R, binding)
	if err != nil {
		return false
	}
	// s*G == R + e*C1
	lhs := babyjub.NewPoint().Mul(p.S, babyjub.B8)
	rhs := add(p.R, babyjub.NewPoint().Mul(e, ct.C1))
	return lhs.Compress() == rhs.Compress()
}

func challenge(ct *Ciphertext, R *babyjub.Point, binding *big.Int) (*big.Int, error) {
	h, err := poseidon.Hash([]*big.Int{
		ct.C1.X, ct.C1.Y,
		ct.C2.X, ct.C2.Y,
		R.X, R.Y,
		binding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute proof challenge: %w", err)
	}
	return h.Mod(h, babyjub.SubOrder), nil
}

// Serialize returns the compressed R point followed by S as 32 big-endian bytes.
func (p *Proof) Serialize() []byte {
	r := p.R.Compress()
	buf := make([]byte, 0, SizeProof)
	buf = append(buf, r[:]...)
	return append(buf, p.S.FillBytes(make([]byte, 32))...)
}

// Deserialize reconstructs a Proof from the output of Serialize.
func (p *Proof) Deserialize(data []byte) error {
	if len(data) != SizeProof {
		return fmt.Errorf("invalid proof length: got %d bytes, expected %d bytes", len(data), SizeProof)
	}
	var rb [sizePoint]byte
	copy(rb[:], data[:sizePoint])
	R, err := babyjub.NewPoint().Decompress(rb)
	if err != nil {
		return fmt.Errorf("invalid proof point: %w", err)
	}
	p.R = R
	p.S = new(big.Int).SetBytes(data[sizePoint:])
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler, also used by CBOR.
func (p *Proof) MarshalBinary() ([]byte, error) {
	return p.Serialize(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler, also used by CBOR.
func (p *Proof) UnmarshalBinary(data []byte) error {
	return p.Deserialize(data)
}
