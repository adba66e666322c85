package elgamal

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/iden3/go-iden3-crypto/poseidon"
)

// SizeBitProof is the size in bytes of a serialized BitProof.
const SizeBitProof = 4*sizePoint + 4*32

// BitProof is a disjunctive Chaum-Pedersen proof that a ciphertext encrypts 0
// or 1 under a public key P, without revealing which. Branch b shows that
// (C1, C2 - b*G) equals (k*G, k*P) for some k. Only the branch of the real
// value is proven; the other one is simulated, and the challenges of both
// must add up to the Fiat-Shamir challenge, bound like Proof to a binding
// value.
type BitProof struct {
	A [2]*babyjub.Point
	B [2]*babyjub.Point
	C [2]*big.Int
	S [2]*big.Int
}

// ProveBit builds a BitProof for ct, the encryption of bit under publicKey
// with randomness k.
func ProveBit(ct *Ciphertext, bit uint64, k *big.Int, publicKey *babyjub.Point, binding *big.Int) (*BitProof, error) {
	if bit > 1 {
		return nil, fmt.Errorf("cannot prove %d is a bit", bit)
	}
	known, sim := int(bit), int(1-bit)
	p := &BitProof{}

	var err error
	if p.C[sim], err = RandK(); err != nil {
		return nil, err
	}
	if p.S[sim], err = RandK(); err != nil {
		return nil, err
	}
	negC := new(big.Int).Sub(babyjub.SubOrder, p.C[sim])
	p.A[sim] = add(mul(p.S[sim], babyjub.B8), mul(negC, ct.C1))
	p.B[sim] = add(mul(p.S[sim], publicKey), mul(negC, bitTarget(ct, sim)))

	w, err := RandK()
	if err != nil {
		return nil, err
	}
	p.A[known] = mul(w, babyjub.B8)
	p.B[known] = mul(w, publicKey)

	c, err := bitChallenge(ct, publicKey, p, binding)
	if err != nil {
		return nil, err
	}
	// c_known = c - c_sim, s_known = w + c_known*k mod n
	p.C[known] = new(big.Int).Sub(c, p.C[sim])
	p.C[known].Mod(p.C[known], babyjub.SubOrder)
	p.S[known] = new(big.Int).Mul(p.C[known], k)
	p.S[known].Add(p.S[known], w)
	p.S[known].Mod(p.S[known], babyjub.SubOrder)
	return p, nil
}

// Verify checks that ct encrypts 0 or 1 under publicKey.
func (p *BitProof) Verify(ct *Ciphertext, publicKey *babyjub.Point, binding *big.Int) bool {
	if p == nil || !ct.Valid() || publicKey == nil || !publicKey.InCurve() {
		return false
	}
	for b := range 2 {
		if p.A[b] == nil || p.B[b] == nil || p.C[b] == nil || p.S[b] == nil {
			return false
		}
		if !p.A[b].InCurve() || !p.B[b].InCurve() {
			return false
		}
		if p.C[b].Sign() < 0 || p.C[b].Cmp(babyjub.SubOrder) >= 0 ||
			p.S[b].Sign() < 0 || p.S[b].Cmp(babyjub.SubOrder) >= 0 {
			return false
		}
	}
	c, err := bitChallenge(ct, publicKey, p, binding)
	if err != nil {
		return false
	}
	sum := new(big.Int).Add(p.C[0], p.C[1])
	if sum.Mod(sum, babyjub.SubOrder).Cmp(c) != 0 {
		return false
	}
	for b := range 2 {
		// s*G == A + c*C1 and s*P == B + c*(C2 - b*G)
		if mul(p.S[b], babyjub.B8).Compress() != add(p.A[b], mul(p.C[b], ct.C1)).Compress() {
			return false
		}
		if mul(p.S[b], publicKey).Compress() != add(p.B[b], mul(p.C[b], bitTarget(ct, b))).Compress() {
			return false
		}
	}
	return true
}

// bitTarget returns C2 - b*G.
func bitTarget(ct *Ciphertext, b int) *babyjub.Point {
	if b == 0 {
		return ct.C2
	}
	return add(ct.C2, neg(babyjub.B8))
}

func mul(s *big.Int, p *babyjub.Point) *babyjub.Point {
	return babyjub.NewPoint().Mul(s, p)
}

func bitChallenge(ct *Ciphertext, publicKey *babyjub.Point, p *BitProof, binding *big.Int) (*big.Int, error) {
	h, err := poseidon.Hash([]*big.Int{
		publicKey.X, publicKey.Y,
		ct.C1.X, ct.C1.Y,
		ct.C2.X, ct.C2.Y,
		p.A[0].X, p.A[0].Y, p.B[0].X, p.B[0].Y,
		p.A[1].X, p.A[1].Y, p.B[1].X, p.B[1].Y,
		binding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute bit proof challenge: %w", err)
	}
	return h.Mod(h, babyjub.SubOrder), nil
}

// Serialize returns the compressed A0, B0, A1, B1 points followed by C0, C1,
// S0, S1 as 32 big-endian bytes each.
func (p *BitProof) Serialize() []byte {
	buf := make([]byte, 0, SizeBitProof)
	for b := range 2 {
		a, bb := p.A[b].Compress(), p.B[b].Compress()
		buf = append(buf, a[:]...)
		buf = append(buf, bb[:]...)
	}
	for _, s := range []*big.Int{p.C[0], p.C[1], p.S[0], p.S[1]} {
		buf = append(buf, s.FillBytes(make([]byte, 32))...)
	}
	return buf
}

// Deserialize reconstructs a BitProof from the output of Serialize.
func (p *BitProof) Deserialize(data []byte) error {
	if len(data) != SizeBitProof {
		return fmt.Errorf("invalid bit proof length: got %d bytes, expected %d bytes", len(data), SizeBitProof)
	}
	points := make([]*babyjub.Point, 4)
	for i := range points {
		var pb [sizePoint]byte
		copy(pb[:], data[i*sizePoint:(i+1)*sizePoint])
		pt, err := babyjub.NewPoint().Decompress(pb)
		if err != nil {
			return fmt.Errorf("invalid bit proof point %d: %w", i, err)
		}
		points[i] = pt
	}
	p.A = [2]*babyjub.Point{points[0], points[2]}
	p.B = [2]*babyjub.Point{points[1], points[3]}
	scalars := data[4*sizePoint:]
	p.C = [2]*big.Int{new(big.Int).SetBytes(scalars[:32]), new(big.Int).SetBytes(scalars[32:64])}
	p.S = [2]*big.Int{new(big.Int).SetBytes(scalars[64:96]), new(big.Int).SetBytes(scalars[96:])}
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler, also used by CBOR.
func (p *BitProof) MarshalBinary() ([]byte, error) {
	return p.Serialize(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler, also used by CBOR.
func (p *BitProof) UnmarshalBinary(data []byte) error {
	return p.Deserialize(data)
}
