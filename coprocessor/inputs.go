package coprocessor

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/vocdoni/blindtest/crypto/elgamal"
)

// admissionProof is the proof accepted by Executor.Admit: one proof of
// randomness per input and one bit proof per bool input, both in input order.
type admissionProof struct {
	Randomness []*elgamal.Proof    `cbor:"0,keyasint"`
	Bits       []*elgamal.BitProof `cbor:"1,keyasint,omitempty"`
}

// InputBuilder encrypts client values to the network key and collects the
// proofs needed to admit them on behalf of submitter.
type InputBuilder struct {
	publicKey *babyjub.Point
	binding   *big.Int
	inputs    []Input
	proof     admissionProof
}

// NewInputBuilder returns a builder for inputs submitted by submitter.
func NewInputBuilder(networkKey *babyjub.Point, submitter common.Address) *InputBuilder {
	return &InputBuilder{
		publicKey: networkKey,
		binding:   new(big.Int).SetBytes(submitter.Bytes()),
	}
}

// Add encrypts value with the given kind and appends it to the inputs.
func (b *InputBuilder) Add(kind Kind, value uint64) error {
	if kind == KindBool && value > 1 {
		return fmt.Errorf("bool input must be 0 or 1, got %d", value)
	}
	k, err := elgamal.RandK()
	if err != nil {
		return err
	}
	ct, err := elgamal.NewCiphertext().Encrypt(new(big.Int).SetUint64(value), b.publicKey, k)
	if err != nil {
		return err
	}
	proof, err := elgamal.ProveRandomness(ct, k, b.binding)
	if err != nil {
		return err
	}
	if kind == KindBool {
		bit, err := elgamal.ProveBit(ct, value, k, b.publicKey, b.binding)
		if err != nil {
			return err
		}
		b.proof.Bits = append(b.proof.Bits, bit)
	}
	b.inputs = append(b.inputs, Input{Kind: kind, Ciphertext: ct.Serialize()})
	b.proof.Randomness = append(b.proof.Randomness, proof)
	return nil
}

// AddUint encrypts an unsigned integer.
func (b *InputBuilder) AddUint(value uint64) error {
	return b.Add(KindUint, value)
}

// AddBool encrypts a boolean.
func (b *InputBuilder) AddBool(value bool) error {
	if value {
		return b.Add(KindBool, 1)
	}
	return b.Add(KindBool, 0)
}

// Build returns the inputs and the encoded proof accepted by Executor.Admit.
func (b *InputBuilder) Build() ([]Input, []byte, error) {
	proof, err := encodeArtifact(&b.proof)
	if err != nil {
		return nil, nil, fmt.Errorf("encode proofs: %w", err)
	}
	return b.inputs, proof, nil
}
