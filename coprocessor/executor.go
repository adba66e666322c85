package coprocessor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/blindtest/crypto/elgamal"
	"github.com/vocdoni/blindtest/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// Executor performs coprocessor writes inside a write transaction owned by
// the caller, so they commit or abort together with the caller state. It keeps
// an overlay of its own writes so handles created in the transaction can be
// used before it commits. An Executor must not be shared between goroutines.
type Executor struct {
	cp      *Coprocessor
	wTx     db.WriteTx
	overlay map[string][]byte
	seq     *uint64
}

// Executor returns an executor writing into wTx. The caller is responsible for
// committing or discarding the transaction.
func (cp *Coprocessor) Executor(wTx db.WriteTx) *Executor {
	return &Executor{
		cp:      cp,
		wTx:     prefixeddb.NewPrefixedWriteTx(wTx, cp.prefix),
		overlay: make(map[string][]byte),
	}
}

func (e *Executor) get(key []byte) ([]byte, error) {
	if v, ok := e.overlay[string(key)]; ok {
		return v, nil
	}
	return e.cp.db.Get(key)
}

func (e *Executor) set(key, value []byte) error {
	if err := e.wTx.Set(key, value); err != nil {
		return err
	}
	e.overlay[string(key)] = value
	return nil
}

func (e *Executor) nextSeq() (uint64, error) {
	if e.seq == nil {
		var n uint64
		data, err := e.cp.db.Get(sequenceKey)
		switch {
		case err == nil:
			n = binary.BigEndian.Uint64(data)
		case !errors.Is(err, db.ErrKeyNotFound):
			return 0, fmt.Errorf("read sequence: %w", err)
		}
		e.seq = &n
	}
	*e.seq++
	if err := e.set(sequenceKey, binary.BigEndian.AppendUint64(nil, *e.seq)); err != nil {
		return 0, fmt.Errorf("write sequence: %w", err)
	}
	return *e.seq, nil
}

// Ciphertext returns the ciphertext behind handle, including the ones created
// in this transaction.
func (e *Executor) Ciphertext(handle types.HexBytes) (*elgamal.Ciphertext, Kind, error) {
	return readCiphertext(readerFunc(e.get), handle)
}

// IsAllowed reports whether principal holds the capability on handle,
// including grants done in this transaction.
func (e *Executor) IsAllowed(handle types.HexBytes, principal common.Address) bool {
	_, err := e.get(aclKey(handle, principal))
	return err == nil
}

func (e *Executor) store(kind Kind, ct *elgamal.Ciphertext) (types.HexBytes, error) {
	seq, err := e.nextSeq()
	if err != nil {
		return nil, err
	}
	handle := newHandle(kind, ct, seq)
	data, err := encodeArtifact(&record{Kind: kind, Ciphertext: ct.Serialize()})
	if err != nil {
		return nil, err
	}
	if err := e.set(ciphertextKey(handle), data); err != nil {
		return nil, fmt.Errorf("store ciphertext: %w", err)
	}
	return handle, nil
}

// Admit validates client produced ciphertexts and stores them, returning one
// handle per input in the same order. proof is the CBOR encoding of one
// elgamal.Proof per input and one elgamal.BitProof per bool input, all bound
// to submitter. Nothing is stored unless every input is valid. Admitted
// handles carry no capability; the caller grants them explicitly.
func (e *Executor) Admit(inputs []Input, proof []byte, submitter common.Address) ([]types.HexBytes, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no inputs", ErrInvalidCiphertext)
	}
	var proofs admissionProof
	if err := decodeArtifact(proof, &proofs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if len(proofs.Randomness) != len(inputs) {
		return nil, fmt.Errorf("%w: %d proofs for %d inputs", ErrInvalidProof, len(proofs.Randomness), len(inputs))
	}
	bits := 0
	for _, in := range inputs {
		if in.Kind == KindBool {
			bits++
		}
	}
	if len(proofs.Bits) != bits {
		return nil, fmt.Errorf("%w: %d bit proofs for %d bool inputs", ErrInvalidProof, len(proofs.Bits), bits)
	}
	binding := new(big.Int).SetBytes(submitter.Bytes())
	cts := make([]*elgamal.Ciphertext, len(inputs))
	bit := 0
	for i, in := range inputs {
		if !in.Kind.Valid() {
			return nil, fmt.Errorf("%w: input %d has kind %s", ErrInvalidCiphertext, i, in.Kind)
		}
		ct := elgamal.NewCiphertext()
		if err := ct.Deserialize(in.Ciphertext); err != nil {
			return nil, fmt.Errorf("%w: input %d: %v", ErrInvalidCiphertext, i, err)
		}
		if !ct.Valid() {
			return nil, fmt.Errorf("%w: input %d is not on the curve subgroup", ErrInvalidCiphertext, i)
		}
		if !proofs.Randomness[i].Verify(ct, binding) {
			return nil, fmt.Errorf("%w: input %d", ErrInvalidProof, i)
		}
		if in.Kind == KindBool {
			if !proofs.Bits[bit].Verify(ct, e.cp.publicKey, binding) {
				return nil, fmt.Errorf("%w: input %d is not 0 or 1", ErrInvalidProof, i)
			}
			bit++
		}
		cts[i] = ct
	}
	handles := make([]types.HexBytes, len(inputs))
	for i, ct := range cts {
		h, err := e.store(inputs[i].Kind, ct)
		if err != nil {
			return nil, err
		}
		handles[i] = h
	}
	return handles, nil
}

// Add stores the homomorphic sum of the values behind a and b under a new
// handle. caller must be allowed on both operands. The result is always an
// unsigned integer and carries no capability.
func (e *Executor) Add(a, b types.HexBytes, caller common.Address) (types.HexBytes, error) {
	x, _, err := e.Ciphertext(a)
	if err != nil {
		return nil, fmt.Errorf("operand %s: %w", a, err)
	}
	y, _, err := e.Ciphertext(b)
	if err != nil {
		return nil, fmt.Errorf("operand %s: %w", b, err)
	}
	if !e.IsAllowed(a, caller) || !e.IsAllowed(b, caller) {
		return nil, ErrNotAllowed
	}
	return e.store(KindUint, elgamal.NewCiphertext().Add(x, y))
}

// Rerandomize stores the value behind h under a new handle with fresh
// randomness, so the result cannot be linked to h. caller must be allowed on
// h. The result keeps the kind of h and carries no capability.
func (e *Executor) Rerandomize(h types.HexBytes, caller common.Address) (types.HexBytes, error) {
	ct, kind, err := e.Ciphertext(h)
	if err != nil {
		return nil, fmt.Errorf("operand %s: %w", h, err)
	}
	if !e.IsAllowed(h, caller) {
		return nil, ErrNotAllowed
	}
	k, err := elgamal.RandK()
	if err != nil {
		return nil, err
	}
	zero, err := elgamal.NewCiphertext().Encrypt(big.NewInt(0), e.cp.publicKey, k)
	if err != nil {
		return nil, err
	}
	return e.store(kind, elgamal.NewCiphertext().Add(ct, zero))
}

// Allow grants principal the capability to use and decrypt handle.
func (e *Executor) Allow(handle types.HexBytes, principal common.Address) error {
	if _, err := e.get(ciphertextKey(handle)); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := e.set(aclKey(handle, principal), []byte{1}); err != nil {
		return fmt.Errorf("store capability: %w", err)
	}
	return nil
}

// readerFunc adapts a get function to a getter.
type readerFunc func(key []byte) ([]byte, error)

func (f readerFunc) Get(key []byte) ([]byte, error) {
	return f(key)
}
