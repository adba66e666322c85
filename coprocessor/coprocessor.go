// Package coprocessor implements the encrypted value capability consumed by
// the ballot box: it stores ElGamal ciphertexts behind opaque handles, keeps
// an access control list per handle, admits client ciphertexts after checking
// their proofs, adds ciphertexts homomorphically and re-encrypts values for
// principals allowed to read them.
//
// Every admitted or derived ciphertext gets a fresh handle with an empty ACL.
// Access is never inherited through a homomorphic operation.
package coprocessor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/vocdoni/blindtest/crypto/elgamal"
	"github.com/vocdoni/blindtest/log"
	"github.com/vocdoni/blindtest/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// HandleSize is the size in bytes of a ciphertext handle.
const HandleSize = 32

var (
	// Keys and prefixes under the coprocessor namespace.
	networkKeyKey    = []byte("k")
	sequenceKey      = []byte("n")
	ciphertextPrefix = []byte("c/")
	aclPrefix        = []byte("a/")
)

var (
	// ErrNotFound is returned when a handle does not exist.
	ErrNotFound = errors.New("ciphertext not found")
	// ErrNotAllowed is returned when a principal has no capability on a handle.
	ErrNotAllowed = errors.New("principal not allowed on ciphertext")
	// ErrInvalidProof is returned when an input proof does not verify.
	ErrInvalidProof = errors.New("invalid input proof")
	// ErrInvalidCiphertext is returned when an input cannot be decoded as a
	// valid ciphertext.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)

// Kind is the declared type of an encrypted value.
type Kind uint8

const (
	// KindUint is an encrypted unsigned integer.
	KindUint Kind = iota + 1
	// KindBool is an encrypted boolean, 0 or 1.
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindUint:
		return "uint"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindUint || k == KindBool
}

// Input is a client produced ciphertext submitted for admission.
type Input struct {
	Kind       Kind           `json:"kind"`
	Ciphertext types.HexBytes `json:"ciphertext"`
}

// record is the stored form of a ciphertext.
type record struct {
	Kind       Kind   `cbor:"0,keyasint,omitempty"`
	Ciphertext []byte `cbor:"1,keyasint,omitempty"`
}

type networkKey struct {
	PrivateKey *types.BigInt `cbor:"0,keyasint,omitempty"`
}

// Coprocessor holds the network ElGamal key pair and reads the committed
// ciphertexts and ACL. Writes are done through an Executor bound to a write
// transaction of the shared database.
type Coprocessor struct {
	db         db.Database
	prefix     []byte
	publicKey  *babyjub.Point
	privateKey *big.Int
}

// New opens the coprocessor stored under prefix in database, generating and
// persisting the network key pair on first use.
func New(database db.Database, prefix []byte) (*Coprocessor, error) {
	pdb := prefixeddb.NewPrefixedDatabase(database, prefix)
	cp := &Coprocessor{db: pdb, prefix: prefix}

	nk := &networkKey{}
	data, err := pdb.Get(networkKeyKey)
	switch {
	case err == nil:
		if err := decodeArtifact(data, nk); err != nil {
			return nil, fmt.Errorf("decode network key: %w", err)
		}
		if nk.PrivateKey == nil {
			return nil, fmt.Errorf("stored network key is empty")
		}
		cp.privateKey = nk.PrivateKey.MathBigInt()
		cp.publicKey = elgamal.PublicKey(cp.privateKey)
	case errors.Is(err, db.ErrKeyNotFound):
		cp.publicKey, cp.privateKey, err = elgamal.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("generate network key: %w", err)
		}
		nk.PrivateKey = (*types.BigInt)(cp.privateKey)
		if data, err = encodeArtifact(nk); err != nil {
			return nil, fmt.Errorf("encode network key: %w", err)
		}
		wTx := pdb.WriteTx()
		defer wTx.Discard()
		if err := wTx.Set(networkKeyKey, data); err != nil {
			return nil, err
		}
		if err := wTx.Commit(); err != nil {
			return nil, fmt.Errorf("store network key: %w", err)
		}
		log.Infow("generated coprocessor network key", "publicKey", PublicKeyHex(cp.publicKey))
	default:
		return nil, fmt.Errorf("read network key: %w", err)
	}
	return cp, nil
}

// PublicKey returns the network public key clients encrypt their inputs to.
func (cp *Coprocessor) PublicKey() *babyjub.Point {
	return cp.publicKey
}

// PublicKeyHex returns the compressed encoding of a public key as hex.
func PublicKeyHex(pub *babyjub.Point) string {
	c := pub.Compress()
	return types.HexBytes(c[:]).String()
}

// ParsePublicKey decodes a compressed public key.
func ParsePublicKey(data []byte) (*babyjub.Point, error) {
	if len(data) != 32 {
		return nil, fmt.Errorf("invalid public key length %d", len(data))
	}
	var buf [32]byte
	copy(buf[:], data)
	p, err := babyjub.NewPoint().Decompress(buf)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	return p, nil
}

// IsAllowed reports whether principal holds the capability on handle.
func (cp *Coprocessor) IsAllowed(handle types.HexBytes, principal common.Address) bool {
	_, err := cp.db.Get(aclKey(handle, principal))
	return err == nil
}

// Ciphertext returns the committed ciphertext behind handle and its kind.
func (cp *Coprocessor) Ciphertext(handle types.HexBytes) (*elgamal.Ciphertext, Kind, error) {
	return readCiphertext(cp.db, handle)
}

// Reencrypt returns the value behind handle encrypted under userPubKey,
// provided caller holds the capability on it. Only the owner of the matching
// private key can decrypt the result.
func (cp *Coprocessor) Reencrypt(handle types.HexBytes, caller common.Address, userPubKey *babyjub.Point) (*elgamal.Ciphertext, Kind, error) {
	if userPubKey == nil || !userPubKey.InCurve() {
		return nil, 0, fmt.Errorf("invalid user public key")
	}
	ct, kind, err := cp.Ciphertext(handle)
	if err != nil {
		return nil, 0, err
	}
	if !cp.IsAllowed(handle, caller) {
		return nil, 0, ErrNotAllowed
	}
	re, err := elgamal.Reencrypt(cp.privateKey, ct, userPubKey, nil)
	if err != nil {
		return nil, 0, err
	}
	return re, kind, nil
}

// getter is the read access needed to load a ciphertext.
type getter interface {
	Get(key []byte) ([]byte, error)
}

func readCiphertext(r getter, handle types.HexBytes) (*elgamal.Ciphertext, Kind, error) {
	data, err := r.Get(ciphertextKey(handle))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}
	rec := &record{}
	if err := decodeArtifact(data, rec); err != nil {
		return nil, 0, fmt.Errorf("decode ciphertext record: %w", err)
	}
	ct := elgamal.NewCiphertext()
	if err := ct.Deserialize(rec.Ciphertext); err != nil {
		return nil, 0, err
	}
	return ct, rec.Kind, nil
}

func ciphertextKey(handle []byte) []byte {
	return append(append([]byte{}, ciphertextPrefix...), handle...)
}

func aclKey(handle []byte, principal common.Address) []byte {
	k := append(append([]byte{}, aclPrefix...), handle...)
	return append(k, principal.Bytes()...)
}

// newHandle derives the handle of a new ciphertext from its kind, its
// serialization and a sequence number unique to the coprocessor.
func newHandle(kind Kind, ct *elgamal.Ciphertext, seq uint64) types.HexBytes {
	return ethcrypto.Keccak256([]byte{byte(kind)}, ct.Serialize(), binary.BigEndian.AppendUint64(nil, seq))
}
