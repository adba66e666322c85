package coprocessor

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/blindtest/crypto/elgamal"
	"github.com/vocdoni/blindtest/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

var (
	testPrefix = []byte("cp/")
	alice      = common.HexToAddress("0xa11ce00000000000000000000000000000000001")
	bob        = common.HexToAddress("0xb0b0000000000000000000000000000000000002")
	engine     = common.HexToAddress("0xe000000000000000000000000000000000000003")
)

func newTestCoprocessor(t *testing.T) (*Coprocessor, db.Database) {
	database := metadb.NewTest(t)
	cp, err := New(database, testPrefix)
	qt.Assert(t, err, qt.IsNil)
	return cp, database
}

// decryptAs re-encrypts handle for caller and decrypts it with a fresh key.
func decryptAs(t *testing.T, cp *Coprocessor, handle types.HexBytes, caller common.Address) (uint64, error) {
	userPub, userPriv, err := elgamal.GenerateKey()
	qt.Assert(t, err, qt.IsNil)
	ct, _, err := cp.Reencrypt(handle, caller, userPub)
	if err != nil {
		return 0, err
	}
	v, err := elgamal.Decrypt(userPriv, ct, 1000)
	qt.Assert(t, err, qt.IsNil)
	return v.Uint64(), nil
}

func admit(t *testing.T, cp *Coprocessor, database db.Database, submitter common.Address, values ...uint64) []types.HexBytes {
	b := NewInputBuilder(cp.PublicKey(), submitter)
	for _, v := range values {
		qt.Assert(t, b.AddUint(v), qt.IsNil)
	}
	inputs, proof, err := b.Build()
	qt.Assert(t, err, qt.IsNil)

	wTx := database.WriteTx()
	defer wTx.Discard()
	handles, err := cp.Executor(wTx).Admit(inputs, proof, submitter)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, wTx.Commit(), qt.IsNil)
	return handles
}

func TestNetworkKeyPersistence(t *testing.T) {
	c := qt.New(t)
	cp, database := newTestCoprocessor(t)

	reopened, err := New(database, testPrefix)
	c.Assert(err, qt.IsNil)
	c.Assert(PublicKeyHex(reopened.PublicKey()), qt.Equals, PublicKeyHex(cp.PublicKey()))

	pub, err := ParsePublicKey(types.HexStringToHexBytes(PublicKeyHex(cp.PublicKey())))
	c.Assert(err, qt.IsNil)
	c.Assert(pub.Compress(), qt.Equals, cp.PublicKey().Compress())

	other, err := New(database, []byte("other/"))
	c.Assert(err, qt.IsNil)
	c.Assert(PublicKeyHex(other.PublicKey()), qt.Not(qt.Equals), PublicKeyHex(cp.PublicKey()))
}

func TestAdmit(t *testing.T) {
	c := qt.New(t)
	cp, database := newTestCoprocessor(t)

	handles := admit(t, cp, database, alice, 3, 3)
	c.Assert(handles, qt.HasLen, 2)
	c.Assert(handles[0], qt.HasLen, HandleSize)
	// same value, different handles
	c.Assert(handles[0].Equal(handles[1]), qt.IsFalse)

	ct, kind, err := cp.Ciphertext(handles[0])
	c.Assert(err, qt.IsNil)
	c.Assert(kind, qt.Equals, KindUint)
	c.Assert(ct.Valid(), qt.IsTrue)

	// admission grants nothing
	c.Assert(cp.IsAllowed(handles[0], alice), qt.IsFalse)
	_, err = decryptAs(t, cp, handles[0], alice)
	c.Assert(err, qt.ErrorIs, ErrNotAllowed)
}

func TestAdmitRejects(t *testing.T) {
	c := qt.New(t)
	cp, database := newTestCoprocessor(t)

	b := NewInputBuilder(cp.PublicKey(), alice)
	c.Assert(b.AddUint(5), qt.IsNil)
	c.Assert(b.AddBool(true), qt.IsNil)
	inputs, proof, err := b.Build()
	c.Assert(err, qt.IsNil)

	c.Assert(b.Add(KindBool, 2), qt.ErrorMatches, "bool input must be 0 or 1.*")

	c.Run("submitter mismatch", func(c *qt.C) {
		wTx := database.WriteTx()
		defer wTx.Discard()
		_, err := cp.Executor(wTx).Admit(inputs, proof, bob)
		c.Assert(err, qt.ErrorIs, ErrInvalidProof)
	})

	c.Run("missing proof", func(c *qt.C) {
		wTx := database.WriteTx()
		defer wTx.Discard()
		_, err := cp.Executor(wTx).Admit(append(inputs, inputs[0]), proof, alice)
		c.Assert(err, qt.ErrorIs, ErrInvalidProof)
	})

	c.Run("garbage proof", func(c *qt.C) {
		wTx := database.WriteTx()
		defer wTx.Discard()
		_, err := cp.Executor(wTx).Admit(inputs, []byte{0xff, 0x00}, alice)
		c.Assert(err, qt.ErrorIs, ErrInvalidProof)
	})

	c.Run("bad ciphertext", func(c *qt.C) {
		bad := []Input{{Kind: KindUint, Ciphertext: []byte{1, 2, 3}}, inputs[1]}
		wTx := database.WriteTx()
		defer wTx.Discard()
		_, err := cp.Executor(wTx).Admit(bad, proof, alice)
		c.Assert(err, qt.ErrorIs, ErrInvalidCiphertext)
	})

	c.Run("unknown kind", func(c *qt.C) {
		bad := []Input{{Kind: 9, Ciphertext: inputs[0].Ciphertext}, inputs[1]}
		wTx := database.WriteTx()
		defer wTx.Discard()
		_, err := cp.Executor(wTx).Admit(bad, proof, alice)
		c.Assert(err, qt.ErrorIs, ErrInvalidCiphertext)
	})

	c.Run("uint relabeled as bool", func(c *qt.C) {
		relabeled := []Input{{Kind: KindBool, Ciphertext: inputs[0].Ciphertext}, inputs[1]}
		wTx := database.WriteTx()
		defer wTx.Discard()
		_, err := cp.Executor(wTx).Admit(relabeled, proof, alice)
		c.Assert(err, qt.ErrorIs, ErrInvalidProof)
	})

	c.Run("no inputs", func(c *qt.C) {
		wTx := database.WriteTx()
		defer wTx.Discard()
		_, err := cp.Executor(wTx).Admit(nil, proof, alice)
		c.Assert(err, qt.ErrorIs, ErrInvalidCiphertext)
	})
}

func TestAdmitBoolRange(t *testing.T) {
	c := qt.New(t)
	cp, database := newTestCoprocessor(t)
	binding := new(big.Int).SetBytes(alice.Bytes())

	k, err := elgamal.RandK()
	c.Assert(err, qt.IsNil)
	ct, err := elgamal.NewCiphertext().Encrypt(big.NewInt(1000), cp.PublicKey(), k)
	c.Assert(err, qt.IsNil)
	randomness, err := elgamal.ProveRandomness(ct, k, binding)
	c.Assert(err, qt.IsNil)
	forged, err := elgamal.ProveBit(ct, 1, k, cp.PublicKey(), binding)
	c.Assert(err, qt.IsNil)
	input := []Input{{Kind: KindBool, Ciphertext: ct.Serialize()}}

	admitWith := func(inputs []Input, p *admissionProof) error {
		data, err := encodeArtifact(p)
		c.Assert(err, qt.IsNil)
		wTx := database.WriteTx()
		defer wTx.Discard()
		_, err = cp.Executor(wTx).Admit(inputs, data, alice)
		return err
	}

	err = admitWith(input, &admissionProof{
		Randomness: []*elgamal.Proof{randomness},
		Bits:       []*elgamal.BitProof{forged},
	})
	c.Assert(err, qt.ErrorIs, ErrInvalidProof)
	c.Assert(err, qt.ErrorMatches, ".*input 0 is not 0 or 1")

	err = admitWith(input, &admissionProof{Randomness: []*elgamal.Proof{randomness}})
	c.Assert(err, qt.ErrorIs, ErrInvalidProof)

	// the same ciphertext is a valid unsigned input
	err = admitWith([]Input{{Kind: KindUint, Ciphertext: ct.Serialize()}},
		&admissionProof{Randomness: []*elgamal.Proof{randomness}})
	c.Assert(err, qt.IsNil)

	// honest bool inputs are admitted with their bit proofs
	b := NewInputBuilder(cp.PublicKey(), alice)
	c.Assert(b.AddBool(false), qt.IsNil)
	c.Assert(b.AddUint(7), qt.IsNil)
	c.Assert(b.AddBool(true), qt.IsNil)
	inputs, proof, err := b.Build()
	c.Assert(err, qt.IsNil)
	wTx := database.WriteTx()
	defer wTx.Discard()
	handles, err := cp.Executor(wTx).Admit(inputs, proof, alice)
	c.Assert(err, qt.IsNil)
	c.Assert(handles, qt.HasLen, 3)
}

func TestAddAndAllow(t *testing.T) {
	c := qt.New(t)
	cp, database := newTestCoprocessor(t)

	x := admit(t, cp, database, alice, 8)[0]
	y := admit(t, cp, database, bob, 6)[0]

	wTx := database.WriteTx()
	defer wTx.Discard()
	exec := cp.Executor(wTx)

	_, err := exec.Add(x, y, engine)
	c.Assert(err, qt.ErrorIs, ErrNotAllowed)

	c.Assert(exec.Allow(x, engine), qt.IsNil)
	c.Assert(exec.Allow(y, engine), qt.IsNil)
	c.Assert(exec.Allow(types.HexBytes(make([]byte, HandleSize)), engine), qt.ErrorIs, ErrNotFound)

	sum, err := exec.Add(x, y, engine)
	c.Assert(err, qt.IsNil)
	// derived handles start with an empty ACL
	c.Assert(exec.IsAllowed(sum, engine), qt.IsFalse)
	c.Assert(exec.Allow(sum, alice), qt.IsNil)
	c.Assert(exec.Allow(sum, engine), qt.IsNil)

	// the sum can be used again within the same transaction
	c.Assert(exec.Allow(x, engine), qt.IsNil)
	total, err := exec.Add(sum, x, engine)
	c.Assert(err, qt.IsNil)
	c.Assert(exec.Allow(total, alice), qt.IsNil)

	// nothing is visible before commit
	c.Assert(cp.IsAllowed(sum, alice), qt.IsFalse)
	c.Assert(wTx.Commit(), qt.IsNil)

	v, err := decryptAs(t, cp, sum, alice)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint64(14))
	v, err = decryptAs(t, cp, total, alice)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint64(22))

	_, err = decryptAs(t, cp, sum, bob)
	c.Assert(err, qt.ErrorIs, ErrNotAllowed)
	_, err = decryptAs(t, cp, x, alice)
	c.Assert(err, qt.ErrorIs, ErrNotAllowed)
}

func TestRerandomize(t *testing.T) {
	c := qt.New(t)
	cp, database := newTestCoprocessor(t)

	x := admit(t, cp, database, alice, 9)[0]

	wTx := database.WriteTx()
	defer wTx.Discard()
	exec := cp.Executor(wTx)

	_, err := exec.Rerandomize(x, engine)
	c.Assert(err, qt.ErrorIs, ErrNotAllowed)
	_, err = exec.Rerandomize(types.HexBytes(make([]byte, HandleSize)), engine)
	c.Assert(err, qt.ErrorIs, ErrNotFound)

	c.Assert(exec.Allow(x, engine), qt.IsNil)
	c.Assert(exec.Allow(x, alice), qt.IsNil)
	y, err := exec.Rerandomize(x, engine)
	c.Assert(err, qt.IsNil)
	c.Assert(y.Equal(x), qt.IsFalse)
	// grants on the source do not carry over
	c.Assert(exec.IsAllowed(y, engine), qt.IsFalse)
	c.Assert(exec.IsAllowed(y, alice), qt.IsFalse)

	src, _, err := exec.Ciphertext(x)
	c.Assert(err, qt.IsNil)
	dst, kind, err := exec.Ciphertext(y)
	c.Assert(err, qt.IsNil)
	c.Assert(kind, qt.Equals, KindUint)
	c.Assert(dst.Equal(src), qt.IsFalse)

	c.Assert(exec.Allow(y, bob), qt.IsNil)
	c.Assert(wTx.Commit(), qt.IsNil)

	v, err := decryptAs(t, cp, y, bob)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint64(9))
	_, err = decryptAs(t, cp, x, bob)
	c.Assert(err, qt.ErrorIs, ErrNotAllowed)
	_, err = decryptAs(t, cp, y, alice)
	c.Assert(err, qt.ErrorIs, ErrNotAllowed)
}

func TestExecutorDiscard(t *testing.T) {
	c := qt.New(t)
	cp, database := newTestCoprocessor(t)

	b := NewInputBuilder(cp.PublicKey(), alice)
	c.Assert(b.AddUint(1), qt.IsNil)
	inputs, proof, err := b.Build()
	c.Assert(err, qt.IsNil)

	wTx := database.WriteTx()
	handles, err := cp.Executor(wTx).Admit(inputs, proof, alice)
	c.Assert(err, qt.IsNil)
	wTx.Discard()

	_, _, err = cp.Ciphertext(handles[0])
	c.Assert(err, qt.ErrorIs, ErrNotFound)
}
