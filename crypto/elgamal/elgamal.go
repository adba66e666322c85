package elgamal

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/iden3/go-iden3-crypto/constants"
)

// RandK function generates a random k value for encryption, reduced to the
// BabyJubJub subgroup order.
func RandK() (*big.Int, error) {
	k, err := rand.Int(rand.Reader, babyjub.SubOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to generate random k: %w", err)
	}
	if k.Sign() == 0 {
		k.SetInt64(1)
	}
	return k, nil
}

// GenerateKey generates a new public/private ElGamal encryption key pair.
func GenerateKey() (publicKey *babyjub.Point, privateKey *big.Int, err error) {
	d, err := RandK()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate private key scalar: %w", err)
	}
	return PublicKey(d), d, nil
}

// PublicKey derives the public key point of the given private key scalar.
func PublicKey(privateKey *big.Int) *babyjub.Point {
	return babyjub.NewPoint().Mul(privateKey, babyjub.B8)
}

// EncryptWithK function encrypts a message using the public key provided as
// elliptic curve point and the random k value provided. It returns the two
// points that represent the encrypted message.
func EncryptWithK(pubKey *babyjub.Point, msg, k *big.Int) (*babyjub.Point, *babyjub.Point) {
	m := new(big.Int).Mod(msg, babyjub.SubOrder)
	// c1 = [k] * G
	c1 := babyjub.NewPoint().Mul(k, babyjub.B8)
	// s = [k] * publicKey
	s := babyjub.NewPoint().Mul(k, pubKey)
	// c2 = [m] * G + s
	mPoint := babyjub.NewPoint().Mul(m, babyjub.B8)
	return c1, add(mPoint, s)
}

// Decrypt decrypts the given ciphertext using the private key. The message is
// recovered by solving the discrete log of M = c2 - d*c1, so it must lie in
// [0, maxMessage].
func Decrypt(privateKey *big.Int, ct *Ciphertext, maxMessage uint64) (*big.Int, error) {
	message, err := BabyStepGiantStep(messagePoint(privateKey, ct), maxMessage)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return message, nil
}

// Reencrypt switches the ciphertext from the key pair of privateKey to
// newPublicKey without revealing the message. The randomness k can be
// provided or nil to generate a new one.
func Reencrypt(privateKey *big.Int, ct *Ciphertext, newPublicKey *babyjub.Point, k *big.Int) (*Ciphertext, error) {
	var err error
	if k == nil {
		if k, err = RandK(); err != nil {
			return nil, fmt.Errorf("reencryption failed: %w", err)
		}
	}
	m := messagePoint(privateKey, ct)
	return &Ciphertext{
		C1: babyjub.NewPoint().Mul(k, babyjub.B8),
		C2: add(m, babyjub.NewPoint().Mul(k, newPublicKey)),
	}, nil
}

// messagePoint computes M = c2 - d*c1.
func messagePoint(privateKey *big.Int, ct *Ciphertext) *babyjub.Point {
	dC1 := babyjub.NewPoint().Mul(privateKey, ct.C1)
	return add(ct.C2, neg(dC1))
}

// BabyStepGiantStep solves M = x*G for x in [0, maxMessage] using the
// baby-step giant-step algorithm over the BabyJubJub curve.
func BabyStepGiantStep(m *babyjub.Point, maxMessage uint64) (*big.Int, error) {
	mSqrt := uint64(math.Sqrt(float64(maxMessage))) + 1

	babySteps := make(map[[32]byte]uint64, mSqrt)
	babyStep := babyjub.NewPoint()
	for j := uint64(0); j < mSqrt; j++ {
		babySteps[babyStep.Compress()] = j
		babyStep = add(babyStep, babyjub.B8)
	}

	// c = mSqrt * (-G)
	c := neg(babyjub.NewPoint().Mul(new(big.Int).SetUint64(mSqrt), babyjub.B8))
	giantStep := &babyjub.Point{X: new(big.Int).Set(m.X), Y: new(big.Int).Set(m.Y)}
	for i := uint64(0); i <= mSqrt; i++ {
		if j, found := babySteps[giantStep.Compress()]; found {
			x := i*mSqrt + j
			if x > maxMessage {
				break
			}
			return new(big.Int).SetUint64(x), nil
		}
		giantStep = add(giantStep, c)
	}
	return nil, fmt.Errorf("no discrete log found in [0, %d]", maxMessage)
}

func add(a, b *babyjub.Point) *babyjub.Point {
	return babyjub.NewPointProjective().Add(a.Projective(), b.Projective()).Affine()
}

// neg returns -p, which on a twisted Edwards curve is (-x, y).
func neg(p *babyjub.Point) *babyjub.Point {
	x := new(big.Int).Neg(p.X)
	x.Mod(x, constants.Q)
	return &babyjub.Point{X: x, Y: new(big.Int).Set(p.Y)}
}
