// Package ethereum provides secp256k1 signing keys and EIP-191 signature
// helpers used to authenticate principals by their Ethereum address.
package ethereum

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	// SignatureLength is the size of an ECDSA signature in hexString format
	SignatureLength = ethcrypto.SignatureLength
	// PubKeyLengthBytes is the size of a Public Key
	PubKeyLengthBytes = 33
	// SigningPrefix is the prefix added when hashing
	SigningPrefix = "\u0019Ethereum Signed Message:\n"
)

// SignKeys represents an ECDSA pair of keys for signing.
type SignKeys struct {
	Public  ecdsa.PublicKey
	Private ecdsa.PrivateKey
	lock    sync.RWMutex
}

// NewSignKeys creates an ECDSA pair of keys for signing.
func NewSignKeys() *SignKeys {
	return &SignKeys{}
}

// Generate generates new keys.
func (k *SignKeys) Generate() error {
	k.lock.Lock()
	defer k.lock.Unlock()
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return err
	}
	k.Private = *key
	k.Public = key.PublicKey
	return nil
}

// AddHexKey imports a private hex key, with or without 0x prefix.
func (k *SignKeys) AddHexKey(privHex string) error {
	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(privHex, "0x"))
	if err != nil {
		return err
	}
	k.lock.Lock()
	defer k.lock.Unlock()
	k.Private = *key
	k.Public = key.PublicKey
	return nil
}

// HexString returns the public compressed key and the private key as hex strings.
func (k *SignKeys) HexString() (string, string) {
	k.lock.RLock()
	defer k.lock.RUnlock()
	pubHex := hex.EncodeToString(ethcrypto.CompressPubkey(&k.Public))
	privHex := fmt.Sprintf("%x", ethcrypto.FromECDSA(&k.Private))
	return pubHex, privHex
}

// PublicKey returns the compressed public key.
func (k *SignKeys) PublicKey() []byte {
	k.lock.RLock()
	defer k.lock.RUnlock()
	return ethcrypto.CompressPubkey(&k.Public)
}

// Address returns the Ethereum address of the key pair.
func (k *SignKeys) Address() common.Address {
	k.lock.RLock()
	defer k.lock.RUnlock()
	return ethcrypto.PubkeyToAddress(k.Public)
}

// AddressString returns the checksummed Ethereum address.
func (k *SignKeys) AddressString() string {
	return k.Address().String()
}

// SignEthereum signs a message using the EIP-191 personal message prefix.
// The returned signature holds the recovery id (0 or 1) as its last byte.
func (k *SignKeys) SignEthereum(message []byte) ([]byte, error) {
	k.lock.RLock()
	defer k.lock.RUnlock()
	if k.Private.D == nil {
		return nil, errors.New("no private key available")
	}
	signature, err := ethcrypto.Sign(Hash(message), &k.Private)
	if err != nil {
		return nil, err
	}
	return signature, nil
}

// AddrFromPublicKey returns the address of a compressed or uncompressed public key.
func AddrFromPublicKey(pub []byte) (common.Address, error) {
	var pubkey *ecdsa.PublicKey
	var err error
	if len(pub) == PubKeyLengthBytes {
		pubkey, err = ethcrypto.DecompressPubkey(pub)
	} else {
		pubkey, err = ethcrypto.UnmarshalPubkey(pub)
	}
	if err != nil {
		return common.Address{}, fmt.Errorf("cannot decode public key: %w", err)
	}
	return ethcrypto.PubkeyToAddress(*pubkey), nil
}

// PubKeyFromSignature recovers the compressed public key that signed message.
func PubKeyFromSignature(message, signature []byte) ([]byte, error) {
	if len(signature) != SignatureLength {
		return nil, fmt.Errorf("signature length not correct (%d)", len(signature))
	}
	sig := make([]byte, SignatureLength)
	copy(sig, signature)
	// accept both 0/1 and 27/28 recovery ids
	if sig[64] > 1 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return nil, errors.New("bad recovery id")
	}
	pubKey, err := ethcrypto.SigToPub(Hash(message), sig)
	if err != nil {
		return nil, fmt.Errorf("sigToPub: %w", err)
	}
	return ethcrypto.CompressPubkey(pubKey), nil
}

// AddrFromSignature recovers the Ethereum address that signed message.
func AddrFromSignature(message, signature []byte) (common.Address, error) {
	pub, err := PubKeyFromSignature(message, signature)
	if err != nil {
		return common.Address{}, err
	}
	return AddrFromPublicKey(pub)
}

// Hash returns the EIP-191 keccak256 hash of data.
func Hash(data []byte) []byte {
	payload := []byte(SigningPrefix + strconv.Itoa(len(data)))
	payload = append(payload, data...)
	return ethcrypto.Keccak256(payload)
}
