package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

var encMode = func() cbor.EncMode {
	encOpts := cbor.CoreDetEncOptions()
	encOpts.Time = cbor.TimeRFC3339Nano
	em, err := encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor encoding mode: %v", err))
	}
	return em
}()

// Artifact encoding/decoding
func encodeArtifact(a any) ([]byte, error) {
	return encMode.Marshal(a)
}

func decodeArtifact(data []byte, out any) error {
	return cbor.Unmarshal(data, out)
}

// getArtifact reads and decodes the artifact stored under prefix|key. It
// returns ErrNotFound if the key does not exist.
func getArtifact(r db.Reader, prefix, key []byte, out any) error {
	data, err := prefixeddb.NewPrefixedReader(r, prefix).Get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get artifact: %w", err)
	}
	if err := decodeArtifact(data, out); err != nil {
		return fmt.Errorf("decode artifact: %w", err)
	}
	return nil
}

// setArtifact encodes and writes the artifact under prefix|key.
func setArtifact(wTx db.WriteTx, prefix, key []byte, a any) error {
	data, err := encodeArtifact(a)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	return prefixeddb.NewPrefixedWriteTx(wTx, prefix).Set(key, data)
}

// iterateArtifacts calls cb with a copy of every value stored under
// prefix|subPrefix, in key order, until cb returns false.
func iterateArtifacts(r db.Reader, prefix, subPrefix []byte, cb func(k, v []byte) bool) error {
	return prefixeddb.NewPrefixedReader(r, prefix).Iterate(subPrefix, func(k, v []byte) bool {
		kc := make([]byte, len(k))
		copy(kc, k)
		vc := make([]byte, len(v))
		copy(vc, v)
		return cb(kc, vc)
	})
}

func uint64Key(n uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, n)
}

func sessionKey(sessionID uint64) []byte {
	return uint64Key(sessionID)
}

func aggregateKey(sessionID uint64, setup uint8) []byte {
	return append(sessionKey(sessionID), setup)
}

func ballotKey(sessionID uint64, setup uint8, voter common.Address) []byte {
	return append(aggregateKey(sessionID, setup), voter.Bytes()...)
}

func readUint64(r db.Reader, prefix, key []byte) (uint64, error) {
	data, err := prefixeddb.NewPrefixedReader(r, prefix).Get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("invalid counter length %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}
