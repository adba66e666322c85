package storage

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/vocdoni/arbo"
	"github.com/vocdoni/blindtest/types"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// eventKeyLen is the length of the event log merkle tree keys, enough for
// EventTreeMaxLevels.
const eventKeyLen = types.EventTreeMaxLevels / 8

// eventHead tracks the number of events and the hash of the last one.
type eventHead struct {
	Count uint64         `cbor:"0,keyasint,omitempty"`
	Hash  types.HexBytes `cbor:"1,keyasint,omitempty"`
}

// EventHash returns the chained hash of the event: keccak256(prevHash || cbor(event)),
// where the event is encoded with an empty Hash field.
func EventHash(e *types.Event) (types.HexBytes, error) {
	cp := *e
	cp.Hash = nil
	data, err := encodeArtifact(&cp)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return ethcrypto.Keccak256(e.PrevHash, data), nil
}

func eventTreeKey(seq uint64) []byte {
	return arbo.BigIntToBytes(eventKeyLen, new(big.Int).SetUint64(seq))
}

func (s *Storage) readEventHead() (*eventHead, error) {
	head := &eventHead{}
	if err := getArtifact(s.db, metaPrefix, eventHeadKey, head); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return head, nil
}

// AppendEvent assigns the next sequence number and the chained hash to e, and
// stores it together with its event tree leaf. The event is persisted only if
// the transaction commits.
func (tx *Tx) AppendEvent(e *types.Event) error {
	if tx.head == nil {
		head, err := tx.s.readEventHead()
		if err != nil {
			return fmt.Errorf("read event head: %w", err)
		}
		tx.head = head
	}
	e.Seq = tx.head.Count
	e.PrevHash = tx.head.Hash
	hash, err := EventHash(e)
	if err != nil {
		return err
	}
	e.Hash = hash
	if err := setArtifact(tx.wTx, eventPrefix, uint64Key(e.Seq), e); err != nil {
		return fmt.Errorf("store event: %w", err)
	}
	treeTx := prefixeddb.NewPrefixedWriteTx(tx.wTx, eventTreePrefix)
	if err := tx.s.eventTree.AddWithTx(treeTx, eventTreeKey(e.Seq), hash); err != nil {
		return fmt.Errorf("add event to tree: %w", err)
	}
	head := &eventHead{Count: e.Seq + 1, Hash: hash}
	if err := setArtifact(tx.wTx, metaPrefix, eventHeadKey, head); err != nil {
		return fmt.Errorf("store event head: %w", err)
	}
	tx.head = head
	return nil
}

// Event returns the event with the given sequence number.
func (s *Storage) Event(seq uint64) (*types.Event, error) {
	e := &types.Event{}
	if err := getArtifact(s.db, eventPrefix, uint64Key(seq), e); err != nil {
		return nil, err
	}
	return e, nil
}

// EventCount returns the number of events in the log.
func (s *Storage) EventCount() (uint64, error) {
	head, err := s.readEventHead()
	if err != nil {
		return 0, err
	}
	return head.Count, nil
}

// Events returns up to limit events starting at sequence number from. A limit
// of zero or less returns every remaining event.
func (s *Storage) Events(from uint64, limit int) ([]*types.Event, error) {
	count, err := s.EventCount()
	if err != nil {
		return nil, err
	}
	end := count
	if limit > 0 && from+uint64(limit) < count {
		end = from + uint64(limit)
	}
	events := []*types.Event{}
	for seq := from; seq < end; seq++ {
		e, err := s.Event(seq)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", seq, err)
		}
		events = append(events, e)
	}
	return events, nil
}

// EventRoot returns the root of the event log merkle tree.
func (s *Storage) EventRoot() (types.HexBytes, error) {
	root, err := s.eventTree.Root()
	if err != nil {
		return nil, err
	}
	return root, nil
}

// EventProof returns the hash of the event with the given sequence number and
// the packed merkle siblings proving its inclusion in the event tree.
func (s *Storage) EventProof(seq uint64) (types.HexBytes, types.HexBytes, error) {
	_, value, siblings, exists, err := s.eventTree.GenProof(eventTreeKey(seq))
	if err != nil {
		return nil, nil, fmt.Errorf("generate event proof: %w", err)
	}
	if !exists {
		return nil, nil, ErrNotFound
	}
	return value, siblings, nil
}

// VerifyEventProof checks that the event hash is included under root at the
// given sequence number.
func VerifyEventProof(seq uint64, hash, root, siblings []byte) bool {
	valid, err := arbo.CheckProof(eventTreeHashFunction, eventTreeKey(seq), hash, root, siblings)
	if err != nil {
		return false
	}
	return valid
}

// VerifyEventChain recomputes the hash chain of the whole event log and checks
// it against the stored hashes and the event log head.
func (s *Storage) VerifyEventChain() error {
	head, err := s.readEventHead()
	if err != nil {
		return err
	}
	var prev types.HexBytes
	for seq := uint64(0); seq < head.Count; seq++ {
		e, err := s.Event(seq)
		if err != nil {
			return fmt.Errorf("event %d: %w", seq, err)
		}
		if e.Seq != seq {
			return fmt.Errorf("event %d: stored with sequence %d", seq, e.Seq)
		}
		if !bytes.Equal(e.PrevHash, prev) {
			return fmt.Errorf("event %d: broken link to previous event", seq)
		}
		hash, err := EventHash(e)
		if err != nil {
			return err
		}
		if !bytes.Equal(hash, e.Hash) {
			return fmt.Errorf("event %d: hash mismatch", seq)
		}
		prev = e.Hash
	}
	if !bytes.Equal(prev, head.Hash) {
		return fmt.Errorf("event log head does not match the last event")
	}
	return nil
}
