package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/blindtest/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// Tx is a write transaction opened by Storage.Update. Reads return the state
// committed before the transaction started, which is stable while the global
// lock is held. Counters and the event log head are cached so they can be
// advanced several times in the same transaction.
type Tx struct {
	s   *Storage
	wTx db.WriteTx

	nextSessionID *uint64
	head          *eventHead
}

// WriteTx returns the underlying database transaction, used by collaborators
// (the coprocessor) whose writes must commit or abort with this one.
func (tx *Tx) WriteTx() db.WriteTx {
	return tx.wTx
}

// NextSessionID allocates a new session identifier. Identifiers start at 1.
func (tx *Tx) NextSessionID() (uint64, error) {
	if tx.nextSessionID == nil {
		n, err := readUint64(tx.s.db, metaPrefix, sessionCounterKey)
		if err != nil {
			return 0, fmt.Errorf("read session counter: %w", err)
		}
		tx.nextSessionID = &n
	}
	*tx.nextSessionID++
	id := *tx.nextSessionID
	wTx := prefixeddb.NewPrefixedWriteTx(tx.wTx, metaPrefix)
	if err := wTx.Set(sessionCounterKey, binary.BigEndian.AppendUint64(nil, id)); err != nil {
		return 0, fmt.Errorf("write session counter: %w", err)
	}
	return id, nil
}

// Session returns the committed session with the given id.
func (tx *Tx) Session(sessionID uint64) (*types.Session, error) {
	return tx.s.Session(sessionID)
}

// SetSession stores the session.
func (tx *Tx) SetSession(session *types.Session) error {
	if session == nil {
		return fmt.Errorf("nil session")
	}
	return setArtifact(tx.wTx, sessionPrefix, sessionKey(session.ID), session)
}

// Ballot returns the committed ballot of voter for the given setup.
func (tx *Tx) Ballot(sessionID uint64, setup uint8, voter common.Address) (*types.Ballot, error) {
	return tx.s.Ballot(sessionID, setup, voter)
}

// SetBallot stores the ballot.
func (tx *Tx) SetBallot(b *types.Ballot) error {
	if b == nil {
		return fmt.Errorf("nil ballot")
	}
	return setArtifact(tx.wTx, ballotPrefix, ballotKey(b.SessionID, b.Setup, b.Voter), b)
}

// Aggregate returns the committed aggregate of the given setup.
func (tx *Tx) Aggregate(sessionID uint64, setup uint8) (*types.Aggregate, error) {
	return tx.s.Aggregate(sessionID, setup)
}

// SetAggregate stores the aggregate.
func (tx *Tx) SetAggregate(a *types.Aggregate) error {
	if a == nil {
		return fmt.Errorf("nil aggregate")
	}
	return setArtifact(tx.wTx, aggregatePrefix, aggregateKey(a.SessionID, a.Setup), a)
}

// Aggregates returns the committed aggregates of a session.
func (tx *Tx) Aggregates(sessionID uint64) ([]*types.Aggregate, error) {
	return tx.s.Aggregates(sessionID)
}

// DecryptionGrant returns the committed decryption grant of a session.
func (tx *Tx) DecryptionGrant(sessionID uint64) (*types.DecryptionGrant, error) {
	return tx.s.DecryptionGrant(sessionID)
}

// SetDecryptionGrant stores the decryption grant.
func (tx *Tx) SetDecryptionGrant(g *types.DecryptionGrant) error {
	if g == nil {
		return fmt.Errorf("nil decryption grant")
	}
	return setArtifact(tx.wTx, grantPrefix, sessionKey(g.SessionID), g)
}
