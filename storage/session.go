package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/blindtest/log"
	"github.com/vocdoni/blindtest/types"
)

// Session retrieves the session from the storage. It returns ErrNotFound if
// the session does not exist.
func (s *Storage) Session(sessionID uint64) (*types.Session, error) {
	session := &types.Session{}
	if err := getArtifact(s.db, sessionPrefix, sessionKey(sessionID), session); err != nil {
		return nil, err
	}
	return session, nil
}

// Sessions returns every stored session ordered by id.
func (s *Storage) Sessions() ([]*types.Session, error) {
	var sessions []*types.Session
	if err := iterateArtifacts(s.db, sessionPrefix, nil, func(k, v []byte) bool {
		session := &types.Session{}
		if err := decodeArtifact(v, session); err != nil {
			log.Warnw("failed to decode session", "id", binary.BigEndian.Uint64(k), "error", err.Error())
			return true
		}
		sessions = append(sessions, session)
		return true
	}); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// SessionCount returns the number of sessions created so far.
func (s *Storage) SessionCount() (uint64, error) {
	return readUint64(s.db, metaPrefix, sessionCounterKey)
}

// Ballot retrieves the ballot of voter for the given setup. It returns
// ErrNotFound if the voter has not voted.
func (s *Storage) Ballot(sessionID uint64, setup uint8, voter common.Address) (*types.Ballot, error) {
	b := &types.Ballot{}
	if err := getArtifact(s.db, ballotPrefix, ballotKey(sessionID, setup, voter), b); err != nil {
		return nil, err
	}
	return b, nil
}

// CountBallots returns the number of ballots stored for the given setup.
func (s *Storage) CountBallots(sessionID uint64, setup uint8) int {
	count := 0
	if err := iterateArtifacts(s.db, ballotPrefix, aggregateKey(sessionID, setup), func(_, _ []byte) bool {
		count++
		return true
	}); err != nil {
		log.Warnw("failed to count ballots", "session", sessionID, "setup", setup, "error", err.Error())
	}
	return count
}

// VerifyAggregates checks that the vote count of every aggregate matches the
// ballots stored for its setup. Setups without an aggregate must have no
// ballots.
func (s *Storage) VerifyAggregates() error {
	sessions, err := s.Sessions()
	if err != nil {
		return err
	}
	for _, session := range sessions {
		for setup := uint8(0); setup < session.SetupCount; setup++ {
			var count uint64
			agg, err := s.Aggregate(session.ID, setup)
			switch {
			case err == nil:
				count = agg.Count
			case !errors.Is(err, ErrNotFound):
				return fmt.Errorf("read aggregate: %w", err)
			}
			if ballots := s.CountBallots(session.ID, setup); uint64(ballots) != count {
				return fmt.Errorf("%w: session %d setup %d has %d ballots and count %d",
					ErrInconsistentAggregate, session.ID, setup, ballots, count)
			}
		}
	}
	return nil
}

// Aggregate retrieves the aggregate of the given setup. It returns ErrNotFound
// if no ballot has been folded yet.
func (s *Storage) Aggregate(sessionID uint64, setup uint8) (*types.Aggregate, error) {
	a := &types.Aggregate{}
	if err := getArtifact(s.db, aggregatePrefix, aggregateKey(sessionID, setup), a); err != nil {
		return nil, err
	}
	return a, nil
}

// Aggregates returns the existing aggregates of a session ordered by setup.
func (s *Storage) Aggregates(sessionID uint64) ([]*types.Aggregate, error) {
	var aggs []*types.Aggregate
	var derr error
	if err := iterateArtifacts(s.db, aggregatePrefix, sessionKey(sessionID), func(_, v []byte) bool {
		a := &types.Aggregate{}
		if derr = decodeArtifact(v, a); derr != nil {
			return false
		}
		aggs = append(aggs, a)
		return true
	}); err != nil {
		return nil, fmt.Errorf("iterate aggregates: %w", err)
	}
	if derr != nil {
		return nil, fmt.Errorf("decode aggregate: %w", derr)
	}
	return aggs, nil
}

// DecryptionGrant retrieves the decryption grant of a session. It returns
// ErrNotFound if the organizer has not requested decryption.
func (s *Storage) DecryptionGrant(sessionID uint64) (*types.DecryptionGrant, error) {
	g := &types.DecryptionGrant{}
	if err := getArtifact(s.db, grantPrefix, sessionKey(sessionID), g); err != nil {
		return nil, err
	}
	return g, nil
}
