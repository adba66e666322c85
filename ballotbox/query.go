package ballotbox

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/blindtest/types"
)

// Session returns the session metadata. Setup names are included in the
// returned value but never serialized to JSON; use SetupNames to read them.
func (b *BallotBox) Session(sessionID uint64) (*types.Session, error) {
	return b.session(sessionID)
}

// Sessions lists every session ordered by id.
func (b *BallotBox) Sessions() ([]*types.Session, error) {
	return b.stg.Sessions()
}

// SessionCount returns the number of sessions created.
func (b *BallotBox) SessionCount() (uint64, error) {
	return b.stg.SessionCount()
}

// State returns the lifecycle state of a session.
func (b *BallotBox) State(sessionID uint64) (types.SessionState, error) {
	s, err := b.session(sessionID)
	if err != nil {
		return 0, err
	}
	return s.State, nil
}

// IsOrganizer reports whether addr organizes the session.
func (b *BallotBox) IsOrganizer(sessionID uint64, addr common.Address) (bool, error) {
	s, err := b.session(sessionID)
	if err != nil {
		return false, err
	}
	return s.IsOrganizer(addr), nil
}

// SetupName returns the display name of one setup once the session is revealed.
func (b *BallotBox) SetupName(sessionID uint64, setup uint8) (string, error) {
	names, err := b.SetupNames(sessionID)
	if err != nil {
		return "", err
	}
	if int(setup) >= len(names) {
		return "", ErrInvalidSetupIndex
	}
	return names[setup], nil
}

// SetupNames returns the display names of every setup once the session is
// revealed.
func (b *BallotBox) SetupNames(sessionID uint64) ([]string, error) {
	s, err := b.session(sessionID)
	if err != nil {
		return nil, err
	}
	if s.State != types.SessionStateRevealed {
		return nil, ErrNotRevealed
	}
	return append([]string{}, s.SetupNames...), nil
}

// VoteCount returns the number of ballots folded for a setup.
func (b *BallotBox) VoteCount(sessionID uint64, setup uint8) (uint64, error) {
	agg, err := b.Aggregate(sessionID, setup)
	if err != nil {
		return 0, err
	}
	return agg.Count, nil
}

// VoteCounts returns the vote count of every setup of a session.
func (b *BallotBox) VoteCounts(sessionID uint64) ([]uint64, error) {
	s, err := b.session(sessionID)
	if err != nil {
		return nil, err
	}
	counts := make([]uint64, s.SetupCount)
	aggs, err := b.stg.Aggregates(sessionID)
	if err != nil {
		return nil, err
	}
	for _, agg := range aggs {
		if s.ValidSetup(agg.Setup) {
			counts[agg.Setup] = agg.Count
		}
	}
	return counts, nil
}
