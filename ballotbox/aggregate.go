package ballotbox

import (
	"errors"
	"fmt"

	"github.com/vocdoni/blindtest/coprocessor"
	"github.com/vocdoni/blindtest/storage"
	"github.com/vocdoni/blindtest/types"
)

// fold adds the ballot ciphertexts to the running sums of its setup. The first
// ballot initializes the sums with rerandomized copies of its values, never
// with its own handles. Every sum is a new handle, so the ballot box grants
// itself the capability on each of them.
func (b *BallotBox) fold(tx *storage.Tx, exec *coprocessor.Executor, ballot *types.Ballot) error {
	agg, err := tx.Aggregate(ballot.SessionID, ballot.Setup)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		agg = &types.Aggregate{
			SessionID: ballot.SessionID,
			Setup:     ballot.Setup,
		}
		if agg.RatingSum, err = b.copyAndAllow(exec, ballot.Rating); err != nil {
			return fmt.Errorf("init rating: %w", err)
		}
		for i := range ballot.Tags {
			if agg.TagSums[i], err = b.copyAndAllow(exec, ballot.Tags[i]); err != nil {
				return fmt.Errorf("init tag %d: %w", i, err)
			}
		}
	case err != nil:
		return fmt.Errorf("read aggregate: %w", err)
	default:
		if agg.RatingSum, err = b.addAndAllow(exec, agg.RatingSum, ballot.Rating); err != nil {
			return fmt.Errorf("fold rating: %w", err)
		}
		for i := range agg.TagSums {
			if agg.TagSums[i], err = b.addAndAllow(exec, agg.TagSums[i], ballot.Tags[i]); err != nil {
				return fmt.Errorf("fold tag %d: %w", i, err)
			}
		}
	}
	agg.Count++
	if err := tx.SetAggregate(agg); err != nil {
		return fmt.Errorf("store aggregate: %w", err)
	}
	return nil
}

func (b *BallotBox) addAndAllow(exec *coprocessor.Executor, sum, value types.HexBytes) (types.HexBytes, error) {
	h, err := exec.Add(sum, value, Self)
	if err != nil {
		return nil, err
	}
	if err := exec.Allow(h, Self); err != nil {
		return nil, err
	}
	return h, nil
}

func (b *BallotBox) copyAndAllow(exec *coprocessor.Executor, value types.HexBytes) (types.HexBytes, error) {
	h, err := exec.Rerandomize(value, Self)
	if err != nil {
		return nil, err
	}
	if err := exec.Allow(h, Self); err != nil {
		return nil, err
	}
	return h, nil
}

// Aggregate returns the running sums and the vote count of a setup. Before the
// first ballot the handles are empty and the count is zero.
func (b *BallotBox) Aggregate(sessionID uint64, setup uint8) (*types.Aggregate, error) {
	session, err := b.session(sessionID)
	if err != nil {
		return nil, err
	}
	if !session.ValidSetup(setup) {
		return nil, ErrInvalidSetupIndex
	}
	agg, err := b.stg.Aggregate(sessionID, setup)
	if errors.Is(err, storage.ErrNotFound) {
		return &types.Aggregate{SessionID: sessionID, Setup: setup}, nil
	}
	return agg, err
}
