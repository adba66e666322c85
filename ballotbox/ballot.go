package ballotbox

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/vocdoni/blindtest/coprocessor"
	"github.com/vocdoni/blindtest/log"
	"github.com/vocdoni/blindtest/storage"
	"github.com/vocdoni/blindtest/types"
)

// EncryptedBallot is the client payload of a submission: the encrypted rating,
// the encrypted tags and the proof admitting them, as built by
// coprocessor.InputBuilder.
type EncryptedBallot struct {
	Rating coprocessor.Input                `json:"rating"`
	Tags   [types.NumTags]coprocessor.Input `json:"tags"`
	Proof  types.HexBytes                   `json:"proof"`
}

// inputs returns the rating followed by the tags.
func (eb *EncryptedBallot) inputs() []coprocessor.Input {
	in := make([]coprocessor.Input, 0, types.NumTags+1)
	in = append(in, eb.Rating)
	return append(in, eb.Tags[:]...)
}

// NewEncryptedBallot encrypts a rating and the tags to the network key of cp
// on behalf of voter.
func NewEncryptedBallot(cp *coprocessor.Coprocessor, voter common.Address, rating uint64, tags [types.NumTags]bool) (*EncryptedBallot, error) {
	return EncryptBallot(cp.PublicKey(), voter, rating, tags)
}

// EncryptBallot encrypts a rating and the tags to networkKey on behalf of
// voter. Clients obtain networkKey from the public API.
func EncryptBallot(networkKey *babyjub.Point, voter common.Address, rating uint64, tags [types.NumTags]bool) (*EncryptedBallot, error) {
	builder := coprocessor.NewInputBuilder(networkKey, voter)
	if err := builder.AddUint(rating); err != nil {
		return nil, err
	}
	for _, tag := range tags {
		if err := builder.AddBool(tag); err != nil {
			return nil, err
		}
	}
	inputs, proof, err := builder.Build()
	if err != nil {
		return nil, err
	}
	eb := &EncryptedBallot{Rating: inputs[0], Proof: proof}
	copy(eb.Tags[:], inputs[1:])
	return eb, nil
}

// Submit stores the ballot of voter for one setup and folds it into the setup
// aggregate. The session must be active, its deadline not passed, and the
// voter must not have voted for this setup before. The voter and the ballot
// box are granted the capability on the admitted ciphertexts.
func (b *BallotBox) Submit(sessionID uint64, setup uint8, voter common.Address, eb *EncryptedBallot) error {
	if eb == nil {
		return fmt.Errorf("%w: empty ballot", ErrInvalidInput)
	}
	err := b.stg.Update(func(tx *storage.Tx) error {
		session, err := txSession(tx, sessionID)
		if err != nil {
			return err
		}
		if session.State != types.SessionStateActive {
			return ErrSessionNotActive
		}
		now := b.now()
		if now.After(session.Deadline) {
			return ErrDeadlinePassed
		}
		if !session.ValidSetup(setup) {
			return fmt.Errorf("%w: %d, session has %d setups", ErrInvalidSetupIndex, setup, session.SetupCount)
		}
		if _, err := tx.Ballot(sessionID, setup, voter); err == nil {
			return ErrDuplicateVote
		} else if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("read ballot: %w", err)
		}

		if eb.Rating.Kind != coprocessor.KindUint {
			return fmt.Errorf("%w: rating must be %s", ErrInvalidInput, coprocessor.KindUint)
		}
		for i, tag := range eb.Tags {
			if tag.Kind != coprocessor.KindBool {
				return fmt.Errorf("%w: tag %d must be %s", ErrInvalidInput, i, coprocessor.KindBool)
			}
		}
		exec := b.cp.Executor(tx.WriteTx())
		handles, err := exec.Admit(eb.inputs(), eb.Proof, voter)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		for _, h := range handles {
			if err := exec.Allow(h, voter); err != nil {
				return err
			}
			if err := exec.Allow(h, Self); err != nil {
				return err
			}
		}

		ballot := &types.Ballot{
			SessionID:   sessionID,
			Setup:       setup,
			Voter:       voter,
			Rating:      handles[0],
			Submitted:   true,
			SubmittedAt: now,
		}
		copy(ballot.Tags[:], handles[1:])
		if err := tx.SetBallot(ballot); err != nil {
			return fmt.Errorf("store ballot: %w", err)
		}
		if err := b.fold(tx, exec, ballot); err != nil {
			return err
		}
		return tx.AppendEvent(&types.Event{
			Type:      types.EventBallotSubmitted,
			SessionID: sessionID,
			Setup:     setupPtr(setup),
			Actor:     voter,
			Time:      now,
		})
	})
	if err != nil {
		b.metrics.ballotsRejected.WithLabelValues(rejectReason(err)).Inc()
		log.Debugw("rejected ballot", "id", sessionID, "setup", setup, "voter", voter.Hex(), "error", err.Error())
		return err
	}
	b.metrics.ballotsAccepted.Inc()
	log.Infow("ballot accepted", "id", sessionID, "setup", setup, "voter", voter.Hex())
	return nil
}

// OwnBallot returns the ciphertext handles of the ballot of voter. Only the
// voter may read them.
func (b *BallotBox) OwnBallot(sessionID uint64, setup uint8, voter, caller common.Address) (*types.Ballot, error) {
	if _, err := b.session(sessionID); err != nil {
		return nil, err
	}
	if caller != voter {
		return nil, ErrForbidden
	}
	ballot, err := b.stg.Ballot(sessionID, setup, voter)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return ballot, err
}

// HasVoted reports whether voter submitted a ballot for the setup.
func (b *BallotBox) HasVoted(sessionID uint64, setup uint8, voter common.Address) (bool, error) {
	if _, err := b.session(sessionID); err != nil {
		return false, err
	}
	_, err := b.stg.Ballot(sessionID, setup, voter)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func rejectReason(err error) string {
	for _, e := range []error{
		ErrSessionNotFound, ErrSessionNotActive, ErrDeadlinePassed,
		ErrInvalidSetupIndex, ErrDuplicateVote, ErrInvalidInput,
	} {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return "internal"
}
