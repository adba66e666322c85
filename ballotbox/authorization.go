package ballotbox

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/blindtest/log"
	"github.com/vocdoni/blindtest/storage"
	"github.com/vocdoni/blindtest/types"
)

// RequestOrganizerDecryption grants the organizer of a closed session the
// capability to decrypt the aggregates of every setup with at least one vote.
// It succeeds once per session; the grant can never be extended or revoked.
func (b *BallotBox) RequestOrganizerDecryption(sessionID uint64, caller common.Address) (*types.DecryptionGrant, error) {
	var grant *types.DecryptionGrant
	err := b.stg.Update(func(tx *storage.Tx) error {
		session, err := txSession(tx, sessionID)
		if err != nil {
			return err
		}
		if !session.IsOrganizer(caller) {
			return ErrNotOrganizer
		}
		if session.State != types.SessionStateClosed {
			return fmt.Errorf("%w: session %d is %s", ErrNotClosed, sessionID, session.State)
		}
		if g, err := tx.DecryptionGrant(sessionID); err == nil && g.Requested {
			return ErrAlreadyRequested
		} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("read decryption grant: %w", err)
		}

		aggs, err := tx.Aggregates(sessionID)
		if err != nil {
			return err
		}
		exec := b.cp.Executor(tx.WriteTx())
		now := b.now()
		grant = &types.DecryptionGrant{
			SessionID: sessionID,
			Requested: true,
			Grantee:   session.Organizer,
			GrantedAt: now,
		}
		for _, agg := range aggs {
			if agg.Count == 0 {
				continue
			}
			for _, h := range agg.Handles() {
				if err := exec.Allow(h, session.Organizer); err != nil {
					return fmt.Errorf("allow organizer: %w", err)
				}
				if err := exec.Allow(h, Self); err != nil {
					return fmt.Errorf("allow self: %w", err)
				}
				grant.Handles = append(grant.Handles, h)
			}
		}
		if err := tx.SetDecryptionGrant(grant); err != nil {
			return fmt.Errorf("store decryption grant: %w", err)
		}
		return tx.AppendEvent(&types.Event{
			Type:      types.EventDecryptionGranted,
			SessionID: sessionID,
			Actor:     caller,
			Time:      now,
		})
	})
	if err != nil {
		log.Debugw("rejected decryption request", "id", sessionID, "caller", caller.Hex(), "error", err.Error())
		return nil, err
	}
	b.metrics.decryptionGrants.Inc()
	log.Infow("organizer decryption granted", "id", sessionID, "organizer", caller.Hex(), "handles", len(grant.Handles))
	return grant, nil
}

// IsRequested reports whether the organizer decryption was already granted.
func (b *BallotBox) IsRequested(sessionID uint64) (bool, error) {
	if _, err := b.session(sessionID); err != nil {
		return false, err
	}
	g, err := b.stg.DecryptionGrant(sessionID)
	switch {
	case err == nil:
		return g.Requested, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// DecryptionGrant returns the decryption grant of a session, or ErrNotFound if
// it was not requested.
func (b *BallotBox) DecryptionGrant(sessionID uint64) (*types.DecryptionGrant, error) {
	if _, err := b.session(sessionID); err != nil {
		return nil, err
	}
	g, err := b.stg.DecryptionGrant(sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return g, err
}
