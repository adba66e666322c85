package ballotbox

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/blindtest/log"
	"github.com/vocdoni/blindtest/storage"
	"github.com/vocdoni/blindtest/types"
)

// CreateSession registers a new session organized by organizer and returns
// its id. The session starts Active.
func (b *BallotBox) CreateSession(organizer common.Address, params *types.SessionParams) (uint64, error) {
	if params == nil {
		return 0, fmt.Errorf("nil session params")
	}
	now := b.now()
	if !params.Deadline.After(now) {
		log.Debugw("rejected session", "organizer", organizer.Hex(), "reason", ErrInvalidDeadline.Error())
		return 0, ErrInvalidDeadline
	}
	if params.SetupCount < types.MinSetups || params.SetupCount > types.MaxSetups {
		log.Debugw("rejected session", "organizer", organizer.Hex(), "reason", ErrInvalidSetupCount.Error())
		return 0, fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidSetupCount,
			params.SetupCount, types.MinSetups, types.MaxSetups)
	}
	if len(params.SetupNames) != int(params.SetupCount) {
		log.Debugw("rejected session", "organizer", organizer.Hex(), "reason", ErrNameCountMismatch.Error())
		return 0, fmt.Errorf("%w: %d names for %d setups", ErrNameCountMismatch,
			len(params.SetupNames), params.SetupCount)
	}

	var id uint64
	err := b.stg.Update(func(tx *storage.Tx) error {
		var err error
		if id, err = tx.NextSessionID(); err != nil {
			return err
		}
		session := &types.Session{
			ID:          id,
			Organizer:   organizer,
			Title:       params.Title,
			Description: params.Description,
			Deadline:    params.Deadline,
			State:       types.SessionStateActive,
			SetupCount:  params.SetupCount,
			SetupNames:  append([]string{}, params.SetupNames...),
			TrackList:   params.TrackList,
			CreatedAt:   now,
		}
		if err := tx.SetSession(session); err != nil {
			return fmt.Errorf("store session: %w", err)
		}
		return tx.AppendEvent(&types.Event{
			Type:      types.EventSessionCreated,
			SessionID: id,
			Actor:     organizer,
			Time:      now,
		})
	})
	if err != nil {
		return 0, err
	}
	b.metrics.sessionsCreated.Inc()
	log.Infow("session created", "id", id, "organizer", organizer.Hex(),
		"setups", params.SetupCount, "deadline", params.Deadline)
	return id, nil
}

// CloseSession ends the voting phase. Only the organizer may close an active
// session, at any time before or after its deadline.
func (b *BallotBox) CloseSession(sessionID uint64, caller common.Address) error {
	return b.transition(sessionID, caller, types.SessionStateActive, types.SessionStateClosed,
		ErrNotActive, types.EventSessionClosed)
}

// RevealSession discloses the setup names of a closed session. Only the
// organizer may reveal.
func (b *BallotBox) RevealSession(sessionID uint64, caller common.Address) error {
	return b.transition(sessionID, caller, types.SessionStateClosed, types.SessionStateRevealed,
		ErrNotClosed, types.EventSessionRevealed)
}

// transition moves the session from one state to the next, which is the only
// kind of state change allowed.
func (b *BallotBox) transition(sessionID uint64, caller common.Address, from, to types.SessionState,
	errState error, event types.EventType,
) error {
	err := b.stg.Update(func(tx *storage.Tx) error {
		session, err := txSession(tx, sessionID)
		if err != nil {
			return err
		}
		if !session.IsOrganizer(caller) {
			return ErrNotOrganizer
		}
		if session.State != from {
			return fmt.Errorf("%w: session %d is %s", errState, sessionID, session.State)
		}
		session.State = to
		if err := tx.SetSession(session); err != nil {
			return fmt.Errorf("store session: %w", err)
		}
		return tx.AppendEvent(&types.Event{
			Type:      event,
			SessionID: sessionID,
			Actor:     caller,
			Time:      b.now(),
		})
	})
	if err != nil {
		log.Debugw("rejected transition", "id", sessionID, "caller", caller.Hex(), "to", to.String(), "error", err.Error())
		return err
	}
	b.metrics.stateTransitions.WithLabelValues(to.String()).Inc()
	log.Infow("session state changed", "id", sessionID, "state", to.String())
	return nil
}
