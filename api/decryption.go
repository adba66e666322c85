package api

import (
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/blindtest/ballotbox"
)

// signedSessionRequest decodes a SessionRequest signed for action and checks
// it targets the session of the URL.
func (a *API) signedSessionRequest(r *http.Request, action string) (uint64, common.Address, error) {
	id, err := sessionIDParam(r)
	if err != nil {
		return 0, common.Address{}, err
	}
	req := &SessionRequest{}
	caller, err := a.decodeSigned(r, action, req)
	if err != nil {
		return 0, common.Address{}, err
	}
	if req.SessionID != id {
		return 0, common.Address{}, ErrSessionMismatch.Withf("signed %d, requested %d", req.SessionID, id)
	}
	return id, caller, nil
}

// requestDecryption grants the organizer the capability to decrypt the
// aggregates of a closed session. It can succeed only once per session.
// POST /sessions/{sessionId}/decryption
func (a *API) requestDecryption(w http.ResponseWriter, r *http.Request) {
	id, caller, err := a.signedSessionRequest(r, ActionRequestDecryption)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	grant, err := a.bb.RequestOrganizerDecryption(id, caller)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	httpWriteJSON(w, &DecryptionResponse{Requested: true, Grant: grant})
}

// decryption reports whether the organizer decryption was requested and the
// granted handles.
// GET /sessions/{sessionId}/decryption
func (a *API) decryption(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	grant, err := a.bb.DecryptionGrant(id)
	if err != nil {
		if errors.Is(err, ballotbox.ErrNotFound) {
			httpWriteJSON(w, &DecryptionResponse{Requested: false})
			return
		}
		apiError(err).Write(w)
		return
	}
	httpWriteJSON(w, &DecryptionResponse{Requested: grant.Requested, Grant: grant})
}
