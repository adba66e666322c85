package api

import (
	"net/http"

	"github.com/vocdoni/blindtest/ballotbox"
	"github.com/vocdoni/blindtest/types"
)

// info returns the network public key and the engine address.
// GET /info
func (a *API) info(w http.ResponseWriter, r *http.Request) {
	pub := a.bb.Coprocessor().PublicKey().Compress()
	httpWriteJSON(w, &InfoResponse{
		NetworkPublicKey: pub[:],
		EngineAddress:    ballotbox.Self,
		MaxDecryptValue:  a.maxDecryptValue,
	})
}

// newSession creates a session organized by the signer.
// POST /sessions
func (a *API) newSession(w http.ResponseWriter, r *http.Request) {
	params := &types.SessionParams{}
	organizer, err := a.decodeSigned(r, ActionCreateSession, params)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	id, err := a.bb.CreateSession(organizer, params)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	httpWriteJSON(w, &NewSessionResponse{SessionID: id})
}

// sessions lists every session.
// GET /sessions
func (a *API) sessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.bb.Sessions()
	if err != nil {
		apiError(err).Write(w)
		return
	}
	httpWriteJSON(w, &SessionsResponse{Sessions: sessions})
}

// session returns the public view of a session.
// GET /sessions/{sessionId}
func (a *API) session(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	session, err := a.bb.Session(id)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	counts, err := a.bb.VoteCounts(id)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	requested, err := a.bb.IsRequested(id)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	httpWriteJSON(w, &SessionResponse{
		Session:             session,
		VoteCounts:          counts,
		DecryptionRequested: requested,
	})
}

// setupNames returns the setup names of a revealed session.
// GET /sessions/{sessionId}/names
func (a *API) setupNames(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	names, err := a.bb.SetupNames(id)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	httpWriteJSON(w, &SetupNamesResponse{Names: names})
}

// closeSession closes an active session. Only the organizer can sign it.
// POST /sessions/{sessionId}/close
func (a *API) closeSession(w http.ResponseWriter, r *http.Request) {
	id, caller, err := a.signedSessionRequest(r, ActionCloseSession)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	if err := a.bb.CloseSession(id, caller); err != nil {
		apiError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// revealSession reveals the setup names of a closed session. Only the
// organizer can sign it.
// POST /sessions/{sessionId}/reveal
func (a *API) revealSession(w http.ResponseWriter, r *http.Request) {
	id, caller, err := a.signedSessionRequest(r, ActionRevealSession)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	if err := a.bb.RevealSession(id, caller); err != nil {
		apiError(err).Write(w)
		return
	}
	httpWriteOK(w)
}
