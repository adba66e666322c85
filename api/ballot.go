package api

import (
	"net/http"
)

// submitBallot submits the signer's encrypted ballot for one setup.
// POST /sessions/{sessionId}/ballots
func (a *API) submitBallot(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	req := &SubmitBallotRequest{}
	voter, err := a.decodeSigned(r, ActionSubmitBallot, req)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	if req.SessionID != id {
		ErrSessionMismatch.Withf("signed %d, requested %d", req.SessionID, id).Write(w)
		return
	}
	if req.Ballot == nil {
		ErrInvalidBallot.With("missing ballot").Write(w)
		return
	}
	if err := a.bb.Submit(id, req.Setup, voter, req.Ballot); err != nil {
		apiError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// hasVoted reports whether an address voted for a setup.
// GET /sessions/{sessionId}/setups/{setup}/voters/{address}
func (a *API) hasVoted(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	setup, err := setupParam(r)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	voter, err := addressParam(r)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	voted, err := a.bb.HasVoted(id, setup, voter)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	httpWriteJSON(w, &HasVotedResponse{Voted: voted})
}

// ownBallot returns the ballot handles of the signer. The request must be
// signed by the voter.
// POST /sessions/{sessionId}/setups/{setup}/ballot
func (a *API) ownBallot(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	setup, err := setupParam(r)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	req := &SetupRequest{}
	caller, err := a.decodeSigned(r, ActionOwnBallot, req)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	if req.SessionID != id || req.Setup != setup {
		ErrSessionMismatch.Withf("signed %d/%d, requested %d/%d", req.SessionID, req.Setup, id, setup).Write(w)
		return
	}
	ballot, err := a.bb.OwnBallot(id, setup, caller, caller)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	httpWriteJSON(w, ballot)
}

// aggregate returns the encrypted running totals and the vote count of a
// setup.
// GET /sessions/{sessionId}/setups/{setup}/aggregate
func (a *API) aggregate(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	setup, err := setupParam(r)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	agg, err := a.bb.Aggregate(id, setup)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	httpWriteJSON(w, agg)
}
