package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/blindtest/storage"
)

// DefaultEventsLimit is the page size used when the limit query parameter is
// not set.
const DefaultEventsLimit = 100

// events returns a page of the event log together with the current event
// tree root. The from and limit query parameters select the page.
// GET /events
func (a *API) events(w http.ResponseWriter, r *http.Request) {
	from, err := uintQuery(r, "from", 0)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	limit, err := uintQuery(r, "limit", DefaultEventsLimit)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	stg := a.bb.Storage()
	events, err := stg.Events(from, int(limit))
	if err != nil {
		apiError(err).Write(w)
		return
	}
	count, err := stg.EventCount()
	if err != nil {
		apiError(err).Write(w)
		return
	}
	root, err := stg.EventRoot()
	if err != nil {
		apiError(err).Write(w)
		return
	}
	httpWriteJSON(w, &EventsResponse{Events: events, Count: count, Root: root})
}

// eventProof returns the inclusion proof of an event hash in the event tree.
// GET /events/{seq}/proof
func (a *API) eventProof(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseUint(chi.URLParam(r, SeqURLParam), 10, 64)
	if err != nil {
		ErrMalformedParam.Withf("seq: %v", err).Write(w)
		return
	}
	stg := a.bb.Storage()
	count, err := stg.EventCount()
	if err != nil {
		apiError(err).Write(w)
		return
	}
	if seq >= count {
		ErrEventNotFound.Withf("%d", seq).Write(w)
		return
	}
	hash, siblings, err := stg.EventProof(seq)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ErrEventNotFound.Withf("%d", seq).Write(w)
			return
		}
		apiError(err).Write(w)
		return
	}
	root, err := stg.EventRoot()
	if err != nil {
		apiError(err).Write(w)
		return
	}
	httpWriteJSON(w, &EventProofResponse{
		Seq:      seq,
		Hash:     hash,
		Siblings: siblings,
		Root:     root,
	})
}

// uintQuery parses an optional unsigned query parameter.
func uintQuery(r *http.Request, name string, def uint64) (uint64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, ErrMalformedParam.Withf("%s: %v", name, err)
	}
	return n, nil
}
