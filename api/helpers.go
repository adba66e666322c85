package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/blindtest/crypto/ethereum"
	"github.com/vocdoni/blindtest/log"
)

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	n, err := w.Write(jdata)
	if err != nil {
		log.Warnw("failed to write http response", "error", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
	log.Debugw("api response", "bytes", n, "data", strings.ReplaceAll(string(jdata), "\"", ""))
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// sessionIDParam parses the session id URL parameter.
func sessionIDParam(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, SessionURLParam), 10, 64)
	if err != nil {
		return 0, ErrMalformedSessionID.WithErr(err)
	}
	return id, nil
}

// setupParam parses the setup index URL parameter.
func setupParam(r *http.Request) (uint8, error) {
	setup, err := strconv.ParseUint(chi.URLParam(r, SetupURLParam), 10, 8)
	if err != nil {
		return 0, ErrMalformedParam.Withf("setup: %v", err)
	}
	return uint8(setup), nil
}

// addressParam parses the address URL parameter.
func addressParam(r *http.Request) (common.Address, error) {
	addr := chi.URLParam(r, AddressURLParam)
	if !common.IsHexAddress(addr) {
		return common.Address{}, ErrMalformedParam.Withf("address: %q", addr)
	}
	return common.HexToAddress(addr), nil
}

// decodeSigned reads a SignedRequest from the request body, recovers the
// signer of the given action, rejects stale or replayed requests and decodes
// the payload into out.
func (a *API) decodeSigned(r *http.Request, action string, out any) (common.Address, error) {
	req := &SignedRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return common.Address{}, ErrMalformedBody.WithErr(err)
	}
	if len(req.Payload) == 0 {
		return common.Address{}, ErrMalformedBody.With("missing payload")
	}
	signer, err := ethereum.AddrFromSignature(SignedMessage(action, req.Timestamp, req.Nonce, req.Payload), req.Signature)
	if err != nil {
		return common.Address{}, ErrInvalidSignature.WithErr(err)
	}
	if err := a.replay.check(signer, req.Timestamp, req.Nonce); err != nil {
		return common.Address{}, err
	}
	if err := json.Unmarshal(req.Payload, out); err != nil {
		return common.Address{}, ErrMalformedBody.WithErr(err)
	}
	return signer, nil
}
