package api

import (
	"net/http"

	"github.com/vocdoni/blindtest/coprocessor"
)

// reencrypt returns the value behind a handle encrypted under the public key
// of the signer, provided the signer holds the capability on the handle.
// This is the only way to learn a plaintext.
// POST /reencrypt
func (a *API) reencrypt(w http.ResponseWriter, r *http.Request) {
	req := &ReencryptRequest{}
	caller, err := a.decodeSigned(r, ActionReencrypt, req)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	if len(req.Handle) != coprocessor.HandleSize {
		ErrMalformedParam.Withf("handle length %d", len(req.Handle)).Write(w)
		return
	}
	pub, err := coprocessor.ParsePublicKey(req.PublicKey)
	if err != nil {
		ErrMalformedPublicKey.WithErr(err).Write(w)
		return
	}
	ct, kind, err := a.bb.Coprocessor().Reencrypt(req.Handle, caller, pub)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	httpWriteJSON(w, &ReencryptResponse{
		Handle:     req.Handle,
		Kind:       kind,
		Ciphertext: ct,
	})
}
