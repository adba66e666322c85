//nolint:lll
package api

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400, 403, 404 or 409, whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX
// If you notice there's a gap (say, error code 4010, 4011 and 4013 exist, 4012 is missing) DON'T fill in the gap,
// that code was used in the past for some error (not anymore) and shouldn't be reused.
// There's no correlation between Code and HTTP Status.
var (
	ErrResourceNotFound   = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody      = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrInvalidSignature   = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid signature")}
	ErrMalformedSessionID = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed session ID")}
	ErrSessionNotFound    = Error{Code: 40007, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("session not found")}
	ErrInvalidDeadline    = Error{Code: 40008, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("deadline must be in the future")}
	ErrInvalidSetupCount  = Error{Code: 40009, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("setup count out of range")}
	ErrNameCountMismatch  = Error{Code: 40010, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("setup names do not match setup count")}
	ErrSessionNotActive   = Error{Code: 40011, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("session is not active")}
	ErrDeadlinePassed     = Error{Code: 40012, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("session deadline has passed")}
	ErrInvalidSetupIndex  = Error{Code: 40013, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid setup index")}
	ErrDuplicateVote      = Error{Code: 40014, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("voter already voted for this setup")}
	ErrInvalidBallot      = Error{Code: 40015, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid encrypted ballot")}
	ErrNotOrganizer       = Error{Code: 40016, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("caller is not the session organizer")}
	ErrNotActive          = Error{Code: 40017, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("session is not active")}
	ErrNotClosed          = Error{Code: 40018, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("session is not closed")}
	ErrAlreadyRequested   = Error{Code: 40019, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("decryption already requested")}
	ErrForbidden          = Error{Code: 40020, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("caller cannot read this ballot")}
	ErrBallotNotFound     = Error{Code: 40021, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("ballot not found")}
	ErrNotRevealed        = Error{Code: 40022, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("setup names are not revealed yet")}
	ErrNotAllowed         = Error{Code: 40023, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("caller not allowed on ciphertext")}
	ErrCiphertextNotFound = Error{Code: 40024, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("ciphertext not found")}
	ErrMalformedParam     = Error{Code: 40025, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed parameter")}
	ErrSessionMismatch    = Error{Code: 40026, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("signed session does not match URL")}
	ErrMalformedPublicKey = Error{Code: 40027, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed public key")}
	ErrEventNotFound      = Error{Code: 40028, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("event not found")}
	ErrStaleRequest       = Error{Code: 40029, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("signed request timestamp outside the accepted window")}
	ErrReplayedRequest    = Error{Code: 40030, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("signed request nonce already used")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
	ErrServerBusy                 = Error{Code: 50003, HTTPstatus: http.StatusServiceUnavailable, Err: fmt.Errorf("too many signed requests in flight, retry later")}
)
