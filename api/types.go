package api

import (
	"encoding/json"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/blindtest/ballotbox"
	"github.com/vocdoni/blindtest/coprocessor"
	"github.com/vocdoni/blindtest/crypto/elgamal"
	"github.com/vocdoni/blindtest/types"
)

// SignedRequest wraps the JSON payload of every mutating or private request
// together with the EIP-191 signature of SignedMessage. The recovered address
// is the caller principal. Timestamp is in unix seconds and, with the nonce,
// keeps a captured request from being accepted twice.
type SignedRequest struct {
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
	Nonce     types.HexBytes  `json:"nonce"`
	Signature types.HexBytes  `json:"signature"`
}

// SignedMessage returns the message signed for action over the timestamp, the
// nonce and the raw payload, as "action:timestamp:nonce:payload".
func SignedMessage(action string, timestamp int64, nonce, payload []byte) []byte {
	msg := make([]byte, 0, len(action)+len(payload)+2*len(nonce)+24)
	msg = append(msg, action...)
	msg = append(msg, ':')
	msg = strconv.AppendInt(msg, timestamp, 10)
	msg = append(msg, ':')
	msg = append(msg, types.HexBytes(nonce).String()...)
	msg = append(msg, ':')
	return append(msg, payload...)
}

// InfoResponse describes the cryptographic parameters clients need.
type InfoResponse struct {
	NetworkPublicKey types.HexBytes `json:"networkPublicKey"`
	EngineAddress    common.Address `json:"engineAddress"`
	MaxDecryptValue  uint64         `json:"maxDecryptValue"`
}

// NewSessionResponse is the response to a session creation.
type NewSessionResponse struct {
	SessionID uint64 `json:"sessionId"`
}

// SessionRequest is the payload of the requests acting on a whole session.
type SessionRequest struct {
	SessionID uint64 `json:"sessionId"`
}

// SessionResponse is the public view of a session.
type SessionResponse struct {
	*types.Session
	VoteCounts          []uint64 `json:"voteCounts"`
	DecryptionRequested bool     `json:"decryptionRequested"`
}

// SessionsResponse lists sessions.
type SessionsResponse struct {
	Sessions []*types.Session `json:"sessions"`
}

// SetupNamesResponse holds the setup names of a revealed session.
type SetupNamesResponse struct {
	Names []string `json:"names"`
}

// DecryptionResponse reports the organizer decryption grant of a session.
type DecryptionResponse struct {
	Requested bool                   `json:"requested"`
	Grant     *types.DecryptionGrant `json:"grant,omitempty"`
}

// SubmitBallotRequest is the payload of a ballot submission.
type SubmitBallotRequest struct {
	SessionID uint64                     `json:"sessionId"`
	Setup     uint8                      `json:"setup"`
	Ballot    *ballotbox.EncryptedBallot `json:"ballot"`
}

// SetupRequest is the payload of the requests acting on one setup.
type SetupRequest struct {
	SessionID uint64 `json:"sessionId"`
	Setup     uint8  `json:"setup"`
}

// HasVotedResponse reports whether an address voted.
type HasVotedResponse struct {
	Voted bool `json:"voted"`
}

// ReencryptRequest asks to re-encrypt the value behind Handle under PublicKey,
// a compressed BabyJubJub point owned by the signer.
type ReencryptRequest struct {
	Handle    types.HexBytes `json:"handle"`
	PublicKey types.HexBytes `json:"publicKey"`
}

// ReencryptResponse holds the re-encrypted value.
type ReencryptResponse struct {
	Handle     types.HexBytes      `json:"handle"`
	Kind       coprocessor.Kind    `json:"kind"`
	Ciphertext *elgamal.Ciphertext `json:"ciphertext"`
}

// EventsResponse is a page of the event log.
type EventsResponse struct {
	Events []*types.Event `json:"events"`
	Count  uint64         `json:"count"`
	Root   types.HexBytes `json:"root"`
}

// EventProofResponse proves the inclusion of an event hash in the event tree.
type EventProofResponse struct {
	Seq      uint64         `json:"seq"`
	Hash     types.HexBytes `json:"hash"`
	Siblings types.HexBytes `json:"siblings"`
	Root     types.HexBytes `json:"root"`
}
