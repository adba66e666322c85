package client

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/blindtest/api"
	"github.com/vocdoni/blindtest/ballotbox"
	"github.com/vocdoni/blindtest/coprocessor"
	"github.com/vocdoni/blindtest/crypto/elgamal"
	"github.com/vocdoni/blindtest/crypto/ethereum"
	"github.com/vocdoni/blindtest/types"
	"go.vocdoni.io/dvote/util"
)

// SignRequest encodes payload and signs it for action with the given keys,
// the current time and a fresh nonce.
func SignRequest(signer *ethereum.SignKeys, action string, payload any) (*api.SignedRequest, error) {
	return SignRequestAt(signer, action, payload, time.Now())
}

// SignRequestAt is SignRequest with an explicit timestamp.
func SignRequestAt(signer *ethereum.SignKeys, action string, payload any, at time.Time) (*api.SignedRequest, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	req := &api.SignedRequest{
		Payload:   data,
		Timestamp: at.Unix(),
		Nonce:     util.RandomBytes(api.NonceSize),
	}
	req.Signature, err = signer.SignEthereum(api.SignedMessage(action, req.Timestamp, req.Nonce, data))
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s: %w", action, err)
	}
	return req, nil
}

// signedCall signs payload for action and posts it.
func (c *HTTPclient) signedCall(signer *ethereum.SignKeys, action string, payload, out any, urlPath ...string) error {
	req, err := SignRequest(signer, action, payload)
	if err != nil {
		return err
	}
	return c.call(HTTPPOST, req, out, nil, urlPath...)
}

func sessionPath(endpoint string, sessionID uint64) string {
	return api.EndpointWithParam(endpoint, api.SessionURLParam, strconv.FormatUint(sessionID, 10))
}

func setupPath(endpoint string, sessionID uint64, setup uint8) string {
	return api.EndpointWithParam(sessionPath(endpoint, sessionID), api.SetupURLParam, strconv.FormatUint(uint64(setup), 10))
}

// Info returns the network public key and the engine address.
func (c *HTTPclient) Info() (*api.InfoResponse, error) {
	info := &api.InfoResponse{}
	return info, c.call(HTTPGET, nil, info, nil, api.InfoEndpoint)
}

// CreateSession creates a session organized by signer.
func (c *HTTPclient) CreateSession(signer *ethereum.SignKeys, params *types.SessionParams) (uint64, error) {
	resp := &api.NewSessionResponse{}
	if err := c.signedCall(signer, api.ActionCreateSession, params, resp, api.SessionsEndpoint); err != nil {
		return 0, err
	}
	return resp.SessionID, nil
}

// Session returns the public view of a session.
func (c *HTTPclient) Session(sessionID uint64) (*api.SessionResponse, error) {
	resp := &api.SessionResponse{}
	return resp, c.call(HTTPGET, nil, resp, nil, sessionPath(api.SessionEndpoint, sessionID))
}

// SetupNames returns the setup names of a revealed session.
func (c *HTTPclient) SetupNames(sessionID uint64) ([]string, error) {
	resp := &api.SetupNamesResponse{}
	if err := c.call(HTTPGET, nil, resp, nil, sessionPath(api.SessionNamesEndpoint, sessionID)); err != nil {
		return nil, err
	}
	return resp.Names, nil
}

// CloseSession closes a session on behalf of its organizer.
func (c *HTTPclient) CloseSession(signer *ethereum.SignKeys, sessionID uint64) error {
	return c.signedCall(signer, api.ActionCloseSession, &api.SessionRequest{SessionID: sessionID}, nil,
		sessionPath(api.SessionCloseEndpoint, sessionID))
}

// RevealSession reveals a session on behalf of its organizer.
func (c *HTTPclient) RevealSession(signer *ethereum.SignKeys, sessionID uint64) error {
	return c.signedCall(signer, api.ActionRevealSession, &api.SessionRequest{SessionID: sessionID}, nil,
		sessionPath(api.SessionRevealEndpoint, sessionID))
}

// RequestDecryption grants the organizer the capability on the aggregates of
// a closed session.
func (c *HTTPclient) RequestDecryption(signer *ethereum.SignKeys, sessionID uint64) (*types.DecryptionGrant, error) {
	resp := &api.DecryptionResponse{}
	if err := c.signedCall(signer, api.ActionRequestDecryption, &api.SessionRequest{SessionID: sessionID}, resp,
		sessionPath(api.SessionDecryptionEndpoint, sessionID)); err != nil {
		return nil, err
	}
	return resp.Grant, nil
}

// Vote encrypts a rating and tags to the network key and submits them on
// behalf of signer.
func (c *HTTPclient) Vote(signer *ethereum.SignKeys, sessionID uint64, setup uint8, rating uint64, tags [types.NumTags]bool) error {
	info, err := c.Info()
	if err != nil {
		return err
	}
	networkKey, err := coprocessor.ParsePublicKey(info.NetworkPublicKey)
	if err != nil {
		return err
	}
	eb, err := ballotbox.EncryptBallot(networkKey, signer.Address(), rating, tags)
	if err != nil {
		return err
	}
	return c.SubmitBallot(signer, sessionID, setup, eb)
}

// SubmitBallot submits an already encrypted ballot on behalf of signer.
func (c *HTTPclient) SubmitBallot(signer *ethereum.SignKeys, sessionID uint64, setup uint8, eb *ballotbox.EncryptedBallot) error {
	req := &api.SubmitBallotRequest{SessionID: sessionID, Setup: setup, Ballot: eb}
	return c.signedCall(signer, api.ActionSubmitBallot, req, nil, sessionPath(api.BallotsEndpoint, sessionID))
}

// HasVoted reports whether voter voted for a setup.
func (c *HTTPclient) HasVoted(sessionID uint64, setup uint8, voter common.Address) (bool, error) {
	resp := &api.HasVotedResponse{}
	path := api.EndpointWithParam(setupPath(api.VoterEndpoint, sessionID, setup), api.AddressURLParam, voter.Hex())
	if err := c.call(HTTPGET, nil, resp, nil, path); err != nil {
		return false, err
	}
	return resp.Voted, nil
}

// OwnBallot returns the ballot handles of signer.
func (c *HTTPclient) OwnBallot(signer *ethereum.SignKeys, sessionID uint64, setup uint8) (*types.Ballot, error) {
	ballot := &types.Ballot{}
	req := &api.SetupRequest{SessionID: sessionID, Setup: setup}
	return ballot, c.signedCall(signer, api.ActionOwnBallot, req, ballot, setupPath(api.OwnBallotEndpoint, sessionID, setup))
}

// Aggregate returns the encrypted running totals of a setup.
func (c *HTTPclient) Aggregate(sessionID uint64, setup uint8) (*types.Aggregate, error) {
	agg := &types.Aggregate{}
	return agg, c.call(HTTPGET, nil, agg, nil, setupPath(api.AggregateEndpoint, sessionID, setup))
}

// Decrypt asks the engine to re-encrypt handle under a fresh key and decrypts
// the result locally. The signer must hold the capability on handle.
func (c *HTTPclient) Decrypt(signer *ethereum.SignKeys, handle types.HexBytes, maxValue uint64) (*big.Int, error) {
	pub, priv, err := elgamal.GenerateKey()
	if err != nil {
		return nil, err
	}
	pubBytes := pub.Compress()
	resp := &api.ReencryptResponse{}
	req := &api.ReencryptRequest{Handle: handle, PublicKey: pubBytes[:]}
	if err := c.signedCall(signer, api.ActionReencrypt, req, resp, api.ReencryptEndpoint); err != nil {
		return nil, err
	}
	return elgamal.Decrypt(priv, resp.Ciphertext, maxValue)
}

// Events returns a page of the event log.
func (c *HTTPclient) Events(from uint64, limit int) (*api.EventsResponse, error) {
	resp := &api.EventsResponse{}
	params := []string{"from", strconv.FormatUint(from, 10), "limit", strconv.Itoa(limit)}
	return resp, c.call(HTTPGET, nil, resp, params, api.EventsEndpoint)
}

// EventProof returns the inclusion proof of an event.
func (c *HTTPclient) EventProof(seq uint64) (*api.EventProofResponse, error) {
	resp := &api.EventProofResponse{}
	path := api.EndpointWithParam(api.EventProofEndpoint, api.SeqURLParam, strconv.FormatUint(seq, 10))
	return resp, c.call(HTTPGET, nil, resp, nil, path)
}
