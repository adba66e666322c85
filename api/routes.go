package api

import "strings"

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// InfoEndpoint returns the coprocessor network key and the engine address
	InfoEndpoint = "/info"
	// MetricsEndpoint exposes the prometheus metrics
	MetricsEndpoint = "/metrics"

	// SessionURLParam is the URL parameter holding a session id
	SessionURLParam = "sessionId"
	// SetupURLParam is the URL parameter holding a setup index
	SetupURLParam = "setup"
	// AddressURLParam is the URL parameter holding a voter address
	AddressURLParam = "address"
	// SeqURLParam is the URL parameter holding an event sequence number
	SeqURLParam = "seq"

	// SessionsEndpoint creates (POST) and lists (GET) sessions
	SessionsEndpoint = "/sessions"
	// SessionEndpoint returns the session metadata
	SessionEndpoint = "/sessions/{" + SessionURLParam + "}"
	// SessionNamesEndpoint returns the setup names of a revealed session
	SessionNamesEndpoint = SessionEndpoint + "/names"
	// SessionCloseEndpoint closes an active session
	SessionCloseEndpoint = SessionEndpoint + "/close"
	// SessionRevealEndpoint reveals a closed session
	SessionRevealEndpoint = SessionEndpoint + "/reveal"
	// SessionDecryptionEndpoint requests (POST) and reads (GET) the organizer
	// decryption grant
	SessionDecryptionEndpoint = SessionEndpoint + "/decryption"
	// BallotsEndpoint submits a ballot
	BallotsEndpoint = SessionEndpoint + "/ballots"
	// SetupEndpoint is the base path of the per setup endpoints
	SetupEndpoint = SessionEndpoint + "/setups/{" + SetupURLParam + "}"
	// VoterEndpoint reports whether an address voted for a setup
	VoterEndpoint = SetupEndpoint + "/voters/{" + AddressURLParam + "}"
	// OwnBallotEndpoint returns the ballot handles of the signer
	OwnBallotEndpoint = SetupEndpoint + "/ballot"
	// AggregateEndpoint returns the aggregate handles and vote count of a setup
	AggregateEndpoint = SetupEndpoint + "/aggregate"

	// ReencryptEndpoint re-encrypts a ciphertext the signer is allowed on
	ReencryptEndpoint = "/reencrypt"
	// EventsEndpoint returns a page of the event log and its root
	EventsEndpoint = "/events"
	// EventProofEndpoint returns the inclusion proof of an event
	EventProofEndpoint = "/events/{" + SeqURLParam + "}/proof"
)

// Actions signed by the clients. The signed message is the action, a colon
// and the raw JSON payload.
const (
	ActionCreateSession     = "createSession"
	ActionCloseSession      = "closeSession"
	ActionRevealSession     = "revealSession"
	ActionRequestDecryption = "requestDecryption"
	ActionSubmitBallot      = "submitBallot"
	ActionOwnBallot         = "ownBallot"
	ActionReencrypt         = "reencrypt"
)

// EndpointWithParam replaces the given URL parameter of an endpoint pattern
// with value.
func EndpointWithParam(endpoint, param, value string) string {
	return strings.Replace(endpoint, "{"+param+"}", value, 1)
}
