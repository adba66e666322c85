package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventType identifies the operation recorded by an Event.
type EventType string

const (
	EventSessionCreated    EventType = "sessionCreated"
	EventSessionClosed     EventType = "sessionClosed"
	EventSessionRevealed   EventType = "sessionRevealed"
	EventBallotSubmitted   EventType = "ballotSubmitted"
	EventDecryptionGranted EventType = "decryptionGranted"
)

// Event is an entry of the append-only event log. Hash chains every event to
// its predecessor.
type Event struct {
	Seq       uint64         `json:"seq"       cbor:"0,keyasint,omitempty"`
	Type      EventType      `json:"type"      cbor:"1,keyasint,omitempty"`
	SessionID uint64         `json:"sessionId" cbor:"2,keyasint,omitempty"`
	Setup     *uint8         `json:"setup,omitempty" cbor:"3,keyasint,omitempty"`
	Actor     common.Address `json:"actor"     cbor:"4,keyasint,omitempty"`
	Time      time.Time      `json:"time"      cbor:"5,keyasint,omitempty"`
	PrevHash  HexBytes       `json:"prevHash"  cbor:"6,keyasint,omitempty"`
	Hash      HexBytes       `json:"hash"      cbor:"7,keyasint,omitempty"`
}
