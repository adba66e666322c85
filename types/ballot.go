package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Tags is the fixed size vector of encrypted boolean tag handles.
type Tags [NumTags]HexBytes

// Ballot is one voter's encrypted rating and tag vector for one setup of a
// session. The ciphertexts are referenced by coprocessor handles.
type Ballot struct {
	SessionID   uint64         `json:"sessionId"   cbor:"0,keyasint,omitempty"`
	Setup       uint8          `json:"setup"       cbor:"1,keyasint,omitempty"`
	Voter       common.Address `json:"voter"       cbor:"2,keyasint,omitempty"`
	Rating      HexBytes       `json:"rating"      cbor:"3,keyasint,omitempty"`
	Tags        Tags           `json:"tags"        cbor:"4,keyasint,omitempty"`
	Submitted   bool           `json:"submitted"   cbor:"5,keyasint,omitempty"`
	SubmittedAt time.Time      `json:"submittedAt" cbor:"6,keyasint,omitempty"`
}

// Aggregate is the running encrypted sum over every ballot folded for one
// setup of a session.
type Aggregate struct {
	SessionID uint64   `json:"sessionId" cbor:"0,keyasint,omitempty"`
	Setup     uint8    `json:"setup"     cbor:"1,keyasint,omitempty"`
	RatingSum HexBytes `json:"ratingSum" cbor:"2,keyasint,omitempty"`
	TagSums   Tags     `json:"tagSums"   cbor:"3,keyasint,omitempty"`
	Count     uint64   `json:"voteCount" cbor:"4,keyasint,omitempty"`
}

// Handles returns the six running total handles: the rating sum followed by
// the tag sums.
func (a *Aggregate) Handles() []HexBytes {
	hs := make([]HexBytes, 0, NumTags+1)
	hs = append(hs, a.RatingSum)
	return append(hs, a.TagSums[:]...)
}

// DecryptionGrant records the one-shot authorization of the organizer to
// decrypt the aggregates of a closed session.
type DecryptionGrant struct {
	SessionID uint64         `json:"sessionId" cbor:"0,keyasint,omitempty"`
	Requested bool           `json:"requested" cbor:"1,keyasint,omitempty"`
	Grantee   common.Address `json:"grantee"   cbor:"2,keyasint,omitempty"`
	Handles   []HexBytes     `json:"handles"   cbor:"3,keyasint,omitempty"`
	GrantedAt time.Time      `json:"grantedAt" cbor:"4,keyasint,omitempty"`
}
