package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// SessionState is the lifecycle state of a comparison session.
type SessionState uint8

const (
	// SessionStateDraft is reserved. No public operation leads to it.
	SessionStateDraft SessionState = iota
	SessionStateActive
	SessionStateClosed
	SessionStateRevealed
)

var sessionStateNames = map[SessionState]string{
	SessionStateDraft:    "draft",
	SessionStateActive:   "active",
	SessionStateClosed:   "closed",
	SessionStateRevealed: "revealed",
}

func (s SessionState) String() string {
	if name, ok := sessionStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SessionState) UnmarshalText(data []byte) error {
	for k, v := range sessionStateNames {
		if v == string(data) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", data)
}

// SessionParams holds the organizer supplied values used to create a session.
type SessionParams struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	SetupCount  uint8     `json:"setupCount"`
	SetupNames  []string  `json:"setupNames"`
	TrackList   string    `json:"trackList,omitempty"`
}

// Session is a blind comparison of SetupCount setups. Setup names are stored
// from creation but only disclosed once the session is revealed.
type Session struct {
	ID          uint64         `json:"id"          cbor:"0,keyasint,omitempty"`
	Organizer   common.Address `json:"organizer"   cbor:"1,keyasint,omitempty"`
	Title       string         `json:"title"       cbor:"2,keyasint,omitempty"`
	Description string         `json:"description" cbor:"3,keyasint,omitempty"`
	Deadline    time.Time      `json:"deadline"    cbor:"4,keyasint,omitempty"`
	State       SessionState   `json:"state"       cbor:"5,keyasint,omitempty"`
	SetupCount  uint8          `json:"setupCount"  cbor:"6,keyasint,omitempty"`
	SetupNames  []string       `json:"-"           cbor:"7,keyasint,omitempty"`
	TrackList   string         `json:"trackList"   cbor:"8,keyasint,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"   cbor:"9,keyasint,omitempty"`
}

func (s *Session) String() string {
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(data)
}

// ValidSetup reports whether idx addresses one of the session setups.
func (s *Session) ValidSetup(idx uint8) bool {
	return idx < s.SetupCount
}

// IsOrganizer reports whether addr created the session.
func (s *Session) IsOrganizer(addr common.Address) bool {
	return s.Organizer == addr
}
