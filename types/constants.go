package types

const (
	// NumTags is the number of encrypted boolean tags attached to every ballot.
	NumTags = 5
	// MinSetups is the minimum number of setups compared in a session.
	MinSetups = 2
	// MaxSetups is the maximum number of setups compared in a session.
	MaxSetups = 10
	// EventTreeMaxLevels is the maximum number of levels in the event log
	// merkle tree.
	EventTreeMaxLevels = 64
)
