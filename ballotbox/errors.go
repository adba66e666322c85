package ballotbox

import "errors"

// Errors returned by the ballot box. Every failed operation returns one of
// them, possibly wrapped, and leaves the stored state untouched.
var (
	// Session creation.
	ErrInvalidDeadline   = errors.New("deadline must be in the future")
	ErrInvalidSetupCount = errors.New("setup count out of range")
	ErrNameCountMismatch = errors.New("setup names do not match setup count")

	// Ballot submission.
	ErrSessionNotActive  = errors.New("session is not active")
	ErrDeadlinePassed    = errors.New("session deadline has passed")
	ErrInvalidSetupIndex = errors.New("invalid setup index")
	ErrDuplicateVote     = errors.New("voter already voted for this setup")
	ErrInvalidInput      = errors.New("invalid encrypted input")

	// Lifecycle transitions.
	ErrNotOrganizer = errors.New("caller is not the session organizer")
	ErrNotActive    = errors.New("session is not active")
	ErrNotClosed    = errors.New("session is not closed")

	// Decryption authorization.
	ErrAlreadyRequested = errors.New("decryption already requested")

	// Queries.
	ErrForbidden       = errors.New("caller cannot read this ballot")
	ErrNotFound        = errors.New("ballot not found")
	ErrNotRevealed     = errors.New("setup names are not revealed yet")
	ErrSessionNotFound = errors.New("session not found")
)
