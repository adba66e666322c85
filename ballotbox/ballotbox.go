// Package ballotbox is the encrypted ballot aggregation and authorization
// engine. It keeps the session lifecycle, stores at most one encrypted ballot
// per voter and setup, folds every accepted ballot into a running encrypted
// sum and grants the organizer, once and only after closure, the capability to
// decrypt the sums.
//
// Every mutating operation runs in a single storage transaction together with
// the coprocessor writes it triggers, so it either fully commits or leaves no
// trace.
package ballotbox

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vocdoni/blindtest/coprocessor"
	"github.com/vocdoni/blindtest/storage"
	"github.com/vocdoni/blindtest/types"
)

// Self is the principal of the ballot box itself in the coprocessor ACL. It
// holds the capability on every ballot and aggregate ciphertext so they can
// be folded.
var Self = common.BytesToAddress(ethcrypto.Keccak256([]byte("blindtest/ballotbox"))[12:])

// Config holds the optional collaborators of a BallotBox.
type Config struct {
	// Registerer is where the metrics are registered. A private registry is
	// used when nil.
	Registerer prometheus.Registerer
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// BallotBox implements the session registry, ballot store, homomorphic
// aggregator, authorization manager and the public queries over them.
type BallotBox struct {
	stg     *storage.Storage
	cp      *coprocessor.Coprocessor
	now     func() time.Time
	metrics *ballotBoxMetrics
}

// New creates a BallotBox over the given storage and coprocessor.
func New(stg *storage.Storage, cp *coprocessor.Coprocessor, conf *Config) *BallotBox {
	if conf == nil {
		conf = &Config{}
	}
	b := &BallotBox{stg: stg, cp: cp, now: conf.Now}
	if b.now == nil {
		b.now = time.Now
	}
	registerer := conf.Registerer
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	b.initMetrics(registerer)
	return b
}

// Coprocessor returns the coprocessor holding the ballot ciphertexts.
func (b *BallotBox) Coprocessor() *coprocessor.Coprocessor {
	return b.cp
}

// Storage returns the underlying storage.
func (b *BallotBox) Storage() *storage.Storage {
	return b.stg
}

// session loads a committed session translating storage errors.
func (b *BallotBox) session(sessionID uint64) (*types.Session, error) {
	s, err := b.stg.Session(sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

// txSession is session for use inside an Update.
func txSession(tx *storage.Tx, sessionID uint64) (*types.Session, error) {
	s, err := tx.Session(sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

func setupPtr(setup uint8) *uint8 {
	return &setup
}
