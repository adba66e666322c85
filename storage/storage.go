// storage package contains all the artifacts of the ballot box that are stored
// in the database. It wraps a prefixed key-value store and exposes
// serializable write transactions through Update. The following prefixes are
// used:
//   - 's/' for sessions
//   - 'b/' for ballots (sessionID|setup|voter)
//   - 'a/' for aggregates (sessionID|setup)
//   - 'g/' for decryption grants
//   - 'm/' for counters and the event log head
//   - 'e/' for events
//   - 'et/' for the event log merkle tree
//   - 'cp/' is reserved for the coprocessor
package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vocdoni/arbo"
	"github.com/vocdoni/blindtest/log"
	"github.com/vocdoni/blindtest/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

var (
	// Prefixes for the keys in the database.
	sessionPrefix   = []byte("s/")
	ballotPrefix    = []byte("b/")
	aggregatePrefix = []byte("a/")
	grantPrefix     = []byte("g/")
	metaPrefix      = []byte("m/")
	eventPrefix     = []byte("e/")
	eventTreePrefix = []byte("et/")
	// CoprocessorPrefix is the key prefix owned by the coprocessor.
	CoprocessorPrefix = []byte("cp/")

	// Keys under metaPrefix.
	sessionCounterKey = []byte("sessions")
	eventHeadKey      = []byte("eventHead")
)

var (
	// ErrNotFound is returned when the requested artifact does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInconsistentAggregate is returned when an aggregate vote count does
	// not match the ballots stored for its setup.
	ErrInconsistentAggregate = errors.New("aggregate count does not match ballots")
)

// eventTreeHashFunction is the hash function of the event log merkle tree.
var eventTreeHashFunction = arbo.HashFunctionSha256

// Storage is the repository of sessions, ballots, aggregates, decryption
// grants and the event log. All writes go through Update, which serializes
// them with a global lock.
type Storage struct {
	db         db.Database
	globalLock sync.Mutex
	eventTree  *arbo.Tree
}

// New creates a new Storage instance over the given database.
func New(database db.Database) (*Storage, error) {
	tree, err := arbo.NewTree(arbo.Config{
		Database:     prefixeddb.NewPrefixedDatabase(database, eventTreePrefix),
		MaxLevels:    types.EventTreeMaxLevels,
		HashFunction: eventTreeHashFunction,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open event tree: %w", err)
	}
	return &Storage{db: database, eventTree: tree}, nil
}

// Close closes the storage.
func (s *Storage) Close() {
	if err := s.db.Close(); err != nil {
		log.Warnw("failed to close storage", "error", err.Error())
	}
}

// Update runs fn inside a single write transaction while holding the global
// lock. The transaction is committed only if fn returns nil, otherwise every
// write done by fn is discarded.
func (s *Storage) Update(fn func(tx *Tx) error) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	wTx := s.db.WriteTx()
	defer wTx.Discard()

	tx := &Tx{s: s, wTx: wTx}
	if err := fn(tx); err != nil {
		return err
	}
	if err := wTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
