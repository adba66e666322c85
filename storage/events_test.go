package storage

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/arbo/memdb"
	"github.com/vocdoni/blindtest/types"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

func appendEvents(t *testing.T, stg *Storage, n int) {
	for i := 0; i < n; i++ {
		err := stg.Update(func(tx *Tx) error {
			return tx.AppendEvent(&types.Event{
				Type:      types.EventSessionCreated,
				SessionID: uint64(i + 1),
				Actor:     organizer,
				Time:      time.Unix(int64(1700000000+i), 0).UTC(),
			})
		})
		qt.Assert(t, err, qt.IsNil)
	}
}

func TestEventLog(t *testing.T) {
	c := qt.New(t)
	stg, err := New(memdb.New())
	c.Assert(err, qt.IsNil)

	emptyRoot, err := stg.EventRoot()
	c.Assert(err, qt.IsNil)

	appendEvents(t, stg, 5)

	count, err := stg.EventCount()
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(5))

	events, err := stg.Events(0, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(events, qt.HasLen, 5)
	c.Assert(events[0].PrevHash, qt.HasLen, 0)
	for i := 1; i < len(events); i++ {
		c.Assert(events[i].Seq, qt.Equals, uint64(i))
		c.Assert(events[i].PrevHash.Equal(events[i-1].Hash), qt.IsTrue)
	}

	page, err := stg.Events(3, 10)
	c.Assert(err, qt.IsNil)
	c.Assert(page, qt.HasLen, 2)
	page, err = stg.Events(1, 2)
	c.Assert(err, qt.IsNil)
	c.Assert(page, qt.HasLen, 2)
	c.Assert(page[0].Seq, qt.Equals, uint64(1))
	page, err = stg.Events(8, 2)
	c.Assert(err, qt.IsNil)
	c.Assert(page, qt.HasLen, 0)

	c.Assert(stg.VerifyEventChain(), qt.IsNil)

	root, err := stg.EventRoot()
	c.Assert(err, qt.IsNil)
	c.Assert(root.Equal(emptyRoot), qt.IsFalse)

	hash, siblings, err := stg.EventProof(2)
	c.Assert(err, qt.IsNil)
	c.Assert(hash.Equal(events[2].Hash), qt.IsTrue)
	c.Assert(VerifyEventProof(2, hash, root, siblings), qt.IsTrue)
	c.Assert(VerifyEventProof(3, hash, root, siblings), qt.IsFalse)

	_, _, err = stg.EventProof(42)
	c.Assert(err, qt.ErrorIs, ErrNotFound)
}

func TestEventChainTampering(t *testing.T) {
	c := qt.New(t)
	database := memdb.New()
	stg, err := New(database)
	c.Assert(err, qt.IsNil)
	appendEvents(t, stg, 3)

	e, err := stg.Event(1)
	c.Assert(err, qt.IsNil)
	e.SessionID = 99
	data, err := encodeArtifact(e)
	c.Assert(err, qt.IsNil)

	wTx := prefixeddb.NewPrefixedWriteTx(database.WriteTx(), eventPrefix)
	c.Assert(wTx.Set(uint64Key(1), data), qt.IsNil)
	c.Assert(wTx.Commit(), qt.IsNil)

	c.Assert(stg.VerifyEventChain(), qt.ErrorMatches, "event 1: hash mismatch")
}
