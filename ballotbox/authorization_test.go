package ballotbox

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/blindtest/coprocessor"
	"github.com/vocdoni/blindtest/types"
)

func TestRequestOrganizerDecryption(t *testing.T) {
	c := qt.New(t)
	tb := newTestBox(t)
	id := tb.newSession(t)
	c.Assert(tb.Submit(id, 1, voter1, tb.ballot(t, voter1, 5, tags(1))), qt.IsNil)

	_, err := tb.RequestOrganizerDecryption(id, organizer)
	c.Assert(err, qt.ErrorIs, ErrNotClosed)
	_, err = tb.RequestOrganizerDecryption(id, voter1)
	c.Assert(err, qt.ErrorIs, ErrNotOrganizer)
	_, err = tb.RequestOrganizerDecryption(99, organizer)
	c.Assert(err, qt.ErrorIs, ErrSessionNotFound)

	requested, err := tb.IsRequested(id)
	c.Assert(err, qt.IsNil)
	c.Assert(requested, qt.IsFalse)
	_, err = tb.DecryptionGrant(id)
	c.Assert(err, qt.ErrorIs, ErrNotFound)

	c.Assert(tb.CloseSession(id, organizer), qt.IsNil)
	_, err = tb.RequestOrganizerDecryption(id, voter1)
	c.Assert(err, qt.ErrorIs, ErrNotOrganizer)

	grant, err := tb.RequestOrganizerDecryption(id, organizer)
	c.Assert(err, qt.IsNil)
	// only setup 1 has votes
	c.Assert(grant.Handles, qt.HasLen, 6)

	requested, err = tb.IsRequested(id)
	c.Assert(err, qt.IsNil)
	c.Assert(requested, qt.IsTrue)

	_, err = tb.RequestOrganizerDecryption(id, organizer)
	c.Assert(err, qt.ErrorIs, ErrAlreadyRequested)

	stored, err := tb.DecryptionGrant(id)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Handles, qt.HasLen, len(grant.Handles))
	for i := range grant.Handles {
		c.Assert(stored.Handles[i].Equal(grant.Handles[i]), qt.IsTrue)
		c.Assert(tb.cp.IsAllowed(grant.Handles[i], organizer), qt.IsTrue)
		c.Assert(tb.cp.IsAllowed(grant.Handles[i], voter1), qt.IsFalse)
	}

	// revealing keeps the grant usable
	c.Assert(tb.RevealSession(id, organizer), qt.IsNil)
	agg, err := tb.Aggregate(id, 1)
	c.Assert(err, qt.IsNil)
	rating, err := tb.decrypt(t, agg.RatingSum, organizer)
	c.Assert(err, qt.IsNil)
	c.Assert(rating, qt.Equals, uint64(5))
}

func TestRequestDecryptionWithoutVotes(t *testing.T) {
	c := qt.New(t)
	tb := newTestBox(t)
	id := tb.newSession(t)
	c.Assert(tb.CloseSession(id, organizer), qt.IsNil)

	grant, err := tb.RequestOrganizerDecryption(id, organizer)
	c.Assert(err, qt.IsNil)
	c.Assert(grant.Handles, qt.HasLen, 0)

	_, err = tb.RequestOrganizerDecryption(id, organizer)
	c.Assert(err, qt.ErrorIs, ErrAlreadyRequested)
}

func TestSingleBallotAggregateIsolation(t *testing.T) {
	c := qt.New(t)
	tb := newTestBox(t)
	id := tb.newSession(t)
	c.Assert(tb.Submit(id, 0, voter1, tb.ballot(t, voter1, 4, tags(0, 1))), qt.IsNil)

	own, err := tb.OwnBallot(id, 0, voter1, voter1)
	c.Assert(err, qt.IsNil)
	agg, err := tb.Aggregate(id, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(agg.Count, qt.Equals, uint64(1))

	ballotHandles := append([]types.HexBytes{own.Rating}, own.Tags[:]...)
	for i, h := range agg.Handles() {
		c.Assert(h.Equal(ballotHandles[i]), qt.IsFalse)
		c.Assert(tb.cp.IsAllowed(h, voter1), qt.IsFalse)
		c.Assert(tb.cp.IsAllowed(h, Self), qt.IsTrue)
	}

	c.Assert(tb.CloseSession(id, organizer), qt.IsNil)
	grant, err := tb.RequestOrganizerDecryption(id, organizer)
	c.Assert(err, qt.IsNil)
	c.Assert(grant.Handles, qt.HasLen, types.NumTags+1)
	for _, h := range ballotHandles {
		c.Assert(tb.cp.IsAllowed(h, organizer), qt.IsFalse)
		c.Assert(tb.cp.IsAllowed(h, voter1), qt.IsTrue)
	}
	_, err = tb.decrypt(t, own.Rating, organizer)
	c.Assert(err, qt.ErrorIs, coprocessor.ErrNotAllowed)

	rating, err := tb.decrypt(t, agg.RatingSum, organizer)
	c.Assert(err, qt.IsNil)
	c.Assert(rating, qt.Equals, uint64(4))
	tag, err := tb.decrypt(t, agg.TagSums[1], organizer)
	c.Assert(err, qt.IsNil)
	c.Assert(tag, qt.Equals, uint64(1))
	tag, err = tb.decrypt(t, agg.TagSums[0], organizer)
	c.Assert(err, qt.IsNil)
	c.Assert(tag, qt.Equals, uint64(0))
}
