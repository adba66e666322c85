package ballotbox

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/vocdoni/blindtest/types"
)

func TestCreateSession(t *testing.T) {
	c := qt.New(t)
	tb := newTestBox(t)

	params := func() *types.SessionParams {
		return &types.SessionParams{
			Title:       "preamp",
			Description: "blind test",
			Deadline:    tb.clock.Add(time.Hour),
			SetupCount:  3,
			SetupNames:  []string{"A", "B", "C"},
			TrackList:   "track 1, track 2",
		}
	}

	id, err := tb.CreateSession(organizer, params())
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Equals, uint64(1))
	id2, err := tb.CreateSession(voter1, params())
	c.Assert(err, qt.IsNil)
	c.Assert(id2, qt.Equals, uint64(2))

	s, err := tb.Session(id)
	c.Assert(err, qt.IsNil)
	c.Assert(s.State, qt.Equals, types.SessionStateActive)
	c.Assert(s.Organizer, qt.Equals, organizer)
	c.Assert(s.Title, qt.Equals, "preamp")
	c.Assert(s.TrackList, qt.Equals, "track 1, track 2")
	c.Assert(s.SetupCount, qt.Equals, uint8(3))
	c.Assert(s.String(), qt.Not(qt.Contains), "\"A\"")

	count, err := tb.SessionCount()
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(2))
	sessions, err := tb.Sessions()
	c.Assert(err, qt.IsNil)
	c.Assert(sessions, qt.HasLen, 2)

	ok, err := tb.IsOrganizer(id, organizer)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	ok, err = tb.IsOrganizer(id2, organizer)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	c.Run("deadline", func(c *qt.C) {
		p := params()
		p.Deadline = tb.clock
		_, err := tb.CreateSession(organizer, p)
		c.Assert(err, qt.ErrorIs, ErrInvalidDeadline)
		p.Deadline = tb.clock.Add(-time.Minute)
		_, err = tb.CreateSession(organizer, p)
		c.Assert(err, qt.ErrorIs, ErrInvalidDeadline)
	})

	c.Run("setup count", func(c *qt.C) {
		for _, n := range []uint8{0, 1, 11} {
			p := params()
			p.SetupCount = n
			p.SetupNames = make([]string, n)
			_, err := tb.CreateSession(organizer, p)
			c.Assert(err, qt.ErrorIs, ErrInvalidSetupCount)
		}
		p := params()
		p.SetupCount = 10
		p.SetupNames = make([]string, 10)
		_, err := tb.CreateSession(organizer, p)
		c.Assert(err, qt.IsNil)
	})

	c.Run("names", func(c *qt.C) {
		p := params()
		p.SetupNames = []string{"A", "B"}
		_, err := tb.CreateSession(organizer, p)
		c.Assert(err, qt.ErrorIs, ErrNameCountMismatch)
	})

	c.Assert(testutil.ToFloat64(tb.metrics.sessionsCreated), qt.Equals, float64(3))
}

func TestLifecycle(t *testing.T) {
	c := qt.New(t)
	tb := newTestBox(t)
	id := tb.newSession(t)

	c.Assert(tb.RevealSession(id, organizer), qt.ErrorIs, ErrNotClosed)
	c.Assert(tb.CloseSession(id, voter1), qt.ErrorIs, ErrNotOrganizer)
	c.Assert(tb.CloseSession(99, organizer), qt.ErrorIs, ErrSessionNotFound)

	// closing before the deadline is allowed
	c.Assert(tb.CloseSession(id, organizer), qt.IsNil)
	state, err := tb.State(id)
	c.Assert(err, qt.IsNil)
	c.Assert(state, qt.Equals, types.SessionStateClosed)

	c.Assert(tb.Submit(id, 0, voter1, tb.ballot(t, voter1, 3, tags())), qt.ErrorIs, ErrSessionNotActive)
	c.Assert(tb.CloseSession(id, organizer), qt.ErrorIs, ErrNotActive)

	c.Assert(tb.RevealSession(id, voter1), qt.ErrorIs, ErrNotOrganizer)
	c.Assert(tb.RevealSession(id, organizer), qt.IsNil)
	state, err = tb.State(id)
	c.Assert(err, qt.IsNil)
	c.Assert(state, qt.Equals, types.SessionStateRevealed)

	c.Assert(tb.CloseSession(id, organizer), qt.ErrorIs, ErrNotActive)
	c.Assert(tb.RevealSession(id, organizer), qt.ErrorIs, ErrNotClosed)
	c.Assert(tb.Submit(id, 0, voter1, tb.ballot(t, voter1, 3, tags())), qt.ErrorIs, ErrSessionNotActive)

	c.Assert(testutil.ToFloat64(tb.metrics.stateTransitions.WithLabelValues("closed")), qt.Equals, float64(1))
	c.Assert(testutil.ToFloat64(tb.metrics.stateTransitions.WithLabelValues("revealed")), qt.Equals, float64(1))
}

func TestSetupNames(t *testing.T) {
	c := qt.New(t)
	tb := newTestBox(t)
	id := tb.newSession(t)

	_, err := tb.SetupNames(id)
	c.Assert(err, qt.ErrorIs, ErrNotRevealed)
	_, err = tb.SetupName(id, 0)
	c.Assert(err, qt.ErrorIs, ErrNotRevealed)

	c.Assert(tb.CloseSession(id, organizer), qt.IsNil)
	_, err = tb.SetupNames(id)
	c.Assert(err, qt.ErrorIs, ErrNotRevealed)

	c.Assert(tb.RevealSession(id, organizer), qt.IsNil)
	names, err := tb.SetupNames(id)
	c.Assert(err, qt.IsNil)
	c.Assert(names, qt.DeepEquals, []string{"A", "B"})
	name, err := tb.SetupName(id, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(name, qt.Equals, "B")
	_, err = tb.SetupName(id, 2)
	c.Assert(err, qt.ErrorIs, ErrInvalidSetupIndex)

	_, err = tb.SetupNames(99)
	c.Assert(err, qt.ErrorIs, ErrSessionNotFound)
}
