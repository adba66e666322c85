package ballotbox

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vocdoni/blindtest/coprocessor"
	"github.com/vocdoni/blindtest/crypto/elgamal"
	"github.com/vocdoni/blindtest/storage"
	"github.com/vocdoni/blindtest/types"
	"go.vocdoni.io/dvote/db/metadb"
)

var (
	organizer = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	voter1    = common.HexToAddress("0x0000000000000000000000000000000000000b01")
	voter2    = common.HexToAddress("0x0000000000000000000000000000000000000b02")
	stranger  = common.HexToAddress("0x0000000000000000000000000000000000000c01")
)

type testBox struct {
	*BallotBox
	clock time.Time
}

func newTestBox(t *testing.T) *testBox {
	database := metadb.NewTest(t)
	stg, err := storage.New(database)
	qt.Assert(t, err, qt.IsNil)
	cp, err := coprocessor.New(database, storage.CoprocessorPrefix)
	qt.Assert(t, err, qt.IsNil)
	tb := &testBox{clock: time.Unix(1700000000, 0).UTC()}
	tb.BallotBox = New(stg, cp, &Config{
		Registerer: prometheus.NewRegistry(),
		Now:        func() time.Time { return tb.clock },
	})
	return tb
}

func (tb *testBox) newSession(t *testing.T) uint64 {
	id, err := tb.CreateSession(organizer, &types.SessionParams{
		Title:      "amp shootout",
		Deadline:   tb.clock.Add(time.Hour),
		SetupCount: 2,
		SetupNames: []string{"A", "B"},
	})
	qt.Assert(t, err, qt.IsNil)
	return id
}

func (tb *testBox) ballot(t *testing.T, voter common.Address, rating uint64, tags [types.NumTags]bool) *EncryptedBallot {
	eb, err := NewEncryptedBallot(tb.cp, voter, rating, tags)
	qt.Assert(t, err, qt.IsNil)
	return eb
}

// decrypt re-encrypts handle for caller and decrypts it client side.
func (tb *testBox) decrypt(t *testing.T, handle types.HexBytes, caller common.Address) (uint64, error) {
	userPub, userPriv, err := elgamal.GenerateKey()
	qt.Assert(t, err, qt.IsNil)
	ct, _, err := tb.cp.Reencrypt(handle, caller, userPub)
	if err != nil {
		return 0, err
	}
	v, err := elgamal.Decrypt(userPriv, ct, 1000)
	qt.Assert(t, err, qt.IsNil)
	return v.Uint64(), nil
}

func tags(v ...int) [types.NumTags]bool {
	var t [types.NumTags]bool
	for i := range v {
		t[i] = v[i] == 1
	}
	return t
}
