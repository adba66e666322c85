package api

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/vocdoni/blindtest/types"
)

const (
	// DefaultRequestWindow is how far the timestamp of a signed request may
	// drift from the server clock.
	DefaultRequestWindow = 5 * time.Minute
	// NonceSize is the size in bytes of the nonce of a signed request.
	NonceSize = 16
	// replayCacheSize bounds the nonces remembered at once.
	replayCacheSize = 1 << 20
)

// replayGuard rejects signed requests outside the time window and nonces
// already seen for the same signer. A nonce is remembered for twice the
// window, the longest time its timestamp can stay acceptable.
type replayGuard struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	seen   *expirable.LRU[string, struct{}]
}

func newReplayGuard(window time.Duration, now func() time.Time) *replayGuard {
	if window <= 0 {
		window = DefaultRequestWindow
	}
	if now == nil {
		now = time.Now
	}
	return &replayGuard{
		window: window,
		now:    now,
		seen:   expirable.NewLRU[string, struct{}](replayCacheSize, nil, 2*window),
	}
}

// check records the nonce of signer and fails if the request is stale or the
// nonce was already used.
func (g *replayGuard) check(signer common.Address, timestamp int64, nonce types.HexBytes) error {
	if len(nonce) != NonceSize {
		return ErrMalformedBody.Withf("nonce must be %d bytes", NonceSize)
	}
	drift := g.now().Sub(time.Unix(timestamp, 0))
	if drift > g.window || drift < -g.window {
		return ErrStaleRequest.Withf("timestamp drifts %s", drift.Truncate(time.Second))
	}
	key := signer.Hex() + nonce.String()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen.Contains(key) {
		return ErrReplayedRequest
	}
	// evicting a live nonce would make it replayable
	if g.seen.Len() >= replayCacheSize {
		return ErrServerBusy
	}
	g.seen.Add(key, struct{}{})
	return nil
}
