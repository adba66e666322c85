package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vocdoni/blindtest/api"
	"github.com/vocdoni/blindtest/ballotbox"
	"github.com/vocdoni/blindtest/coprocessor"
	"github.com/vocdoni/blindtest/storage"
	"go.vocdoni.io/dvote/db/metadb"
)

func newTestBallotBox(t *testing.T, registry *prometheus.Registry) *ballotbox.BallotBox {
	database := metadb.NewTest(t)
	stg, err := storage.New(database)
	qt.Assert(t, err, qt.IsNil)
	cp, err := coprocessor.New(database, storage.CoprocessorPrefix)
	qt.Assert(t, err, qt.IsNil)
	return ballotbox.New(stg, cp, &ballotbox.Config{Registerer: registry})
}

func TestAPIService(t *testing.T) {
	c := qt.New(t)

	registry := prometheus.NewRegistry()
	bb := newTestBallotBox(t, registry)

	// Create API service with a random available port
	apiService := NewAPI(bb, "127.0.0.1", 0) // Port 0 lets the OS choose an available port
	apiService.SetMetrics(registry)
	c.Assert(apiService.Addr(), qt.IsNil)

	ctx := context.Background()
	err := apiService.Start(ctx)
	c.Assert(err, qt.IsNil)
	defer apiService.Stop()

	url := fmt.Sprintf("http://%s", apiService.Addr().String())
	resp, err := http.Get(url + api.PingEndpoint)
	c.Assert(err, qt.IsNil)
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)
	c.Assert(resp.Body.Close(), qt.IsNil)

	resp, err = http.Get(url + api.MetricsEndpoint)
	c.Assert(err, qt.IsNil)
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)
	c.Assert(resp.Body.Close(), qt.IsNil)

	// Test stopping and restarting
	apiService.Stop()
	c.Assert(apiService.Addr(), qt.IsNil)
	err = apiService.Start(ctx)
	c.Assert(err, qt.IsNil)

	// Test starting an already running service
	err = apiService.Start(ctx)
	c.Assert(err, qt.ErrorMatches, "service already running")
}

func TestAPIServiceContextCancel(t *testing.T) {
	c := qt.New(t)

	apiService := NewAPI(newTestBallotBox(t, prometheus.NewRegistry()), "127.0.0.1", 0)
	ctx, cancel := context.WithCancel(context.Background())
	c.Assert(apiService.Start(ctx), qt.IsNil)
	defer apiService.Stop()
	cancel()

	// once the context is done the server stops accepting requests
	url := fmt.Sprintf("http://%s%s", apiService.Addr().String(), api.PingEndpoint)
	stopped := false
	for i := 0; i < 50 && !stopped; i++ {
		resp, err := http.Get(url)
		if err != nil {
			stopped = true
			break
		}
		resp.Body.Close()
		time.Sleep(100 * time.Millisecond)
	}
	c.Assert(stopped, qt.IsTrue)
}
