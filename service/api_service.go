package service

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vocdoni/blindtest/api"
	"github.com/vocdoni/blindtest/ballotbox"
	"github.com/vocdoni/blindtest/log"
)

// shutdownTimeout bounds the graceful shutdown of the HTTP server.
const shutdownTimeout = 10 * time.Second

// APIService represents a service that manages the HTTP API server.
type APIService struct {
	bb       *ballotbox.BallotBox
	api      *api.API
	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	host     string
	port     int
	gatherer prometheus.Gatherer
	maxValue uint64
}

// NewAPI creates a new APIService instance serving the given ballot box.
func NewAPI(bb *ballotbox.BallotBox, host string, port int) *APIService {
	return &APIService{
		bb:   bb,
		host: host,
		port: port,
	}
}

// SetMetrics enables the metrics endpoint backed by gatherer. It must be
// called before Start.
func (as *APIService) SetMetrics(gatherer prometheus.Gatherer) {
	as.gatherer = gatherer
}

// SetMaxDecryptValue sets the decryption bound advertised to clients. It must
// be called before Start.
func (as *APIService) SetMaxDecryptValue(v uint64) {
	as.maxValue = v
}

// Start begins the API server. It returns an error if the service
// is already running or if it fails to start. The server stops when ctx is
// done or Stop is called.
func (as *APIService) Start(ctx context.Context) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel != nil {
		return fmt.Errorf("service already running")
	}

	var err error
	as.api, err = api.New(&api.APIConfig{
		Host:            as.host,
		Port:            as.port,
		BallotBox:       as.bb,
		Gatherer:        as.gatherer,
		MaxDecryptValue: as.maxValue,
	})
	if err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	ctx, as.cancel = context.WithCancel(ctx)
	as.done = make(chan struct{})
	go func(srv *api.API, done chan struct{}) {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnw("failed to shutdown API server", "error", err.Error())
		}
	}(as.api, as.done)
	return nil
}

// Stop halts the API server. The ballot box storage is owned by the caller
// and stays open.
func (as *APIService) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel != nil {
		as.cancel()
		<-as.done
		as.cancel = nil
	}
	as.api = nil
}

// HostPort returns the host and port of the API server.
func (as *APIService) HostPort() (string, int) {
	return as.host, as.port
}

// Addr returns the address the API server listens on, or nil if the service
// is not running.
func (as *APIService) Addr() net.Addr {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.api == nil {
		return nil
	}
	return as.api.Addr()
}
