package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vocdoni/blindtest/ballotbox"
	"github.com/vocdoni/blindtest/log"
)

// DefaultMaxDecryptValue is the default upper bound advertised to clients
// for the discrete log search of decrypted values.
const DefaultMaxDecryptValue = 1 << 20

// APIConfig type represents the configuration for the API HTTP server.
type APIConfig struct {
	Host      string
	Port      int
	BallotBox *ballotbox.BallotBox
	// Gatherer serves the metrics endpoint. Metrics are disabled when nil.
	Gatherer        prometheus.Gatherer
	MaxDecryptValue uint64
	// RequestWindow is the accepted clock drift of signed requests,
	// DefaultRequestWindow when zero.
	RequestWindow time.Duration
	// Now is the clock used to judge signed request timestamps.
	Now func() time.Time
}

// API type represents the API HTTP server.
type API struct {
	router          *chi.Mux
	bb              *ballotbox.BallotBox
	gatherer        prometheus.Gatherer
	maxDecryptValue uint64
	replay          *replayGuard
	server          *http.Server
	listener        net.Listener
}

// New creates a new API instance with the given configuration and starts
// serving on Host:Port. Port 0 picks a free port, see Addr.
func New(conf *APIConfig) (*API, error) {
	a, err := NewRouter(conf)
	if err != nil {
		return nil, err
	}
	a.listener, err = net.Listen("tcp", fmt.Sprintf("%s:%d", conf.Host, conf.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	a.server = &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infow("starting API server", "address", a.listener.Addr().String())
		if err := a.server.Serve(a.listener); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
	return a, nil
}

// NewRouter creates an API instance with its router but without listening,
// so it can be mounted on another server or used with httptest.
func NewRouter(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.BallotBox == nil {
		return nil, fmt.Errorf("missing ballot box instance")
	}
	a := &API{
		bb:              conf.BallotBox,
		gatherer:        conf.Gatherer,
		maxDecryptValue: conf.MaxDecryptValue,
		replay:          newReplayGuard(conf.RequestWindow, conf.Now),
	}
	if a.maxDecryptValue == 0 {
		a.maxDecryptValue = DefaultMaxDecryptValue
	}
	a.initRouter()
	return a, nil
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// Addr returns the address the server listens on, or nil if it is not
// listening.
func (a *API) Addr() net.Addr {
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// Shutdown gracefully stops the HTTP server.
func (a *API) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	handlers := []struct {
		method   string
		endpoint string
		handler  http.HandlerFunc
	}{
		{http.MethodGet, PingEndpoint, func(w http.ResponseWriter, r *http.Request) { httpWriteOK(w) }},
		{http.MethodGet, InfoEndpoint, a.info},
		{http.MethodPost, SessionsEndpoint, a.newSession},
		{http.MethodGet, SessionsEndpoint, a.sessions},
		{http.MethodGet, SessionEndpoint, a.session},
		{http.MethodGet, SessionNamesEndpoint, a.setupNames},
		{http.MethodPost, SessionCloseEndpoint, a.closeSession},
		{http.MethodPost, SessionRevealEndpoint, a.revealSession},
		{http.MethodPost, SessionDecryptionEndpoint, a.requestDecryption},
		{http.MethodGet, SessionDecryptionEndpoint, a.decryption},
		{http.MethodPost, BallotsEndpoint, a.submitBallot},
		{http.MethodGet, VoterEndpoint, a.hasVoted},
		{http.MethodPost, OwnBallotEndpoint, a.ownBallot},
		{http.MethodGet, AggregateEndpoint, a.aggregate},
		{http.MethodPost, ReencryptEndpoint, a.reencrypt},
		{http.MethodGet, EventsEndpoint, a.events},
		{http.MethodGet, EventProofEndpoint, a.eventProof},
	}
	for _, h := range handlers {
		log.Infow("register handler", "endpoint", h.endpoint, "method", h.method)
		a.router.Method(h.method, h.endpoint, h.handler)
	}
	if a.gatherer != nil {
		log.Infow("register handler", "endpoint", MetricsEndpoint, "method", "GET")
		a.router.Method(http.MethodGet, MetricsEndpoint, promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
	}
	a.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		ErrResourceNotFound.Withf("%s %s", r.Method, r.URL.Path).Write(w)
	})
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	// Create the router with a basic middleware stack
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	// Register the API handlers
	a.registerHandlers()
}
