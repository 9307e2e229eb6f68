// Package server wires configuration, storage, authentication and the live
// views into the dashboard's HTTP server.
package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/qargo/dashboard/client"
	"github.com/qargo/dashboard/internal/auth"
	"github.com/qargo/dashboard/internal/company"
	"github.com/qargo/dashboard/internal/config"
	"github.com/qargo/dashboard/internal/views"
	"github.com/qargo/dashboard/internal/wizard"
	"github.com/qargo/dashboard/pkg/audit"
	"github.com/qargo/dashboard/pkg/health"
	"github.com/qargo/dashboard/pkg/limits"
	"github.com/qargo/dashboard/pkg/logging"
	"github.com/qargo/dashboard/pkg/protocol"
	"github.com/qargo/dashboard/pkg/router"
	"github.com/qargo/dashboard/pkg/security"
	"github.com/qargo/dashboard/pkg/shutdown"
	"github.com/qargo/dashboard/pkg/state"
	"github.com/qargo/dashboard/pkg/transport"
)

// AssetsPrefix is where the browser client script is served.
const AssetsPrefix = "/_live/"

// Server is the dashboard HTTP server.
type Server struct {
	cfg       *config.Config
	version   string
	logger    logging.Logger
	store     state.Store
	submitter wizard.Submitter
	audit     audit.Logger

	metrics  *serverMetrics
	clientIP limits.KeyFunc
	csrf     *security.CSRF
	users    *auth.Repository
	sessions *auth.Manager
	live     *router.Router
	http     *http.Server
	shutdown *shutdown.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithStore replaces the store selected by the configuration.
func WithStore(store state.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithSubmitter replaces the company API client.
func WithSubmitter(sub wizard.Submitter) Option {
	return func(s *Server) {
		s.submitter = sub
	}
}

// WithAuditLogger replaces the audit trail selected by the configuration.
func WithAuditLogger(l audit.Logger) Option {
	return func(s *Server) {
		s.audit = l
	}
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// OpenStore opens the state store selected by cfg.
func OpenStore(cfg config.StoreConfig) (state.Store, error) {
	switch cfg.Driver {
	case config.StoreMemory, "":
		return state.NewMemoryStore(), nil
	case config.StoreFile:
		return state.NewFileStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// New builds a server from cfg. The users are loaded, or seeded, before it
// returns.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		version: "dev",
		logger:  logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		store, err := OpenStore(cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		s.store = store
	}

	if s.submitter == nil {
		s.submitter = company.NewClient(company.Config{
			Endpoint: cfg.Company.Endpoint,
			Timeout:  cfg.Company.Timeout,
		}, company.WithLogger(s.logger))
	}
	s.metrics = newServerMetrics()
	s.submitter = s.metrics.instrument(s.submitter)

	if s.audit == nil {
		trail, err := openAudit(cfg.Audit, s.logger)
		if err != nil {
			return nil, err
		}
		s.audit = trail
	}
	s.audit = audit.NewMultiLogger(s.audit, s.metrics.countEvents())
	s.clientIP = limits.ClientIP(cfg.Server.TrustProxy)

	users, err := auth.NewRepository(ctx, s.store,
		auth.WithSeedFile(cfg.Users.SeedFile),
		auth.WithRepositoryLogger(s.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	s.users = users

	key, err := s.sessionKey()
	if err != nil {
		return nil, err
	}
	s.sessions = auth.NewManager(s.store, key,
		auth.WithSessionDuration(cfg.Session.Duration),
		auth.WithSecureCookies(cfg.Server.SecureCookies),
		auth.WithManagerLogger(s.logger),
	)
	s.csrf = security.NewCSRF(key, auth.BrowserID, security.WithRejectHandler(func(r *http.Request, err error) {
		s.audit.Log(audit.FromRequest(r, audit.EventCSRFRejected).With("error", err.Error()))
	}))

	conns := limits.NewConnectionLimiter(cfg.Server.MaxConnectionsPerIP, cfg.Server.MaxConnections)
	gate := conns.Gate(s.clientIP, func(r *http.Request) {
		s.audit.Log(audit.FromRequest(r, audit.EventConnectionLimit))
	})

	codec, err := protocol.Lookup(cfg.Server.Codec)
	if err != nil {
		return nil, err
	}
	s.live = router.New(
		router.WithCodec(codec),
		router.WithLogger(s.logger),
		router.WithTimeouts(cfg.Timeouts.Live()),
		router.WithWebSocketConfig(&transport.WebSocketConfig{AllowedOrigins: cfg.Server.AllowedOrigins}),
		router.WithSessionExtractor(views.SessionFromRequest),
		router.WithConnectionGate(gate),
	)
	s.metrics.registry.GaugeFunc("live_sessions", "Open live connections.", s.live.Sessions().Count)
	s.routes()

	s.http = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.live,
		ReadHeaderTimeout: cfg.Timeouts.Read,
		ReadTimeout:       cfg.Timeouts.Read,
		WriteTimeout:      cfg.Timeouts.Write,
	}

	s.shutdown = shutdown.NewHandler(shutdown.Config{
		Timeout: cfg.Timeouts.Shutdown,
		Logger:  s.logger,
	})
	s.shutdown.RegisterFunc("http", shutdown.PriorityHTTP, s.http.Shutdown)
	s.shutdown.RegisterFunc("live", shutdown.PriorityLive, s.live.Shutdown)
	s.shutdown.RegisterCloser("store", shutdown.PriorityStore, s.store)
	s.shutdown.RegisterCloser("audit", shutdown.PriorityStore, s.audit)

	return s, nil
}

func (s *Server) sessionKey() ([]byte, error) {
	if s.cfg.Server.SessionKey != "" {
		return []byte(s.cfg.Server.SessionKey), nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}
	s.logger.Warn("no session key configured; sessions end when the server restarts")
	return key, nil
}

func (s *Server) routes() {
	cfg := s.cfg
	deps := views.Deps{
		Store:         s.store,
		Submitter:     s.submitter,
		Theme:         cfg.UI.Theme,
		CheckInterval: cfg.Session.CheckInterval,
		CSRF:          s.csrf,
		Audit:         s.audit,
		Logger:        s.logger,
	}
	login := views.NewLogin(s.users, s.sessions, deps)

	s.live.Use(
		logging.RequestLogger(s.logger),
		router.Recovery(s.logger),
		router.SecureHeaders(),
		auth.EnsureBrowser(cfg.Server.SecureCookies),
		s.csrf.Middleware(),
	)

	limit := func(h http.HandlerFunc) http.Handler { return h }
	if n := cfg.Server.LoginRateLimit; n > 0 {
		bucket := limits.NewTokenBucket(n, time.Minute, n)
		rl := limits.Middleware(bucket, s.clientIP, func(r *http.Request) {
			s.audit.Log(audit.FromRequest(r, audit.EventRateLimited))
		})
		limit = func(h http.HandlerFunc) http.Handler { return rl(h) }
	}

	s.live.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
	}).Methods(http.MethodGet)

	s.live.Handle(auth.LoginPath, auth.RedirectIfAuthenticated(s.sessions)(http.HandlerFunc(login.Page))).Methods(http.MethodGet)
	s.live.Handle(auth.LoginPath, limit(login.Submit)).Methods(http.MethodPost)
	s.live.Handle("/signup", limit(login.Signup)).Methods(http.MethodPost)
	s.live.HandleFunc("/logout", login.Logout).Methods(http.MethodPost)

	requireAuth := router.WithRouteMiddleware(auth.RequireAuth(s.sessions))
	s.live.Live(views.DashboardPath, views.NewDashboard(deps),
		router.WithLayout(views.Layout("Dashboard")), requireAuth)
	s.live.Live(views.NewCompanyPath, views.NewNewCompany(deps),
		router.WithLayout(views.Layout("New Company")), requireAuth)

	s.live.PathPrefix(AssetsPrefix, http.StripPrefix(AssetsPrefix, client.Handler()))

	checker := health.NewChecker(s.version)
	checker.AddCriticalCheck("store", health.StoreCheck(s.store), health.DefaultTimeout)
	checker.AddCheck("live_connections",
		health.CapacityCheck(s.live.Sessions().Count, cfg.Server.MaxConnections), health.DefaultTimeout)
	s.live.Handle("/healthz", checker.Handler()).Methods(http.MethodGet)

	if cfg.Server.Metrics {
		s.live.Handle("/metrics", s.metrics.registry.Handler()).Methods(http.MethodGet)
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.live
}

// Users returns the user repository.
func (s *Server) Users() *auth.Repository {
	return s.users
}

// Run listens on the configured address and serves until ctx is cancelled
// or a shutdown signal arrives.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled or a shutdown signal arrives,
// then shuts down the HTTP server, the live connections and the store in
// that order.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	serveErr := make(chan error, 1)
	go func() {
		err := s.http.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", logging.Err(err))
			serveErr <- err
			s.shutdown.Shutdown()
		}
	}()

	s.logger.Info("dashboard listening",
		logging.String("addr", ln.Addr().String()),
		logging.String("version", s.version),
	)

	err := s.shutdown.Wait(ctx)
	select {
	case e := <-serveErr:
		return errors.Join(e, err)
	default:
		return err
	}
}

// Close shuts the server down without waiting for a signal.
func (s *Server) Close() error {
	return s.shutdown.Shutdown()
}
