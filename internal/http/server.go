// Package http serves the brokerage totals view and its JSON API.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"yield/internal/backend"
	"yield/internal/cache"
	"yield/internal/core"
	applog "yield/internal/log"
	"yield/internal/middleware/ratelimit"
	"yield/internal/middleware/security"
	"yield/internal/ports"
	"yield/internal/view"
)

const (
	snapshotKey     = "snapshot"
	loadTimeout     = 10 * time.Second
	cleanupInterval = 5 * time.Minute
)

type Options struct {
	Addr        string
	Backend     ports.Backend
	Signal      *view.RefreshSignal
	SnapshotTTL time.Duration
	Logger      *applog.Logger
	RateLimit   ratelimit.Config
	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	backend  ports.Backend
	signal   *view.RefreshSignal
	commands *view.Commands
	logger   *applog.Logger
	now      func() time.Time

	snapshots *cache.LRUCache[view.Snapshot]
	caches    *cache.Manager
	limiter   *ratelimit.Limiter
	detector  *security.Detector

	stopWatch    func()
	watchDone    chan struct{}
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware and starts the background
// snapshot refresher. Call Shutdown to stop it.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)
	signal := opts.Signal
	if signal == nil {
		signal = view.NewRefreshSignal()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		backend:   opts.Backend,
		signal:    signal,
		commands:  view.NewCommands(opts.Backend, opts.Backend, signal, logger.Logger),
		logger:    logger,
		now:       now,
		snapshots: cache.NewLRUCache[view.Snapshot](1, opts.SnapshotTTL),
		caches:    cache.NewManager(),
		limiter:   ratelimit.NewLimiter(opts.RateLimit),
		detector:  security.NewDetector(),
		watchDone: make(chan struct{}),
	}
	s.caches.Register(s.snapshots)
	s.caches.StartCleanup(cleanupInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("GET /api/table", s.handleTable)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/brokers", s.handleListBrokers)
	mux.HandleFunc("POST /api/brokers", s.handleAddBroker)
	mux.HandleFunc("GET /api/total-values", s.handleListTotalValues)
	mux.HandleFunc("POST /api/total-values", s.handleAddTotalValue)
	mux.HandleFunc("DELETE /api/total-values/{id}", s.handleDeleteTotalValue)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ClientIP, s.handleRateLimited, http.MethodPost, http.MethodDelete)(h)
	h = s.detector.Middleware(logger.Logger)(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = applog.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	updates, cancel := signal.Subscribe()
	s.stopWatch = cancel
	go s.watchRefresh(updates)

	return s
}

// watchRefresh drops the cached snapshot on every refresh request and
// preloads the new one.
func (s *Server) watchRefresh(updates <-chan uint64) {
	defer close(s.watchDone)
	for version := range updates {
		s.snapshots.Clear()
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		if _, err := s.loadSnapshot(ctx, version); err != nil {
			s.logger.WarnContext(ctx, "Snapshot preload failed",
				applog.FieldSnapshotVersion, version,
				applog.FieldError, err)
		}
		cancel()
	}
}

// snapshot returns the cached snapshot if it is current, loading it
// otherwise.
func (s *Server) snapshot(ctx context.Context) (view.Snapshot, error) {
	version := s.signal.Count()
	if snap, ok := s.snapshots.Get(snapshotKey); ok && snap.Version() == version {
		return snap, nil
	}
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()
	return s.loadSnapshot(ctx, version)
}

func (s *Server) loadSnapshot(ctx context.Context, version uint64) (view.Snapshot, error) {
	start := time.Now()
	snap, err := backend.LoadSnapshot(ctx, s.backend, version)
	if err != nil {
		return view.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	// a concurrent refresh may have superseded this load
	if version == s.signal.Count() {
		s.snapshots.Set(snapshotKey, snap)
	}

	records := snap.Records()
	s.logger.DebugContext(ctx, "Snapshot loaded",
		applog.FieldSnapshotVersion, version,
		"brokers", len(snap.Brokers()),
		"records", len(records),
		applog.FieldDuration, time.Since(start).Milliseconds())
	s.logDuplicates(ctx, records)
	return snap, nil
}

// logDuplicates warns about cells more than one record maps to; the
// table shows only the first of them.
func (s *Server) logDuplicates(ctx context.Context, records []core.TotalValueRecord) {
	for _, year := range core.DistinctYears(records) {
		for _, d := range core.Duplicates(records, year) {
			s.logger.WarnContext(ctx, "Duplicate total values for broker month",
				applog.FieldBroker, d.Broker,
				applog.FieldYear, year,
				applog.FieldMonth, d.YearMonth.Month,
				"count", d.Count)
		}
	}
}

func (s *Server) newSession(snap view.Snapshot) *view.Session {
	return view.NewSession(snap, s.commands, s.now())
}

// Shutdown stops background work and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.stopWatch()
		<-s.watchDone
		s.caches.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", "").Write(w)
}

// levelFor is the log level for an error status.
func levelFor(status int) slog.Level {
	if status >= 500 {
		return slog.LevelError
	}
	return slog.LevelWarn
}
