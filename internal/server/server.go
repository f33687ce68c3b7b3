package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/tartampluch/go-compass/internal/config"
	"github.com/tartampluch/go-compass/internal/engine"
	"github.com/tartampluch/go-compass/internal/i18n"
)

// snapshot is one published view of the student records and the rendered calendar.
type snapshot struct {
	students     []engine.Student
	byID         map[string]int
	ics          []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// Options configure a Server. Zero values fall back to the defaults in config.
type Options struct {
	Addr        string
	Clock       engine.Clock
	Translator  *i18n.Translator
	Metrics     *Metrics
	WindowDays  int
	RosterLimit int

	// Refresh queues a reload of the records. Nil disables POST /refresh.
	Refresh func()
}

// Server serves the roster API and the calendar feed from the latest snapshot.
type Server struct {
	// Reads vastly outnumber publications, so the snapshot is swapped atomically instead of locked.
	current atomic.Pointer[snapshot]

	addr        string
	clock       engine.Clock
	translator  *i18n.Translator
	metrics     *Metrics
	windowDays  int
	rosterLimit int
	refresh     func()
	router      chi.Router
}

// New creates a server. Nothing is served until the first Publish except /health and /metrics.
func New(opts Options) *Server {
	s := &Server{
		addr:        opts.Addr,
		clock:       opts.Clock,
		translator:  opts.Translator,
		metrics:     opts.Metrics,
		windowDays:  opts.WindowDays,
		rosterLimit: opts.RosterLimit,
		refresh:     opts.Refresh,
	}
	if s.clock == nil {
		s.clock = engine.RealClock{}
	}
	if s.windowDays <= 0 {
		s.windowDays = config.DefaultWindowDays
	}
	if s.rosterLimit <= 0 {
		s.rosterLimit = config.DefaultRosterLimit
	}
	s.router = s.routes()
	return s
}

// Handler returns the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.addr == "" {
		return errors.New(config.ErrAddrRequired)
	}

	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyAddr, s.addr,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Publish atomically replaces the served records and calendar.
// The caller must not modify students afterwards.
func (s *Server) Publish(students []engine.Student, ics []byte) {
	hash := sha256.Sum256(ics)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	byID := make(map[string]int, len(students))
	for i, st := range students {
		if _, dup := byID[st.ID]; !dup {
			byID[st.ID] = i
		}
	}

	s.current.Store(&snapshot{
		students:     students,
		byID:         byID,
		ics:          ics,
		etag:         etag,
		lastModified: s.clock.Now().UTC().Format(http.TimeFormat),
	})
	s.metrics.observeSnapshot(len(students))

	slog.Debug(config.MsgSnapshotUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyCount, len(students),
		config.LogKeySizeBytes, len(ics),
		config.LogKeyETag, etag,
	)
}

// Ready reports whether a snapshot has been published.
func (s *Server) Ready() bool {
	return s.current.Load() != nil
}

// routedMethods are the methods any route of the server answers to.
var routedMethods = []string{http.MethodGet, http.MethodHead, http.MethodPost}

// allowedMethods lists the methods routed for path, for the Allow header of a 405.
func (s *Server) allowedMethods(path string) []string {
	var allowed []string
	for _, m := range routedMethods {
		if s.router.Match(chi.NewRouteContext(), m, path) {
			allowed = append(allowed, m)
		}
	}
	return allowed
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(Recovery)
	r.Use(RequestID)
	r.Use(Instrument(s.metrics))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, config.CodeNotFound, http.StatusText(http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		if allowed := s.allowedMethods(req.URL.Path); len(allowed) > 0 {
			w.Header().Set(config.HeaderAllow, strings.Join(allowed, config.MethodListSeparator))
		}
		writeJSONError(w, http.StatusMethodNotAllowed, config.CodeInvalidArgument, config.HTTPMsgMethodNotAll)
	})

	r.Get(config.RouteHealth, s.handleHealth)
	r.Get(config.RouteCalendar, s.handleCalendar)
	r.Head(config.RouteCalendar, s.handleCalendar)
	if s.metrics != nil {
		r.Method(http.MethodGet, config.RouteMetrics, s.metrics.Handler())
	}

	r.Route(config.RouteAPIPrefix, func(r chi.Router) {
		r.Get(config.RouteBirthdays, s.handleBirthdays)
		r.Get(config.RouteRoster, s.handleRoster)
		r.Get(config.RouteStudentBirthday, s.handleStudentBirthday)
		r.Post(config.RouteRefresh, s.handleRefresh)
	})

	return r
}
