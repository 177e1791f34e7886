package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"dailymeow/internal/cache"
	"dailymeow/internal/core"
	"dailymeow/internal/log"
	"dailymeow/internal/middleware/ratelimit"
	"dailymeow/internal/middleware/security"
	"dailymeow/internal/middleware/trace"
	"dailymeow/internal/services"
)

// SessionParser turns a bearer token into a session.
type SessionParser interface {
	Parse(token string) (core.Session, error)
}

// AvatarFiles resolves stored avatar references to files on disk.
type AvatarFiles interface {
	Path(ref string) (string, error)
}

// Services groups the domain services the handlers call.
type Services struct {
	Calendar   *services.CalendarService
	Daily      *services.DailyService
	Finances   *services.RecurringExpander
	Activities *services.ActivityService
	History    *services.HistoryService
	Insight    *services.InsightService
	Recap      *services.RecapService
	Reminders  *services.ReminderService
	Profiles   *services.ProfileService
}

type Options struct {
	Addr               string
	RateLimitPerMinute int
	CacheSize          int
	CacheTTL           time.Duration
	Logger             *log.Logger
	// Ready reports whether the record store answers. Nil means always ready.
	Ready func(ctx context.Context) error
}

// appMetrics tracks application-level counters.
type appMetrics struct {
	uptime         time.Time
	financeRecords int64
	cacheHits      int64
	cacheMisses    int64
}

type Server struct {
	http.Server
	svc      Services
	sessions SessionParser
	avatars  AvatarFiles
	ready    func(ctx context.Context) error
	now      func() time.Time

	logger     *log.Logger
	structured *log.StructuredLogger

	// Calendar markers keyed "<user>:<YYYY-MM>", evicted by change sets.
	markers *cache.LRUCache[services.MonthlyMarkers]
	caches  *cache.Manager

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	appMetrics   appMetrics
	shutdownOnce sync.Once
}

func NewServer(opts Options, svc Services, sessions SessionParser, avatars AvatarFiles) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	detector := security.NewDetector()
	s := &Server{
		svc:              svc,
		sessions:         sessions,
		avatars:          avatars,
		ready:            opts.Ready,
		now:              time.Now,
		logger:           logger,
		structured:       log.NewStructuredLogger(logger),
		markers:          cache.NewLRUCache[services.MonthlyMarkers](opts.CacheSize, opts.CacheTTL),
		caches:           cache.NewManager(),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
			CleanupInterval:   5 * time.Minute,
		}),
		appMetrics: appMetrics{uptime: time.Now()},
	}

	s.caches.Register(s.markers)
	s.caches.StartCleanup(context.Background(), time.Minute)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, ratelimit.Mutating, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError().Write(w)
	})(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.HandleFunc("GET /api/profile", s.authed(s.handleGetProfile))
	mux.HandleFunc("PUT /api/profile", s.authed(s.handleUpdateProfile))
	mux.HandleFunc("GET /api/profile/avatar", s.authed(s.handleAvatar))

	mux.HandleFunc("GET /api/calendar", s.authed(s.handleMarkers))
	mux.HandleFunc("GET /api/day/{date}", s.authed(s.handleDay))
	mux.HandleFunc("DELETE /api/day/{date}/items/{kind}/{id}", s.authed(s.handleDeleteDayItem))

	mux.HandleFunc("POST /api/activities", s.authed(s.handleCreateActivity))
	mux.HandleFunc("GET /api/activities/{date}", s.authed(s.handleListActivities))
	mux.HandleFunc("DELETE /api/activities/{date}/{id}", s.authed(s.handleDeleteActivity))

	mux.HandleFunc("POST /api/finances", s.authed(s.handleCreateFinance))
	mux.HandleFunc("GET /api/history", s.authed(s.handleHistory))
	mux.HandleFunc("DELETE /api/history", s.authed(s.handleDeleteHistory))

	mux.HandleFunc("GET /api/recap", s.authed(s.handleRecap))
	mux.HandleFunc("GET /api/insight", s.authed(s.handleInsight))
	mux.HandleFunc("GET /api/reminders", s.authed(s.handleReminders))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such endpoint").Write(w)
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess core.Session)

// authed verifies the bearer token and hands the session to next.
func (s *Server) authed(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			UnauthorizedError(core.ErrNotAuthenticated.Error()).Write(w)
			return
		}
		sess, err := s.sessions.Parse(token)
		if err != nil || !sess.Valid() {
			log.FromContext(r.Context()).DebugContext(r.Context(), "Rejected session token", "error", err)
			UnauthorizedError(core.ErrNotAuthenticated.Error()).Write(w)
			return
		}
		next(w, r, sess)
	}
}

// fail writes the response for err and logs server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, _ := errorStatus(err)
	ctx := r.Context()
	if status >= http.StatusInternalServerError {
		fields := log.NewFields().WithRequestID(trace.GetRequestID(ctx))
		var batch *services.BatchError
		if errors.As(err, &batch) {
			fields.WithErrorType(log.ErrorTypePartial)
		}
		s.structured.LogError(ctx, "Request failed", err, log.ComponentHTTP, op, fields)
	} else {
		log.FromContext(ctx).DebugContext(ctx, "Request rejected", "operation", op, "status", status, "error", err)
	}
	ServiceError(err).Write(w)
}

// changed evicts what cs touched and starts a response carrying its refresh hints.
func (s *Server) changed(cs services.ChangeSet) *JSONResponseBuilder {
	s.invalidate(cs)
	return NewJSONResponse().Refresh(cs)
}

func (s *Server) invalidate(cs services.ChangeSet) {
	for _, month := range cs.Months {
		for _, m := range monthWithNeighbours(month) {
			s.markers.DeletePrefix(markersMonthPrefix(cs.UserID, m))
		}
	}
}

// markersKey includes the timezone: the same month buckets records
// differently for sessions issued under different zones.
func markersKey(userID, month string, loc *time.Location) string {
	return markersMonthPrefix(userID, month) + loc.String()
}

func markersMonthPrefix(userID, month string) string {
	return userID + ":" + month + ":"
}

// monthWithNeighbours returns month and the months either side of it. A
// change dated in one zone can land in an adjacent month in another.
func monthWithNeighbours(month string) []string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return []string{month}
	}
	return []string{
		t.AddDate(0, -1, 0).Format("2006-01"),
		month,
		t.AddDate(0, 1, 0).Format("2006-01"),
	}
}

func monthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// today is the current instant in the session's timezone.
func (s *Server) today(sess core.Session) time.Time {
	return s.now().In(sess.Loc())
}

// Shutdown stops background work and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.Stop()
	})
	return s.Server.Shutdown(ctx)
}

func (s *Server) countCache(hit bool) {
	if hit {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		return
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)
}
