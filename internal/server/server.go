package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jonathan/hr-admin/internal/config"
	"github.com/jonathan/hr-admin/internal/contracts"
	"github.com/jonathan/hr-admin/internal/db"
	"github.com/jonathan/hr-admin/internal/logger"
	"github.com/jonathan/hr-admin/internal/metrics"
	"github.com/jonathan/hr-admin/internal/notify"
	"github.com/jonathan/hr-admin/internal/onboarding"
	"github.com/jonathan/hr-admin/internal/recruitment"
	"github.com/jonathan/hr-admin/internal/resume"
	"github.com/jonathan/hr-admin/internal/server/middleware"
	"github.com/jonathan/hr-admin/internal/server/ratelimit"
)

// UserStore is user storage for authentication and user administration.
type UserStore interface {
	DBClient
	ListUsers(ctx context.Context) ([]db.User, error)
	SetUserRole(ctx context.Context, id uuid.UUID, role db.Role) error
}

// Records is employee and department storage.
type Records interface {
	CreateEmployee(ctx context.Context, e *db.Employee) error
	GetEmployee(ctx context.Context, id uuid.UUID) (*db.Employee, error)
	EmployeeExists(ctx context.Context, id uuid.UUID) (bool, error)
	ListEmployees(ctx context.Context, filters db.EmployeeFilters) ([]db.Employee, error)
	UpdateEmployee(ctx context.Context, e *db.Employee) error
	DeleteEmployee(ctx context.Context, id uuid.UUID) error
	CountEmployees(ctx context.Context) (int, error)

	CreateDepartment(ctx context.Context, d *db.Department) error
	GetDepartment(ctx context.Context, id uuid.UUID) (*db.Department, error)
	ListDepartments(ctx context.Context) ([]db.Department, error)
	UpdateDepartment(ctx context.Context, d *db.Department) error
	DeleteDepartment(ctx context.Context, id uuid.UUID) error
	CountDepartments(ctx context.Context) (int, error)
}

// Deps are the collaborators a Server is assembled from.
type Deps struct {
	Users      UserStore
	Records    Records
	Candidates *recruitment.Service
	Tasks      *onboarding.Service
	CVs        *resume.Store
	Contracts  *contracts.Renderer
	Printer    contracts.Printer
	Limiter    *ratelimit.Limiter
	// Ping reports whether storage is reachable; nil means always healthy.
	Ping func(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer      *http.Server
	handler         http.Handler
	db              *db.DB
	logger          *zap.Logger
	deps            Deps
	company         config.ContractsConfig
	corsOrigin      string
	shutdownTimeout time.Duration
	rateLimiter     *ratelimit.Limiter
	jwtService      *JWTService
	userService     *UserService
	authHandler     *AuthHandler
	validator       *validator.Validate
	closers         []func()
}

// New connects to PostgreSQL and Redis as configured and builds the server.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, error) {
	database, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	var store ratelimit.Store = ratelimit.NewMemoryStore()
	var closers []func()
	if cfg.RateLimit.Store == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			database.Close()
			return nil, errors.Wrapf(err, "failed to reach redis at %s", cfg.Redis.Addr)
		}
		store = ratelimit.NewRedisStore(client, "")
		closers = append(closers, func() { _ = client.Close() })
	}
	limiter := ratelimit.NewLimiter(ratelimit.NewConfig(
		cfg.RateLimit.Enabled,
		cfg.RateLimit.DefaultLimit,
		cfg.RateLimit.DefaultWindow,
		cfg.RateLimit.CleanupInterval,
		cfg.RateLimit.Whitelist,
		cfg.RateLimit.Blacklist,
	), store, log)

	notifier, err := notify.FromConfig(ctx, cfg.Notify, database, log)
	if err != nil {
		database.Close()
		return nil, errors.Wrap(err, "failed to create notifier")
	}

	renderer, err := contracts.NewRenderer(cfg.Contracts.TemplatePath)
	if err != nil {
		database.Close()
		return nil, errors.Wrap(err, "failed to load contract template")
	}

	s := NewWithDeps(cfg, Deps{
		Users:      database,
		Records:    database,
		Candidates: recruitment.NewService(database, log),
		Tasks: onboarding.NewService(database,
			onboarding.WithNotifier(notifier),
			onboarding.WithPolicy(onboarding.PolicyByName(cfg.Onboarding.Transitions)),
			onboarding.WithLogger(log)),
		CVs:       resume.NewStore(cfg.Uploads.Dir, cfg.Uploads.MaxBytes),
		Contracts: renderer,
		Printer:   contracts.NewChromePrinter(cfg.Contracts.PDFTimeout, log),
		Limiter:   limiter,
		Ping:      database.Ping,
	}, log)
	s.db = database
	s.closers = closers
	return s, nil
}

// NewWithDeps builds a server around existing collaborators.
func NewWithDeps(cfg *config.Config, deps Deps, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	jwtConfig := cfg.JWT
	passwordConfig := cfg.Password
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewLimiter(ratelimit.NewConfig(false, 0, 0, 0, nil, nil), nil, log)
	}

	s := &Server{
		logger:          log.Named("server"),
		deps:            deps,
		company:         cfg.Contracts,
		corsOrigin:      cfg.Server.CORSOrigin,
		shutdownTimeout: cfg.Server.ShutdownTimeout,
		rateLimiter:     deps.Limiter,
		jwtService:      NewJWTService(&jwtConfig),
		validator:       validator.New(),
	}
	if s.corsOrigin == "" {
		s.corsOrigin = "*"
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 10 * time.Second
	}
	s.userService = NewUserService(deps.Users, &passwordConfig)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService, s.logger)

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(s.routes())))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second, // PDF rendering can take a while
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() *http.ServeMux {
	authenticate := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
	protect := func(h http.HandlerFunc, roles ...db.Role) http.Handler {
		var handler http.Handler = h
		if len(roles) > 0 {
			names := make([]string, len(roles))
			for i, r := range roles {
				names[i] = string(r)
			}
			handler = middleware.RequireRole(names...)(handler)
		}
		return authenticate(handler)
	}
	staff := []db.Role{db.RoleAdmin, db.RoleHR}
	managers := []db.Role{db.RoleAdmin, db.RoleHR, db.RoleManager}
	admin := db.RoleAdmin

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Authentication
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.Handle("GET /auth/me", protect(s.handleMe))
	mux.Handle("PUT /auth/password", protect(s.handleUpdatePassword))

	// User administration
	mux.Handle("GET /users", protect(s.handleListUsers, admin))
	mux.Handle("POST /users", protect(s.handleCreateUser, admin))
	mux.Handle("PUT /users/{id}/role", protect(s.handleUpdateUserRole, admin))
	mux.Handle("DELETE /users/{id}", protect(s.handleDeleteUser, admin))

	// Employees
	mux.Handle("GET /employees", protect(s.handleListEmployees, managers...))
	mux.Handle("POST /employees", protect(s.handleCreateEmployee, staff...))
	mux.Handle("GET /employees/{id}", protect(s.handleGetEmployee))
	mux.Handle("PUT /employees/{id}", protect(s.handleUpdateEmployee, staff...))
	mux.Handle("DELETE /employees/{id}", protect(s.handleDeleteEmployee, admin))
	mux.Handle("GET /employees/{id}/contract", protect(s.handleEmployeeContract, staff...))
	mux.Handle("GET /employees/{id}/onboarding", protect(s.handleEmployeeTasks))

	// Departments
	mux.Handle("GET /departments", protect(s.handleListDepartments))
	mux.Handle("POST /departments", protect(s.handleCreateDepartment, staff...))
	mux.Handle("GET /departments/{id}", protect(s.handleGetDepartment))
	mux.Handle("PUT /departments/{id}", protect(s.handleUpdateDepartment, staff...))
	mux.Handle("DELETE /departments/{id}", protect(s.handleDeleteDepartment, admin))

	// Candidates
	mux.Handle("GET /candidates", protect(s.handleListCandidates, managers...))
	mux.Handle("POST /candidates", protect(s.handleCreateCandidate, staff...))
	mux.Handle("GET /candidates/{id}", protect(s.handleGetCandidate, managers...))
	mux.Handle("PUT /candidates/{id}", protect(s.handleUpdateCandidate, staff...))
	mux.Handle("DELETE /candidates/{id}", protect(s.handleDeleteCandidate, admin))
	mux.Handle("POST /candidates/{id}/cv", protect(s.handleUploadCV, staff...))
	mux.Handle("PUT /candidates/{id}/status", protect(s.handleCandidateStatus, staff...))
	mux.Handle("POST /candidates/{id}/interviews", protect(s.handleAddInterview, managers...))

	// Onboarding
	mux.Handle("POST /onboarding/tasks", protect(s.handleCreateTask, staff...))
	mux.Handle("GET /onboarding/tasks/{id}", protect(s.handleGetTask))
	mux.Handle("PUT /onboarding/tasks/{id}", protect(s.handleUpdateTask, staff...))
	mux.Handle("DELETE /onboarding/tasks/{id}", protect(s.handleDeleteTask, admin))
	mux.Handle("PUT /onboarding/tasks/{id}/status", protect(s.handleTaskStatus))
	mux.Handle("POST /onboarding/tasks/{id}/comments", protect(s.handleTaskComment))
	mux.Handle("PUT /onboarding/tasks/{id}/checklist/{item}", protect(s.handleTaskChecklist))
	mux.Handle("GET /onboarding/overdue", protect(s.handleOverdueTasks, managers...))
	mux.Handle("GET /onboarding/statistics", protect(s.handleTaskStatistics, managers...))

	mux.Handle("GET /dashboard", protect(s.handleDashboard, managers...))

	return mux
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		s.Close()
		return errors.Wrap(err, "server error")
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server shutdown failed")
	}
	s.Close()
	s.logger.Info("server stopped")
	return nil
}

// Close releases the limiter, Redis and the database pool.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	for _, c := range s.closers {
		c()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)
		allowed, info := s.rateLimiter.Allow(r.Context(), clientID, r.URL.Path, r.Method)

		s.setRateLimitHeaders(w, info)
		if !allowed {
			metrics.RateLimited.Inc()
			s.rateLimitResponse(w, clientID, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging logs each request and records its metrics.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		s.logger.Info("request",
			zap.String(logger.FieldRequestID, requestID),
			zap.String(logger.FieldMethod, r.Method),
			zap.String(logger.FieldPath, r.URL.Path),
			zap.Int(logger.FieldStatus, rec.status),
			zap.Int64(logger.FieldDurationMS, elapsed.Milliseconds()),
			zap.String("remote_addr", r.RemoteAddr))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ping(ctx); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// the status line is already out, nothing useful to do on failure
	_ = json.NewEncoder(w).Encode(data)
}

// errorResponse writes an error JSON response
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID extracts the client identifier from the request.
// It uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, clientID string, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("rate limit exceeded",
		zap.String("client", clientID),
		zap.Int("limit", info.Limit),
		zap.Time("reset", info.ResetTime))

	jsonResponse(w, http.StatusTooManyRequests, response)
}
