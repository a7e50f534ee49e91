package api

import (
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/organizator/organizator/pkg/audit"
	"github.com/organizator/organizator/pkg/auth"
	"github.com/organizator/organizator/pkg/config"
	"github.com/organizator/organizator/pkg/files"
	"github.com/organizator/organizator/pkg/httputil"
	"github.com/organizator/organizator/pkg/memo"
	"github.com/organizator/organizator/pkg/middleware"
	"github.com/organizator/organizator/pkg/observability"
	"github.com/organizator/organizator/pkg/rbac"
	"github.com/organizator/organizator/pkg/session"
	"github.com/organizator/organizator/pkg/storage"
	"github.com/organizator/organizator/pkg/users"
)

// Deps carries everything the server needs. Logger, Metrics, Audit and
// Redis may be nil; nil audit falls back to a no-op sink and nil redis
// disables login rate limiting.
type Deps struct {
	Logger   *observability.Logger
	Metrics  *observability.Metrics
	Sessions *session.Store
	Verifier *auth.Verifier
	Users    *users.Store
	Memos    *memo.Store
	Files    *files.Store
	Blobs    storage.BlobStore
	Gate     *rbac.Gate
	Audit    audit.Logger
	Redis    *redis.Client

	Policy     config.AccessPolicy
	RootUserID int

	// TraceRequests wraps the handler chain in otelhttp spans.
	TraceRequests bool

	// LoginLimit bounds login attempts per client IP; nil uses defaults.
	LoginLimit *middleware.LoginLimitConfig
}

// Server is the main HTTP handler.
type Server struct {
	router  *mux.Router
	handler http.Handler

	authHandlers *AuthHandlers
	memoHandlers *MemoHandlers
	fileHandlers *FileHandlers
	userHandlers *UserHandlers
}

// NewServer creates the API server and wires the middleware chain:
// request id, logging, metrics, panic recovery, then security resolution.
func NewServer(deps Deps) *Server {
	if deps.Audit == nil {
		deps.Audit = audit.NewNopLogger()
	}

	s := &Server{
		router: mux.NewRouter(),
	}

	s.authHandlers = NewAuthHandlers(deps)
	s.memoHandlers = NewMemoHandlers(deps)
	s.fileHandlers = NewFileHandlers(deps)
	s.userHandlers = NewUserHandlers(deps)

	limiter := middleware.NewLoginLimiter(deps.Redis, deps.LoginLimit, deps.Metrics)
	s.setupRoutes(limiter)

	security := middleware.NewSecurity(deps.Sessions, deps.Metrics)

	var handler http.Handler = security.Handler(s.router)
	handler = httputil.RecoveryMiddleware(deps.Logger)(handler)
	handler = httputil.MetricsMiddleware(deps.Metrics)(handler)
	handler = httputil.LoggingMiddleware(deps.Logger)(handler)
	handler = httputil.RequestIDMiddleware(handler)
	if deps.TraceRequests {
		handler = otelhttp.NewHandler(handler, "organizator")
	}
	s.handler = handler

	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes(limiter *middleware.LoginLimiter) {
	// Session lifecycle
	s.router.Handle("/login", limiter.Handler(http.HandlerFunc(s.authHandlers.Login))).Methods("POST")
	s.router.HandleFunc("/logout", s.authHandlers.Logout).Methods("POST")
	s.router.HandleFunc("/password", s.authHandlers.ChangePassword).Methods("POST")

	// Users
	s.router.HandleFunc("/user", s.userHandlers.List).Methods("GET")
	s.router.HandleFunc("/user/{id:[0-9]+}", s.userHandlers.Get).Methods("GET")

	// Memos
	s.router.HandleFunc("/memo", s.memoHandlers.ListTitles).Methods("GET")
	s.router.HandleFunc("/memo", s.memoHandlers.Search).Methods("POST")
	s.router.HandleFunc("/memo", s.memoHandlers.Write).Methods("PUT")
	s.router.HandleFunc("/memo/{id:[0-9]+}", s.memoHandlers.Get).Methods("GET")
	s.router.HandleFunc("/memogroup", s.memoHandlers.ListGroups).Methods("GET")

	// Files
	s.router.HandleFunc("/file", s.fileHandlers.Upload).Methods("POST")
	s.router.HandleFunc("/file/{id}", s.fileHandlers.Download).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
