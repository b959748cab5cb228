package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/louisbranch/fanvest/internal/platform/telemetry/metrics"
	"github.com/louisbranch/fanvest/internal/platform/timeouts"
	"github.com/louisbranch/fanvest/internal/services/fanvest/app"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Options configure the API handler.
type Options struct {
	Protocol *app.Protocol
	// AuthSecret signs bearer tokens. Empty enables header auth.
	AuthSecret  string
	Limiter     *RateLimiter
	CORSOrigins []string
	// MCP is mounted at /mcp when set.
	MCP    http.Handler
	Logger *slog.Logger
}

// Server holds the handler dependencies.
type Server struct {
	protocol *app.Protocol
	logger   *slog.Logger
}

// NewHandler builds the chi router for the API.
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{protocol: opts.Protocol, logger: logger}
	auth := NewAuthenticator(opts.AuthSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "Accept-Language", AccountHeader},
			ExposedHeaders: []string{"Retry-After"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
		r.Handle("/mcp/*", opts.MCP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(timeouts.Request))
		r.Use(auth.Middleware)
		if opts.Limiter != nil {
			r.Use(opts.Limiter.Middleware)
		}
		r.Route("/raise", s.raiseRoutes)
		r.Route("/vesting", s.vestingRoutes)
		r.Route("/governance", s.governanceRoutes)
		r.Get("/ledger/{ledger}/{account}", s.handleBalance)
		r.Post("/admin/capital/deposit", s.handleDeposit)
		r.Post("/admin/ownership", s.handleTransferOwnership)
		r.Get("/events", s.handleEvents)
		r.Get("/events/verify", s.handleVerify)
	})
	return r
}

// decode reads a JSON body into dst, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		invalidInput(w, r, "body")
		return false
	}
	return true
}

// pathID parses a numeric URL parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		invalidInput(w, r, name)
		return 0, false
	}
	return id, true
}
