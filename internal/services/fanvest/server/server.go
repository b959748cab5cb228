package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonboulle/clockwork"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	platformgrpc "github.com/louisbranch/fanvest/internal/platform/grpc"
	"github.com/louisbranch/fanvest/internal/platform/timeouts"
	"github.com/louisbranch/fanvest/internal/services/fanvest/api/httpapi"
	"github.com/louisbranch/fanvest/internal/services/fanvest/api/mcpapi"
	"github.com/louisbranch/fanvest/internal/services/fanvest/app"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/governance"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/ledger"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/liquidity"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/liquidity/httpvenue"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage/integrity"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage/postgres"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage/sqlite"
)

// Config is the runtime configuration.
type Config struct {
	HTTPAddr   string
	HealthAddr string
	// DBPath is the SQLite journal used unless PostgresURL is set.
	DBPath      string
	PostgresURL string

	InstanceID          string
	Owner               string
	Entity              string
	BeneficiaryShareBps uint32
	AutoOpenVotes       bool
	Governance          governance.Config

	AuthSecret  string
	VenueURL    string
	RateLimit   float64
	RateBurst   int
	MaxConns    int
	CORSOrigins []string
	HMACKeys    string
	HMACKeyID   string
}

// Runtime is an assembled, not yet serving, fanvest process.
type Runtime struct {
	cfg      Config
	logger   *slog.Logger
	store    storage.Store
	protocol *app.Protocol
	limiter  *httpapi.RateLimiter
	handler  http.Handler
	health   *platformgrpc.HealthServer
}

// New opens the store and builds the protocol and handlers.
func New(ctx context.Context, cfg Config, clock clockwork.Clock, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	keyring, err := integrity.ParseKeyring(cfg.HMACKeys, cfg.HMACKeyID)
	if err != nil {
		return nil, fmt.Errorf("journal keyring: %w", err)
	}
	store, err := openStore(ctx, cfg, keyring)
	if err != nil {
		return nil, err
	}

	protocol, err := app.New(ctx, app.Options{
		InstanceID:          cfg.InstanceID,
		Owner:               ledger.Account(cfg.Owner),
		Entity:              ledger.Account(cfg.Entity),
		Governance:          cfg.Governance,
		BeneficiaryShareBps: cfg.BeneficiaryShareBps,
		AutoOpenVotes:       cfg.AutoOpenVotes,
		Venue:               newVenue(cfg),
		Store:               store,
		Keyring:             keyring,
		Clock:               clock,
		Logger:              logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build protocol: %w", err)
	}

	rt := &Runtime{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		protocol: protocol,
		health:   platformgrpc.NewHealthServer(),
	}
	if cfg.RateLimit > 0 {
		rt.limiter = httpapi.NewRateLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))
	}
	rt.handler = httpapi.NewHandler(httpapi.Options{
		Protocol:    protocol,
		AuthSecret:  cfg.AuthSecret,
		Limiter:     rt.limiter,
		CORSOrigins: cfg.CORSOrigins,
		MCP:         mcpapi.NewHandler(protocol),
		Logger:      logger,
	})
	if cfg.AuthSecret == "" {
		logger.Warn("bearer auth disabled; trusting the account header", "header", httpapi.AccountHeader)
	}
	return rt, nil
}

// Protocol returns the assembled protocol.
func (rt *Runtime) Protocol() *app.Protocol {
	return rt.protocol
}

// Handler returns the HTTP handler.
func (rt *Runtime) Handler() http.Handler {
	return rt.handler
}

func openStore(ctx context.Context, cfg Config, keyring *integrity.Keyring) (storage.Store, error) {
	if strings.TrimSpace(cfg.PostgresURL) != "" {
		store, err := postgres.Open(ctx, cfg.PostgresURL, keyring)
		if err != nil {
			return nil, fmt.Errorf("open postgres journal: %w", err)
		}
		return store, nil
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	store, err := sqlite.Open(ctx, cfg.DBPath, keyring)
	if err != nil {
		return nil, fmt.Errorf("open sqlite journal: %w", err)
	}
	return store, nil
}

func newVenue(cfg Config) liquidity.Venue {
	if strings.TrimSpace(cfg.VenueURL) == "" {
		return liquidity.NewMemory(cfg.InstanceID + "-pool")
	}
	return httpvenue.New(cfg.VenueURL, cfg.InstanceID+"-pool",
		httpvenue.WithHTTPClient(&http.Client{Timeout: timeouts.Venue}))
}

// Serve listens on the configured addresses until ctx ends, then shuts down
// gracefully and closes the store.
func (rt *Runtime) Serve(ctx context.Context) error {
	defer func() {
		if err := rt.store.Close(); err != nil {
			rt.logger.Warn("close journal", "error", err)
		}
	}()

	httpLis, err := net.Listen("tcp", rt.cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http on %s: %w", rt.cfg.HTTPAddr, err)
	}
	if rt.cfg.MaxConns > 0 {
		httpLis = netutil.LimitListener(httpLis, rt.cfg.MaxConns)
	}
	healthLis, err := net.Listen("tcp", rt.cfg.HealthAddr)
	if err != nil {
		_ = httpLis.Close()
		return fmt.Errorf("listen health on %s: %w", rt.cfg.HealthAddr, err)
	}
	return rt.serve(ctx, httpLis, healthLis)
}

func (rt *Runtime) serve(ctx context.Context, httpLis, healthLis net.Listener) error {
	srv := &http.Server{
		Handler:           rt.handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
		IdleTimeout:       timeouts.Idle,
	}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rt.logger.Info("http api listening", "addr", httpLis.Addr().String(), "instance", rt.protocol.InstanceID())
		if err := srv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		rt.logger.Info("grpc health listening", "addr", healthLis.Addr().String())
		return rt.health.Serve(ctx, healthLis, timeouts.Shutdown)
	})
	if rt.limiter != nil {
		g.Go(func() error {
			rt.limiter.Run(ctx)
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		rt.health.SetServing(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		rt.logger.Info("http api stopped")
		return nil
	})

	rt.health.SetServing(true)
	return g.Wait()
}
