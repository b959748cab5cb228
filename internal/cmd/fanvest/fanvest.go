// Package fanvest parses fanvest command flags and starts the protocol
// runtime.
package fanvest

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	entrypoint "github.com/louisbranch/fanvest/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/fanvest/internal/platform/grpc"
	"github.com/louisbranch/fanvest/internal/platform/logging"
	"github.com/louisbranch/fanvest/internal/platform/timeouts"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/governance"
	"github.com/louisbranch/fanvest/internal/services/fanvest/server"
)

// Config holds fanvest command configuration.
type Config struct {
	HTTPAddr    string `env:"FANVEST_HTTP_ADDR" envDefault:":8080"`
	HealthAddr  string `env:"FANVEST_HEALTH_ADDR" envDefault:":8081"`
	DBPath      string `env:"FANVEST_DB_PATH" envDefault:"data/fanvest.db"`
	PostgresURL string `env:"FANVEST_POSTGRES_URL"`

	InstanceID          string `env:"FANVEST_INSTANCE_ID" envDefault:"default"`
	Owner               string `env:"FANVEST_OWNER"`
	Entity              string `env:"FANVEST_ENTITY"`
	BeneficiaryShareBps uint   `env:"FANVEST_BENEFICIARY_SHARE_BPS" envDefault:"5000"`
	AutoOpenVotes       bool   `env:"FANVEST_AUTO_OPEN_VOTES" envDefault:"true"`

	VotingPeriod    time.Duration `env:"FANVEST_VOTING_PERIOD" envDefault:"168h"`
	QuorumBps       uint          `env:"FANVEST_QUORUM_BPS" envDefault:"1000"`
	ThresholdBps    uint          `env:"FANVEST_THRESHOLD_BPS" envDefault:"5100"`
	ProposalDeposit uint64        `env:"FANVEST_PROPOSAL_DEPOSIT" envDefault:"100"`
	VotingReward    uint64        `env:"FANVEST_VOTING_REWARD" envDefault:"1"`
	MinVotingPower  uint64        `env:"FANVEST_MIN_VOTING_POWER" envDefault:"1"`

	AuthSecret  string   `env:"FANVEST_AUTH_SECRET"`
	VenueURL    string   `env:"FANVEST_VENUE_URL"`
	RateLimit   float64  `env:"FANVEST_RATE_LIMIT" envDefault:"20"`
	RateBurst   int      `env:"FANVEST_RATE_BURST" envDefault:"40"`
	MaxConns    int      `env:"FANVEST_MAX_CONNS" envDefault:"512"`
	CORSOrigins []string `env:"FANVEST_CORS_ORIGINS" envSeparator:","`
	HMACKeys    string   `env:"FANVEST_HMAC_KEYS"`
	HMACKeyID   string   `env:"FANVEST_HMAC_KEY_ID" envDefault:"v1"`

	LogLevel string `env:"FANVEST_LOG_LEVEL" envDefault:"info"`

	// HealthCheck probes a running instance instead of serving.
	HealthCheck bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP API listen address")
	fs.StringVar(&cfg.HealthAddr, "health-addr", cfg.HealthAddr, "gRPC health listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite journal path")
	fs.StringVar(&cfg.PostgresURL, "postgres-url", cfg.PostgresURL, "PostgreSQL journal URL (overrides -db)")
	fs.StringVar(&cfg.InstanceID, "instance", cfg.InstanceID, "Protocol instance id")
	fs.StringVar(&cfg.Owner, "owner", cfg.Owner, "Owner account")
	fs.StringVar(&cfg.Entity, "entity", cfg.Entity, "Entity account receiving released capital")
	fs.StringVar(&cfg.VenueURL, "venue-url", cfg.VenueURL, "Liquidity venue base URL (in-memory pool when empty)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.BoolVar(&cfg.HealthCheck, "healthcheck", false, "Probe the health endpoint and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) serverConfig() (server.Config, error) {
	if strings.TrimSpace(c.Owner) == "" {
		return server.Config{}, fmt.Errorf("owner account is required")
	}
	if strings.TrimSpace(c.Entity) == "" {
		return server.Config{}, fmt.Errorf("entity account is required")
	}
	for _, bps := range []struct {
		name  string
		value uint
	}{
		{"beneficiary share", c.BeneficiaryShareBps},
		{"quorum", c.QuorumBps},
		{"threshold", c.ThresholdBps},
	} {
		if bps.value > 10_000 {
			return server.Config{}, fmt.Errorf("%s %d exceeds 10000 bps", bps.name, bps.value)
		}
	}
	return server.Config{
		HTTPAddr:            c.HTTPAddr,
		HealthAddr:          c.HealthAddr,
		DBPath:              c.DBPath,
		PostgresURL:         c.PostgresURL,
		InstanceID:          c.InstanceID,
		Owner:               c.Owner,
		Entity:              c.Entity,
		BeneficiaryShareBps: uint32(c.BeneficiaryShareBps),
		AutoOpenVotes:       c.AutoOpenVotes,
		Governance: governance.Config{
			VotingPeriod:    c.VotingPeriod,
			QuorumBps:       uint32(c.QuorumBps),
			ThresholdBps:    uint32(c.ThresholdBps),
			ProposalDeposit: c.ProposalDeposit,
			VotingReward:    c.VotingReward,
			MinVotingPower:  c.MinVotingPower,
		},
		AuthSecret:  c.AuthSecret,
		VenueURL:    c.VenueURL,
		RateLimit:   c.RateLimit,
		RateBurst:   c.RateBurst,
		MaxConns:    c.MaxConns,
		CORSOrigins: c.CORSOrigins,
		HMACKeys:    c.HMACKeys,
		HMACKeyID:   c.HMACKeyID,
	}, nil
}

// Run starts the fanvest service, or probes a running one when HealthCheck
// is set.
func Run(ctx context.Context, cfg Config) error {
	if cfg.HealthCheck {
		return platformgrpc.Probe(ctx, probeAddr(cfg.HealthAddr), timeouts.GRPCDial)
	}
	serverCfg, err := cfg.serverConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceFanvest, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		rt, err := server.New(ctx, serverCfg, clockwork.NewRealClock(), logger)
		if err != nil {
			return err
		}
		return rt.Serve(ctx)
	})
}

// probeAddr turns a wildcard listen address into a dialable one.
func probeAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "127.0.0.1" + addr
	}
	return addr
}
