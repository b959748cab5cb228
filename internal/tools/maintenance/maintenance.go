// Package maintenance checks fanvest journals offline: hash chain and
// signature verification plus snapshot lag against the journal head.
package maintenance

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/louisbranch/fanvest/internal/services/fanvest/storage"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage/integrity"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage/postgres"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage/sqlite"
)

// Config holds maintenance command configuration.
type Config struct {
	InstanceID  string
	InstanceIDs string
	DBPath      string        `env:"FANVEST_DB_PATH"`
	PostgresURL string        `env:"FANVEST_POSTGRES_URL"`
	HMACKeys    string        `env:"FANVEST_HMAC_KEYS"`
	HMACKeyID   string        `env:"FANVEST_HMAC_KEY_ID" envDefault:"v1"`
	Timeout     time.Duration `env:"FANVEST_MAINTENANCE_TIMEOUT" envDefault:"10m"`
	JSONOutput  bool
}

// ParseConfig parses env and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "fanvest.db")
	}
	fs.StringVar(&cfg.InstanceID, "instance", "", "instance id to check")
	fs.StringVar(&cfg.InstanceIDs, "instances", "", "comma-separated instance ids to check")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite journal path (default: FANVEST_DB_PATH or data/fanvest.db)")
	fs.StringVar(&cfg.PostgresURL, "postgres-url", cfg.PostgresURL, "PostgreSQL journal URL (overrides -db)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output JSON reports")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Report is the outcome for one instance.
type Report struct {
	InstanceID    string `json:"instance_id"`
	Checked       uint64 `json:"checked"`
	LastSeq       uint64 `json:"last_seq"`
	LastChainHash string `json:"last_chain_hash,omitempty"`
	SnapshotSeq   uint64 `json:"snapshot_seq"`
	HasSnapshot   bool   `json:"has_snapshot"`
	Error         string `json:"error,omitempty"`
}

// OK reports whether the journal verified and the snapshot matches its head.
func (r Report) OK() bool {
	return r.Error == "" && (!r.HasSnapshot || r.SnapshotSeq == r.LastSeq)
}

// ErrCheckFailed is returned when any instance fails its checks.
var ErrCheckFailed = errors.New("journal check failed")

// Run opens the configured store and checks every requested instance.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	ids, err := resolveInstanceIDs(cfg.InstanceID, cfg.InstanceIDs)
	if err != nil {
		return err
	}
	keyring, err := integrity.ParseKeyring(cfg.HMACKeys, cfg.HMACKeyID)
	if err != nil {
		return fmt.Errorf("journal keyring: %w", err)
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	store, err := openStore(ctx, cfg, keyring)
	if err != nil {
		return err
	}
	defer store.Close()
	return runWithStore(ctx, store, keyring, ids, cfg.JSONOutput, out)
}

func openStore(ctx context.Context, cfg Config, keyring *integrity.Keyring) (storage.Store, error) {
	if strings.TrimSpace(cfg.PostgresURL) != "" {
		return postgres.Open(ctx, cfg.PostgresURL, keyring)
	}
	return sqlite.Open(ctx, cfg.DBPath, keyring)
}

func runWithStore(ctx context.Context, store storage.Store, keyring *integrity.Keyring, ids []string, jsonOutput bool, out io.Writer) error {
	failed := 0
	for _, id := range ids {
		report := check(ctx, store, keyring, id)
		if !report.OK() {
			failed++
		}
		if jsonOutput {
			if err := json.NewEncoder(out).Encode(report); err != nil {
				return fmt.Errorf("encode report: %w", err)
			}
			continue
		}
		printReport(out, report)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d instances", ErrCheckFailed, failed, len(ids))
	}
	return nil
}

func check(ctx context.Context, store storage.Store, keyring *integrity.Keyring, instanceID string) Report {
	report := Report{InstanceID: instanceID}
	verified, err := storage.VerifyJournal(ctx, store, keyring, instanceID)
	report.Checked = verified.Checked
	report.LastSeq = verified.LastSeq
	report.LastChainHash = verified.LastChainHash
	if err != nil {
		report.Error = err.Error()
		return report
	}
	snap, err := store.GetSnapshot(ctx, instanceID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		report.Error = fmt.Sprintf("load snapshot: %v", err)
	default:
		report.HasSnapshot = true
		report.SnapshotSeq = snap.EventSeq
	}
	return report
}

func printReport(out io.Writer, r Report) {
	status := "ok"
	if !r.OK() {
		status = "FAIL"
	}
	fmt.Fprintf(out, "[%s] instance %s: %d events verified through seq %d\n", status, r.InstanceID, r.Checked, r.LastSeq)
	if r.Error != "" {
		fmt.Fprintf(out, "  error: %s\n", r.Error)
	}
	if !r.HasSnapshot {
		fmt.Fprintln(out, "  snapshot: none")
		return
	}
	if r.SnapshotSeq != r.LastSeq {
		fmt.Fprintf(out, "  snapshot: seq %d behind journal head %d\n", r.SnapshotSeq, r.LastSeq)
		return
	}
	fmt.Fprintf(out, "  snapshot: seq %d\n", r.SnapshotSeq)
}

func resolveInstanceIDs(single, list string) ([]string, error) {
	var ids []string
	if id := strings.TrimSpace(single); id != "" {
		ids = append(ids, id)
	}
	for _, id := range strings.Split(list, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, errors.New("an instance id is required")
	}
	return ids, nil
}
