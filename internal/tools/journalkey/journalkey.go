// Package journalkey generates journal signing keys and rotates keyring
// specs for FANVEST_HMAC_KEYS.
package journalkey

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/louisbranch/fanvest/internal/services/fanvest/storage/integrity"
)

// Config holds key generation options.
type Config struct {
	Bytes int
	KeyID string
	// Existing is a current keyring spec; the new key is appended to it so
	// older journal entries stay verifiable.
	Existing string
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Bytes: 32, KeyID: "v1"}
	fs.IntVar(&cfg.Bytes, "bytes", cfg.Bytes, "number of random bytes")
	fs.StringVar(&cfg.KeyID, "id", cfg.KeyID, "key id of the generated key")
	fs.StringVar(&cfg.Existing, "existing", cfg.Existing, "current id=secret keyring spec to rotate")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run generates the key and writes the env lines to out.
func Run(cfg Config, out io.Writer, reader io.Reader) error {
	if cfg.Bytes <= 0 {
		return errors.New("bytes must be greater than zero")
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" || strings.ContainsAny(keyID, "=,") {
		return fmt.Errorf("invalid key id %q", cfg.KeyID)
	}
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}

	existing := strings.TrimSpace(cfg.Existing)
	if existing != "" {
		if !strings.Contains(existing, "=") {
			return errors.New("existing keyring must use id=secret entries")
		}
		for _, entry := range strings.Split(existing, ",") {
			id, _, _ := strings.Cut(strings.TrimSpace(entry), "=")
			if strings.TrimSpace(id) == keyID {
				return fmt.Errorf("key id %q already in keyring", keyID)
			}
		}
	}

	buf := make([]byte, cfg.Bytes)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return fmt.Errorf("generate random bytes: %w", err)
	}
	spec := keyID + "=" + hex.EncodeToString(buf)
	if existing != "" {
		spec = existing + "," + spec
	}
	if _, err := integrity.ParseKeyring(spec, keyID); err != nil {
		return fmt.Errorf("build keyring: %w", err)
	}
	_, err := fmt.Fprintf(out, "FANVEST_HMAC_KEYS=%s\nFANVEST_HMAC_KEY_ID=%s\n", spec, keyID)
	return err
}
