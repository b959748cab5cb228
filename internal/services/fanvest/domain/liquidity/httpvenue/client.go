// Package httpvenue is a liquidity venue client speaking JSON over HTTP.
package httpvenue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/louisbranch/fanvest/internal/platform/errors"
	"github.com/louisbranch/fanvest/internal/platform/retry"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/liquidity"
)

const seedPath = "/v1/pools/seed"

// Client posts seed requests to a remote venue.
type Client struct {
	baseURL string
	poolID  string
	http    *http.Client
	retry   retry.Config
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithRetry overrides the retry policy.
func WithRetry(cfg retry.Config) Option {
	return func(cl *Client) { cl.retry = cfg }
}

// New returns a client for the venue at baseURL.
func New(baseURL, poolID string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		poolID:  poolID,
		http:    &http.Client{Timeout: 10 * time.Second},
		retry:   retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type seedRequest struct {
	PoolID       string `json:"pool_id"`
	TokenAmount  uint64 `json:"token_amount"`
	PairedAmount uint64 `json:"paired_amount"`
}

// SeedLiquidity posts the deposit, retrying transient failures. Any final
// failure is reported as liquidity.ErrUnavailable.
func (c *Client) SeedLiquidity(ctx context.Context, tokenAmount, pairedAmount uint64) (liquidity.PoolReceipt, error) {
	body, err := json.Marshal(seedRequest{PoolID: c.poolID, TokenAmount: tokenAmount, PairedAmount: pairedAmount})
	if err != nil {
		return liquidity.PoolReceipt{}, fmt.Errorf("encode seed request: %w", err)
	}

	var receipt liquidity.PoolReceipt
	err = retry.Do(ctx, c.retry, func(ctx context.Context) error {
		var callErr error
		receipt, callErr = c.post(ctx, body)
		return callErr
	})
	if err != nil {
		return liquidity.PoolReceipt{}, apperrors.Wrap(apperrors.CodeLiquidityVenueUnavailable, "seed liquidity", err)
	}
	return receipt, nil
}

func (c *Client) post(ctx context.Context, body []byte) (liquidity.PoolReceipt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+seedPath, bytes.NewReader(body))
	if err != nil {
		return liquidity.PoolReceipt{}, retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return liquidity.PoolReceipt{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return liquidity.PoolReceipt{}, &retry.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var receipt liquidity.PoolReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return liquidity.PoolReceipt{}, retry.Permanent(fmt.Errorf("decode receipt: %w", err))
	}
	if receipt.PoolID == "" {
		receipt.PoolID = c.poolID
	}
	return receipt, nil
}
