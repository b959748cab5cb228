// Package liquidity defines the venue the raise seeds with its liquidity
// bucket: a paired token and capital deposit answered by a pool receipt.
package liquidity

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/louisbranch/fanvest/internal/platform/errors"
)

// ErrUnavailable indicates the venue could not accept the deposit.
var ErrUnavailable = apperrors.New(apperrors.CodeLiquidityVenueUnavailable, "liquidity venue unavailable")

// PoolReceipt acknowledges a liquidity deposit.
type PoolReceipt struct {
	PoolID       string    `json:"pool_id"`
	TokenAmount  uint64    `json:"token_amount"`
	PairedAmount uint64    `json:"paired_amount"`
	Shares       uint64    `json:"shares"`
	SeededAt     time.Time `json:"seeded_at"`
}

// Venue seeds a liquidity pool.
type Venue interface {
	SeedLiquidity(ctx context.Context, tokenAmount, pairedAmount uint64) (PoolReceipt, error)
}

// Memory is an in-process venue that keeps one pool and accumulates deposits.
type Memory struct {
	mu       sync.Mutex
	poolID   string
	fail     error
	deposits []PoolReceipt
	now      func() time.Time
}

// NewMemory returns an in-memory venue for pool poolID.
func NewMemory(poolID string) *Memory {
	return &Memory{poolID: poolID, now: time.Now}
}

// FailWith makes every later SeedLiquidity call fail with err until cleared
// with nil.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// SeedLiquidity records the deposit and returns a receipt.
func (m *Memory) SeedLiquidity(ctx context.Context, tokenAmount, pairedAmount uint64) (PoolReceipt, error) {
	if err := ctx.Err(); err != nil {
		return PoolReceipt{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return PoolReceipt{}, apperrors.Wrap(apperrors.CodeLiquidityVenueUnavailable, "seed liquidity", m.fail)
	}
	receipt := PoolReceipt{
		PoolID:       m.poolID,
		TokenAmount:  tokenAmount,
		PairedAmount: pairedAmount,
		Shares:       tokenAmount + pairedAmount,
		SeededAt:     m.now().UTC(),
	}
	m.deposits = append(m.deposits, receipt)
	return receipt, nil
}

// Deposits returns the accepted deposits in order.
func (m *Memory) Deposits() []PoolReceipt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PoolReceipt, len(m.deposits))
	copy(out, m.deposits)
	return out
}

// Reserves returns the pooled token and capital totals.
func (m *Memory) Reserves() (tokens, capital uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.deposits {
		tokens += d.TokenAmount
		capital += d.PairedAmount
	}
	return tokens, capital
}

func (m *Memory) String() string {
	return fmt.Sprintf("memory venue %s", m.poolID)
}
