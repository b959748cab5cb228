package liquidity

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/louisbranch/fanvest/internal/platform/errors"
)

func TestMemorySeedLiquidity(t *testing.T) {
	venue := NewMemory("pool-1")

	receipt, err := venue.SeedLiquidity(context.Background(), 900, 90)
	if err != nil {
		t.Fatalf("SeedLiquidity() error = %v", err)
	}
	if receipt.PoolID != "pool-1" || receipt.TokenAmount != 900 || receipt.PairedAmount != 90 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	tokens, capital := venue.Reserves()
	if tokens != 900 || capital != 90 {
		t.Fatalf("Reserves() = (%d, %d), want (900, 90)", tokens, capital)
	}
}

func TestMemoryFailure(t *testing.T) {
	venue := NewMemory("pool-1")
	venue.FailWith(errors.New("halted"))

	_, err := venue.SeedLiquidity(context.Background(), 1, 1)
	if !apperrors.HasCode(err, apperrors.CodeLiquidityVenueUnavailable) {
		t.Fatalf("SeedLiquidity() error = %v, want venue unavailable", err)
	}
	if len(venue.Deposits()) != 0 {
		t.Fatal("expected failed deposit to be dropped")
	}

	venue.FailWith(nil)
	if _, err := venue.SeedLiquidity(context.Background(), 1, 1); err != nil {
		t.Fatalf("SeedLiquidity() after recovery error = %v", err)
	}
}
