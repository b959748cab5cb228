package raise

import "github.com/louisbranch/fanvest/internal/services/fanvest/domain/amount"

// PriceScale is the token minor units bought by Config.Price capital.
const PriceScale = 1_000_000

// Split percentages of the raised capital. The vesting bucket takes the
// remainder, so truncation dust always lands there.
const (
	ImmediatePercent = 20
	LiquidityPercent = 30
	VestingPercent   = 100 - ImmediatePercent - LiquidityPercent
)

// Split is the allocation of a finalized raise.
type Split struct {
	Raised    uint64 `json:"raised"`
	Immediate uint64 `json:"immediate"`
	Liquidity uint64 `json:"liquidity"`
	Vesting   uint64 `json:"vesting"`
	// VestingTokens is the token-reward reserve matching the vesting bucket.
	VestingTokens uint64 `json:"vesting_tokens"`
	// LiquidityTokens is paired with the liquidity bucket at the venue.
	LiquidityTokens uint64 `json:"liquidity_tokens"`
}

// TokensFor converts capital into token minor units at price, truncating.
func TokensFor(capital, price uint64) (uint64, error) {
	return amount.MulDiv(capital, PriceScale, price)
}

// ComputeSplit divides raised capital into the immediate, liquidity and
// vesting buckets.
func ComputeSplit(raised, price uint64) (Split, error) {
	immediate, err := amount.MulDiv(raised, ImmediatePercent, 100)
	if err != nil {
		return Split{}, err
	}
	liquidityBucket, err := amount.MulDiv(raised, LiquidityPercent, 100)
	if err != nil {
		return Split{}, err
	}
	split := Split{
		Raised:    raised,
		Immediate: immediate,
		Liquidity: liquidityBucket,
		Vesting:   raised - immediate - liquidityBucket,
	}
	if split.VestingTokens, err = TokensFor(split.Vesting, price); err != nil {
		return Split{}, err
	}
	if split.LiquidityTokens, err = TokensFor(split.Liquidity, price); err != nil {
		return Split{}, err
	}
	return split, nil
}
