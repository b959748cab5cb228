// Package amount holds the integer arithmetic shared by the raise, vesting and
// governance state machines.
//
// Every value is an unsigned count of minor units. Products are computed in
// 256-bit space so a*b/d never overflows before the division; every division
// truncates.
package amount

import (
	"math"

	"github.com/holiman/uint256"

	apperrors "github.com/louisbranch/fanvest/internal/platform/errors"
)

// BasisPoints is the denominator for ratios expressed in basis points.
const BasisPoints = 10_000

var (
	// ErrOverflow indicates a result that does not fit in 64 bits.
	ErrOverflow = apperrors.New(apperrors.CodeAmountOverflow, "amount overflows")
	// ErrDivideByZero indicates a ratio with a zero denominator.
	ErrDivideByZero = apperrors.New(apperrors.CodeInvalidAmount, "division by zero")
)

// MulDiv returns a*b/d truncated toward zero.
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivideByZero
	}
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	quotient := product.Div(product, uint256.NewInt(d))
	if !quotient.IsUint64() {
		return 0, ErrOverflow
	}
	return quotient.Uint64(), nil
}

// Add returns a+b or ErrOverflow.
func Add(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Share returns value*bps/10000. The result never exceeds value when bps is
// at most BasisPoints.
func Share(value uint64, bps uint32) uint64 {
	share, err := MulDiv(value, uint64(bps), BasisPoints)
	if err != nil {
		return 0
	}
	return share
}

// ProductAtLeast reports whether a*b >= c*d without overflow.
func ProductAtLeast(a, b, c, d uint64) bool {
	left := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	right := new(uint256.Int).Mul(uint256.NewInt(c), uint256.NewInt(d))
	return !left.Lt(right)
}
