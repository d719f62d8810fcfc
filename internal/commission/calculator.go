package commission

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/perkforge/loyalty-engine/internal/domain"
)

var (
	// ErrNegativeSourceAmount is returned for a negative source amount.
	ErrNegativeSourceAmount = errors.New("source amount must not be negative")
	// ErrNegativePlanValue is returned for a negative plan value.
	ErrNegativePlanValue = errors.New("plan value must not be negative")
)

// Result describes a computed commission.
type Result struct {
	Amount       int64
	SourceAmount int64
	PlanType     string
	PlanValue    int64
}

var basisPointDivisor = big.NewInt(10000)

// Calculate converts a plan definition and a source amount in minor units
// into a commission amount. FIXED plans pay the plan value regardless of the
// source amount. PERCENTAGE plans interpret the plan value as basis points
// and divide with round-half-to-even, so many small transactions carry no
// systematic upward bias. Negative inputs are rejected, never clamped.
func Calculate(plan domain.CommissionPlan, sourceAmountCents int64) (*Result, error) {
	if sourceAmountCents < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeSourceAmount, sourceAmountCents)
	}
	if plan.Value < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativePlanValue, plan.Value)
	}

	var amount int64
	switch plan.Type {
	case domain.PlanTypeFixed:
		amount = plan.Value
	case domain.PlanTypePercentage:
		amount = divideHalfToEven(sourceAmountCents, plan.Value)
	default:
		return nil, fmt.Errorf("unknown commission plan type: %q", plan.Type)
	}

	return &Result{
		Amount:       amount,
		SourceAmount: sourceAmountCents,
		PlanType:     plan.Type,
		PlanValue:    plan.Value,
	}, nil
}

// divideHalfToEven computes sourceCents * basisPoints / 10000 over big
// integers, rounding the final division half to even. Floating point never
// enters the computation.
func divideHalfToEven(sourceCents, basisPoints int64) int64 {
	numerator := new(big.Int).Mul(big.NewInt(sourceCents), big.NewInt(basisPoints))

	quotient, remainder := new(big.Int).QuoRem(numerator, basisPointDivisor, new(big.Int))

	// Compare the doubled remainder against the divisor to pick the side of
	// the half, breaking exact halves toward the even quotient.
	doubled := new(big.Int).Lsh(remainder, 1)
	switch doubled.Cmp(basisPointDivisor) {
	case 1:
		quotient.Add(quotient, big.NewInt(1))
	case 0:
		if quotient.Bit(0) == 1 {
			quotient.Add(quotient, big.NewInt(1))
		}
	}

	return quotient.Int64()
}
