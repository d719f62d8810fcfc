package commission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/perkforge/loyalty-engine/internal/domain"
)

func TestCalculate_FixedPlanIgnoresSourceAmount(t *testing.T) {
	plan := domain.CommissionPlan{Type: domain.PlanTypeFixed, Value: 500}

	result, err := Calculate(plan, 123456)

	assert.NoError(t, err)
	assert.Equal(t, int64(500), result.Amount)
	assert.Equal(t, int64(123456), result.SourceAmount)
	assert.Equal(t, domain.PlanTypeFixed, result.PlanType)
}

func TestCalculate_FixedPlanOnZeroSource(t *testing.T) {
	plan := domain.CommissionPlan{Type: domain.PlanTypeFixed, Value: 250}

	result, err := Calculate(plan, 0)

	assert.NoError(t, err)
	assert.Equal(t, int64(250), result.Amount)
}

func TestCalculate_PercentagePlanBasisPoints(t *testing.T) {
	cases := []struct {
		name        string
		basisPoints int64
		source      int64
		want        int64
	}{
		{"ten percent of 100 dollars", 1000, 10000, 1000},
		{"five percent of 50 dollars", 500, 5000, 250},
		{"one basis point of a dollar", 1, 100, 0},
		{"full amount", 10000, 7777, 7777},
		{"zero rate", 0, 10000, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := domain.CommissionPlan{Type: domain.PlanTypePercentage, Value: tc.basisPoints}

			result, err := Calculate(plan, tc.source)

			assert.NoError(t, err)
			assert.Equal(t, tc.want, result.Amount)
		})
	}
}

func TestCalculate_PercentageRoundsHalfToEven(t *testing.T) {
	// 2.5% of 25 cents is 0.625 cents. 1.5% of 2500 is 37.5 cents. Exact
	// halves break toward the even cent in both directions.
	cases := []struct {
		name        string
		basisPoints int64
		source      int64
		want        int64
	}{
		{"0.5 rounds down to 0", 50, 100, 0},      // 100 * 50 / 10000 = 0.5
		{"1.5 rounds up to 2", 50, 300, 2},        // 300 * 50 / 10000 = 1.5
		{"2.5 rounds down to 2", 50, 500, 2},      // 500 * 50 / 10000 = 2.5
		{"3.5 rounds up to 4", 50, 700, 4},        // 700 * 50 / 10000 = 3.5
		{"37.5 rounds up to 38", 150, 2500, 38},   // 2500 * 150 / 10000 = 37.5
		{"above half rounds up", 333, 100, 3},     // 3.33
		{"just below half stays", 49, 100, 0},     // 0.49
		{"just above half rounds", 51, 100, 1},    // 0.51
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := domain.CommissionPlan{Type: domain.PlanTypePercentage, Value: tc.basisPoints}

			result, err := Calculate(plan, tc.source)

			assert.NoError(t, err)
			assert.Equal(t, tc.want, result.Amount)
		})
	}
}

func TestCalculate_NoBiasAcrossManySmallAmounts(t *testing.T) {
	// Summing round-half-to-even results over consecutive amounts should land
	// within one cent of the exact sum, where half-up would drift upward.
	plan := domain.CommissionPlan{Type: domain.PlanTypePercentage, Value: 50}

	var total int64
	var exactNumerator int64
	for source := int64(1); source <= 2000; source++ {
		result, err := Calculate(plan, source)
		assert.NoError(t, err)
		total += result.Amount
		exactNumerator += source * 50
	}

	exact := exactNumerator / 10000
	assert.InDelta(t, float64(exact), float64(total), 1)
}

func TestCalculate_RejectsNegativeSourceAmount(t *testing.T) {
	plan := domain.CommissionPlan{Type: domain.PlanTypePercentage, Value: 1000}

	result, err := Calculate(plan, -1)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNegativeSourceAmount)
}

func TestCalculate_RejectsNegativePlanValue(t *testing.T) {
	plan := domain.CommissionPlan{Type: domain.PlanTypeFixed, Value: -500}

	result, err := Calculate(plan, 10000)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNegativePlanValue)
}

func TestCalculate_RejectsUnknownPlanType(t *testing.T) {
	plan := domain.CommissionPlan{Type: "TIERED", Value: 100}

	result, err := Calculate(plan, 10000)

	assert.Nil(t, result)
	assert.Error(t, err)
}

func TestCalculate_LargeAmountsDoNotOverflow(t *testing.T) {
	// Source * basis points here exceeds int64, so only the big.Int path
	// survives.
	plan := domain.CommissionPlan{Type: domain.PlanTypePercentage, Value: 10000}

	result, err := Calculate(plan, 5_000_000_000_000_000)

	assert.NoError(t, err)
	assert.Equal(t, int64(5_000_000_000_000_000), result.Amount)
}
