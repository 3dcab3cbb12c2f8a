package pricing_test

import (
	"context"
	"testing"

	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/obohaghogho/fxwallet/pkg/domain"
	"github.com/obohaghogho/fxwallet/pkg/pricing"
	"github.com/obohaghogho/fxwallet/pkg/repository"
	"github.com/obohaghogho/fxwallet/pkg/testutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newPolicy(fees *testutils.FakeFeePolicyRepo) *pricing.Policy {
	return pricing.New(fees, nil, nil)
}

func TestComputeSpread_SellSide(t *testing.T) {
	p := newPolicy(&testutils.FakeFeePolicyRepo{})

	res, err := p.ComputeSpread(pricing.SideSell, dec("95000"), domain.TierStandard)
	require.NoError(t, err)

	assert.True(t, res.FinalPrice.Equal(dec("94525")),
		"final price %s", res.FinalPrice)
	assert.True(t, res.SpreadAmount.Equal(dec("475")))
	assert.True(t, res.SpreadPercentage.Equal(dec("0.005")))
}

func TestComputeSpread_BuySide(t *testing.T) {
	p := newPolicy(&testutils.FakeFeePolicyRepo{})

	res, err := p.ComputeSpread(pricing.SideBuy, dec("100"), domain.TierStandard)
	require.NoError(t, err)
	assert.True(t, res.FinalPrice.Equal(dec("100.5")))
}

func TestComputeSpread_TierMonotonic(t *testing.T) {
	p := newPolicy(&testutils.FakeFeePolicyRepo{})
	market := dec("100")

	tiers := []domain.UserTier{
		domain.TierStandard,
		domain.TierSilver,
		domain.TierGold,
		domain.TierPlatinum,
	}
	var prev decimal.Decimal
	for i, tier := range tiers {
		res, err := p.ComputeSpread(pricing.SideSell, market, tier)
		require.NoError(t, err)
		if i > 0 {
			// Higher tier pays less spread, so gets a better sell price.
			assert.True(t, res.FinalPrice.GreaterThan(prev),
				"tier %s price %s not better than %s", tier, res.FinalPrice, prev)
		}
		prev = res.FinalPrice
	}
}

func TestComputeSpread_NonPositivePrice(t *testing.T) {
	p := newPolicy(&testutils.FakeFeePolicyRepo{})

	_, err := p.ComputeSpread(pricing.SideSell, decimal.Zero, domain.TierStandard)
	assert.ErrorIs(t, err, domain.ErrRateUnavailable)
}

func TestComputeCommission_PercentageRate(t *testing.T) {
	fees := &testutils.FakeFeePolicyRepo{}
	fees.Set(pricing.OpSwap, currency.BTC, repository.FeePolicy{
		Rate: dec("0.0025"),
	})
	p := newPolicy(fees)

	res, err := p.ComputeCommission(
		context.Background(), pricing.OpSwap, dec("1"), currency.BTC, domain.TierStandard)
	require.NoError(t, err)
	assert.True(t, res.Fee.Equal(dec("0.0025")), "fee %s", res.Fee)
	assert.True(t, res.Rate.Equal(dec("0.0025")))
}

func TestComputeCommission_TierDiscount(t *testing.T) {
	fees := &testutils.FakeFeePolicyRepo{}
	fees.Set(pricing.OpSwap, currency.USD, repository.FeePolicy{
		Rate: dec("0.01"),
	})
	p := newPolicy(fees)

	std, err := p.ComputeCommission(
		context.Background(), pricing.OpSwap, dec("1000"), currency.USD, domain.TierStandard)
	require.NoError(t, err)
	plat, err := p.ComputeCommission(
		context.Background(), pricing.OpSwap, dec("1000"), currency.USD, domain.TierPlatinum)
	require.NoError(t, err)

	assert.True(t, std.Fee.Equal(dec("10")))
	assert.True(t, plat.Fee.Equal(dec("7")))
}

func TestComputeCommission_ClampMin(t *testing.T) {
	fees := &testutils.FakeFeePolicyRepo{}
	fees.Set(pricing.OpSwap, currency.USD, repository.FeePolicy{
		Rate:   dec("0.001"),
		MinFee: dec("5"),
	})
	p := newPolicy(fees)

	res, err := p.ComputeCommission(
		context.Background(), pricing.OpSwap, dec("100"), currency.USD, domain.TierStandard)
	require.NoError(t, err)
	assert.True(t, res.Fee.Equal(dec("5")), "fee %s", res.Fee)
}

func TestComputeCommission_ClampMax(t *testing.T) {
	fees := &testutils.FakeFeePolicyRepo{}
	fees.Set(pricing.OpSwap, currency.USD, repository.FeePolicy{
		Rate:   dec("0.01"),
		MaxFee: dec("50"),
	})
	p := newPolicy(fees)

	res, err := p.ComputeCommission(
		context.Background(), pricing.OpSwap, dec("100000"), currency.USD, domain.TierStandard)
	require.NoError(t, err)
	assert.True(t, res.Fee.Equal(dec("50")), "fee %s", res.Fee)
}

func TestComputeCommission_ZeroMaxMeansUnbounded(t *testing.T) {
	fees := &testutils.FakeFeePolicyRepo{}
	fees.Set(pricing.OpSwap, currency.USD, repository.FeePolicy{
		Rate: dec("0.01"),
	})
	p := newPolicy(fees)

	res, err := p.ComputeCommission(
		context.Background(), pricing.OpSwap, dec("1000000"), currency.USD, domain.TierStandard)
	require.NoError(t, err)
	assert.True(t, res.Fee.Equal(dec("10000")), "fee %s", res.Fee)
}

func TestComputeCommission_FlatFee(t *testing.T) {
	fees := &testutils.FakeFeePolicyRepo{}
	fees.Set(pricing.OpWithdrawal, currency.USD, repository.FeePolicy{
		FlatFee: dec("2.5"),
	})
	p := newPolicy(fees)

	res, err := p.ComputeCommission(
		context.Background(), pricing.OpWithdrawal, dec("100"), currency.USD, domain.TierGold)
	require.NoError(t, err)
	assert.True(t, res.Fee.Equal(dec("2.5")))
	assert.True(t, res.Rate.IsZero())
}

func TestComputeCommission_FeeConsumesAmount(t *testing.T) {
	fees := &testutils.FakeFeePolicyRepo{}
	fees.Set(pricing.OpSwap, currency.USD, repository.FeePolicy{
		MinFee: dec("10"),
		Rate:   dec("0.001"),
	})
	p := newPolicy(fees)

	_, err := p.ComputeCommission(
		context.Background(), pricing.OpSwap, dec("8"), currency.USD, domain.TierStandard)
	assert.ErrorIs(t, err, domain.ErrInsufficientAmount)
}

func TestComputeCommission_NonPositiveAmount(t *testing.T) {
	p := newPolicy(&testutils.FakeFeePolicyRepo{})

	_, err := p.ComputeCommission(
		context.Background(), pricing.OpSwap, decimal.Zero, currency.USD, domain.TierStandard)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestComputeCommission_MissingPolicyIsFree(t *testing.T) {
	p := newPolicy(&testutils.FakeFeePolicyRepo{})

	res, err := p.ComputeCommission(
		context.Background(), pricing.OpSwap, dec("100"), currency.USD, domain.TierStandard)
	require.NoError(t, err)
	assert.True(t, res.Fee.IsZero())
}
