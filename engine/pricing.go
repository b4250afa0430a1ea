/*
pricing.go - Tiered price calculation

PURPOSE:
  Compute the rental subtotal for a stay under a tiered multiplier table:

    1. No tiers configured: flat daily rate, with a percentage discount on
       the rate once the stay exceeds the legacy threshold.
    2. Tiers configured: the stay matches the tier with the largest
       TierDays <= days. The tier multiplier times the base daily rate is
       the TOTAL for the whole stay, not a per-day rate.
    3. Stay longer than every tier: the longest tier's total, plus each
       extra day at base rate times the overflow multiplier.

  A stay shorter than the smallest tier falls through to the undiscounted
  flat rate and reports TierMatched=false, same as the no-tiers short-stay
  path.

ROUNDING:
  All money is integer minor units. Every multiplication is rounded
  individually (half away from zero, via decimal.Round); sums of already
  rounded terms are never re-rounded. The display-only effective daily
  rate is the rounded quotient subtotal/days.
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRICING POLICY - Caller-configurable knobs with engine defaults
// =============================================================================

// PricingPolicy carries the parameters that are not part of the product's
// tier table.
type PricingPolicy struct {
	// Per-extra-day rate multiplier beyond the longest tier.
	OverflowMultiplier decimal.Decimal

	// Legacy flat-rate fallback, used when no tiers are configured:
	// stays longer than the threshold get the percentage discount.
	LegacyThresholdDays   int
	LegacyDiscountPercent decimal.Decimal
}

// DefaultPricingPolicy returns overflow x1.0 and the legacy 10% discount
// past 7 days.
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		OverflowMultiplier:    decimal.NewFromInt(1),
		LegacyThresholdDays:   7,
		LegacyDiscountPercent: decimal.NewFromInt(10),
	}
}

// =============================================================================
// TIERED PRICE CALCULATOR
// =============================================================================

// CalculatePrice prices the stay covered by rng. baseDailyRate and deposit
// are minor currency units and must be non-negative. tiers may be empty or
// unordered; they are sorted ascending by TierDays before matching.
func CalculatePrice(rng DateRange, baseDailyRate, deposit int64, tiers []PricingTier, policy PricingPolicy) (*Quote, error) {
	if baseDailyRate < 0 {
		return nil, &InvalidRateError{Field: "base_daily_rate", Value: baseDailyRate}
	}
	if deposit < 0 {
		return nil, &InvalidRateError{Field: "deposit_amount", Value: deposit}
	}

	days := rng.Days()
	if days <= 0 {
		return nil, &InvalidRangeError{Start: rng.Start, End: rng.End}
	}

	quote := &Quote{Days: days, Deposit: deposit}

	matched, longest, ok := matchTier(tiers, days)
	switch {
	case !ok && len(tiers) == 0 && days > policy.LegacyThresholdDays:
		// Legacy long-stay discount on the daily rate.
		factor := decimal.NewFromInt(1).Sub(policy.LegacyDiscountPercent.Div(decimal.NewFromInt(100)))
		quote.RentalSubtotal = mulRound(baseDailyRate, factor) * int64(days)

	case !ok:
		// No tiers, or stay shorter than the smallest tier: undiscounted
		// flat rate.
		quote.RentalSubtotal = baseDailyRate * int64(days)

	case days <= longest.TierDays:
		// Flat total for the whole stay.
		quote.RentalSubtotal = mulRound(baseDailyRate, matched.Multiplier)
		quote.TierMatched = true
		quote.TierLabel = matched.Label

	default:
		// Stay exceeds every tier: longest tier's total plus overflow days.
		extraDays := decimal.NewFromInt(int64(days - longest.TierDays))
		quote.RentalSubtotal = mulRound(baseDailyRate, longest.Multiplier) +
			mulRound(baseDailyRate, policy.OverflowMultiplier.Mul(extraDays))
		quote.TierMatched = true
		quote.TierLabel = longest.Label
	}

	quote.EffectiveDailyRate = divRound(quote.RentalSubtotal, int64(days))
	quote.Total = quote.RentalSubtotal + deposit
	return quote, nil
}

// matchTier returns the best tier the stay qualifies for (largest
// TierDays <= days) and the longest tier overall. ok is false when no tier
// qualifies, including the empty table.
func matchTier(tiers []PricingTier, days int) (matched, longest PricingTier, ok bool) {
	if len(tiers) == 0 {
		return PricingTier{}, PricingTier{}, false
	}

	sorted := make([]PricingTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TierDays < sorted[j].TierDays })

	longest = sorted[len(sorted)-1]
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].TierDays <= days {
			return sorted[i], longest, true
		}
	}
	return PricingTier{}, longest, false
}

func mulRound(amount int64, factor decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(factor).Round(0).IntPart()
}

func divRound(amount, divisor int64) int64 {
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(divisor)).Round(0).IntPart()
}
