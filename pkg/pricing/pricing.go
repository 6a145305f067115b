// FILE: pkg/pricing/pricing.go
package pricing

import "math"

// Credit pricing tiers, per credit. Boundaries are inclusive.
const (
	creditTierBulk     = 1000
	creditTierStandard = 500

	creditPriceBulk     = 0.05
	creditPriceStandard = 0.07
	creditPriceBase     = 0.10
)

// Affiliate commission tiers keyed on total historical sales.
const (
	commissionTierTop  = 10000
	commissionTierMid  = 5000
	commissionTierLow  = 1000
	commissionRateTop  = 0.15
	commissionRateMid  = 0.12
	commissionRateLow  = 0.10
	commissionRateBase = 0.08
)

// CreditPrice returns the total price for a credit pack.
func CreditPrice(credits int) float64 {
	if credits <= 0 {
		return 0
	}
	switch {
	case credits >= creditTierBulk:
		return Round2(float64(credits) * creditPriceBulk)
	case credits >= creditTierStandard:
		return Round2(float64(credits) * creditPriceStandard)
	default:
		return Round2(float64(credits) * creditPriceBase)
	}
}

// CommissionRate returns the affiliate rate for a given historical sales
// total.
func CommissionRate(totalSales float64) float64 {
	switch {
	case totalSales >= commissionTierTop:
		return commissionRateTop
	case totalSales >= commissionTierMid:
		return commissionRateMid
	case totalSales >= commissionTierLow:
		return commissionRateLow
	default:
		return commissionRateBase
	}
}

// ProrateUpgrade charges the plan price difference scaled by the fraction of
// the billing period remaining. Never negative; downgrades prorate to zero.
func ProrateUpgrade(oldPrice, newPrice float64, daysRemaining, periodDays int) float64 {
	if periodDays <= 0 || daysRemaining <= 0 {
		return 0
	}
	if daysRemaining > periodDays {
		daysRemaining = periodDays
	}
	diff := newPrice - oldPrice
	if diff <= 0 {
		return 0
	}
	return Round2(diff * float64(daysRemaining) / float64(periodDays))
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
