package platformfee

import tenantdomain "github.com/smallbiznis/storefront/internal/tenant/domain"

// Platform cut per subscription tier, in basis points of the charged total.
const (
	RateFreeBps   = 500
	RateGrowthBps = 300
	RateProBps    = 100
)

// Rate returns the fee rate in basis points for a subscription tier.
// Unknown tiers are charged the free rate.
func Rate(tier string) int64 {
	switch tenantdomain.NormalizeTier(tier) {
	case tenantdomain.TierPro:
		return RateProBps
	case tenantdomain.TierGrowth:
		return RateGrowthBps
	default:
		return RateFreeBps
	}
}

// Fee computes the application fee for a charge total in integer minor units,
// rounded half-up. Stripe's amount API is integer minor units, so the whole
// computation stays in integer space.
func Fee(totalMinorUnits int64, tier string) int64 {
	if totalMinorUnits <= 0 {
		return 0
	}
	return (totalMinorUnits*Rate(tier) + 5000) / 10000
}
