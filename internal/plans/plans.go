package plans

import "strings"

// Plan is a subscription tier with its fixed monthly price and submission quota.
type Plan struct {
	Tier           string `json:"tier"`
	Name           string `json:"name"`
	PriceMonthly   int64  `json:"price_monthly"`   // cents, USD
	MaxSubmissions int    `json:"max_submissions"` // 0 = unlimited
}

const (
	TierFree       = "free"
	TierStarter    = "starter"
	TierBasic      = "basic"
	TierPremium    = "premium"
	TierPro        = "pro"
	TierBusiness   = "business"
	TierEnterprise = "enterprise"
	TierScale      = "scale"
	TierUnlimited  = "unlimited"
)

// FreeQuota is the submission quota of the free tier and of every cancelled account.
const FreeQuota = 1000

// AllPlans is the ordered tier table.
var AllPlans = []Plan{
	{Tier: TierFree, Name: "Free", PriceMonthly: 0, MaxSubmissions: FreeQuota},
	{Tier: TierStarter, Name: "Starter", PriceMonthly: 500, MaxSubmissions: 2_500},
	{Tier: TierBasic, Name: "Basic", PriceMonthly: 900, MaxSubmissions: 5_000},
	{Tier: TierPremium, Name: "Premium", PriceMonthly: 1900, MaxSubmissions: 10_000},
	{Tier: TierPro, Name: "Pro", PriceMonthly: 2900, MaxSubmissions: 25_000},
	{Tier: TierBusiness, Name: "Business", PriceMonthly: 4900, MaxSubmissions: 50_000},
	{Tier: TierEnterprise, Name: "Enterprise", PriceMonthly: 9900, MaxSubmissions: 100_000},
	{Tier: TierScale, Name: "Scale", PriceMonthly: 19900, MaxSubmissions: 250_000},
	{Tier: TierUnlimited, Name: "Unlimited", PriceMonthly: 39900, MaxSubmissions: 0},
}

// Normalize lower-cases and trims a tier name.
func Normalize(tier string) string {
	return strings.ToLower(strings.TrimSpace(tier))
}

// PlanByTier looks up a plan by tier name. Returns nil if not found.
func PlanByTier(tier string) *Plan {
	tier = Normalize(tier)
	for i := range AllPlans {
		if AllPlans[i].Tier == tier {
			p := AllPlans[i]
			return &p
		}
	}
	return nil
}

// QuotaFor returns the table quota for tier, falling back to the free quota
// for unknown tiers.
func QuotaFor(tier string) int {
	if p := PlanByTier(tier); p != nil {
		return p.MaxSubmissions
	}
	return FreeQuota
}

// IsUnlimited reports whether the plan has no submission limit.
func (p Plan) IsUnlimited() bool {
	return p.MaxSubmissions == 0
}

// Purchasable reports whether the plan can be bought through checkout.
func (p Plan) Purchasable() bool {
	return p.PriceMonthly > 0
}
