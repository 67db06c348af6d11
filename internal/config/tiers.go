package config

// Tier is a named usage class.
type Tier struct {
	Name          string
	MonthlyLimit  int // MonthlyLimit is the number of leads per calendar month, -1 is unlimited.
	RatePerMinute int // RatePerMinute caps authenticated requests per minute.
	Description   string
}

// DefaultTier is used for unknown tier names.
const DefaultTier = "free"

var tiers = map[string]Tier{
	"free": {
		Name:          "free",
		MonthlyLimit:  100,
		RatePerMinute: 10,
		Description:   "Free tier - 100 leads/month",
	},
	"pro": {
		Name:          "pro",
		MonthlyLimit:  5000,
		RatePerMinute: 60,
		Description:   "Pro tier - 5000 leads/month",
	},
	"enterprise": {
		Name:          "enterprise",
		MonthlyLimit:  -1,
		RatePerMinute: 300,
		Description:   "Enterprise tier - Unlimited",
	},
}

// TierFor returns the tier with the given name, falling back to the free tier.
func TierFor(name string) Tier {
	if tier, ok := tiers[name]; ok {
		return tier
	}
	return tiers[DefaultTier]
}

// LookupTier returns the tier with the given name and whether it exists.
func LookupTier(name string) (Tier, bool) {
	tier, ok := tiers[name]
	return tier, ok
}
