package plan

import (
	"fmt"
	"time"

	"washwise/internal/catalog"
)

// Plan is a customer's membership tier.
type Plan string

const (
	PlanNone     Plan = "none"
	PlanStandard Plan = "standard"
	PlanPremium  Plan = "premium"
)

// MonthlyQuota is the number of service units per calendar month a paid plan
// covers free of charge. Fixed system-wide.
const MonthlyQuota = 4

// MaxLineQuantity caps a single order line. Matches the order intake form.
const MaxLineQuantity = 20

func ParsePlan(s string) (Plan, error) {
	switch Plan(s) {
	case PlanNone, PlanStandard, PlanPremium:
		return Plan(s), nil
	default:
		return "", fmt.Errorf("unknown plan: %s", s)
	}
}

// standardServices is the eligibility set for the standard tier. Premium-only
// service types never consume standard quota.
var standardServices = map[catalog.ServiceType]bool{
	catalog.WashAndFold: true,
	catalog.WashAndIron: true,
}

// Eligible reports whether units of a service type can be covered under a
// plan. Evaluated independent of remaining quota: an ineligible type never
// consumes quota even when quota remains.
func Eligible(p Plan, t catalog.ServiceType) bool {
	switch p {
	case PlanPremium:
		return true
	case PlanStandard:
		return standardServices[t]
	default:
		return false
	}
}

// Active reports whether a plan covers anything at the given instant. A plan
// with no expiry set, or an expired one, prices like PlanNone.
func Active(p Plan, expiresAt *time.Time, now time.Time) bool {
	if p == PlanNone || p == "" {
		return false
	}
	return expiresAt != nil && expiresAt.After(now)
}
