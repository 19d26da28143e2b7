package user

import (
	"time"

	"washwise/internal/plan"
)

type User struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Role          string     `json:"role"`
	Plan          plan.Plan  `json:"membership_plan"`
	PlanExpiresAt *time.Time `json:"membership_expiry_date,omitempty"`
	MonthlyUsage  int        `json:"monthly_services_used"`
	CreatedAt     time.Time  `json:"created_at"`
}

// PlanActive reports whether the user's membership currently covers services.
func (u *User) PlanActive(now time.Time) bool {
	return plan.Active(u.Plan, u.PlanExpiresAt, now)
}

// EffectivePlan is the plan to price against right now: an expired or absent
// membership prices like none.
func (u *User) EffectivePlan(now time.Time) plan.Plan {
	if !u.PlanActive(now) {
		return plan.PlanNone
	}
	return u.Plan
}
