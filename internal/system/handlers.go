// Package system serves the shared configuration the frontend renders from:
// service catalog, workflows, prices and plan rules. One source of truth so
// client and server can never disagree on workflow shape.
package system

import (
	"net/http"

	"washwise/internal/api"
	"washwise/internal/catalog"
	"washwise/internal/plan"
)

type ServiceConfig struct {
	ID        catalog.ServiceType `json:"id"`
	Name      string              `json:"name"`
	UnitPrice string              `json:"unit_price"`
	Workflow  []catalog.Status    `json:"workflow"`
}

type PlanConfig struct {
	EligibleServices []catalog.ServiceType `json:"eligible_services"`
}

type ConfigResponse struct {
	Services     []ServiceConfig          `json:"services"`
	MonthlyQuota int                      `json:"monthly_quota"`
	Plans        map[plan.Plan]PlanConfig `json:"plans"`
}

type Handlers struct {
	Registry *catalog.Registry
}

func (h Handlers) Config(w http.ResponseWriter, r *http.Request) {
	types := h.Registry.ServiceTypes()

	services := make([]ServiceConfig, 0, len(types))
	for _, t := range types {
		name, _ := h.Registry.DisplayName(t)
		price, _ := h.Registry.UnitPrice(t)
		wf, _ := h.Registry.Workflow(t)
		services = append(services, ServiceConfig{
			ID:        t,
			Name:      name,
			UnitPrice: price.String(),
			Workflow:  wf,
		})
	}

	plans := make(map[plan.Plan]PlanConfig, 3)
	for _, p := range []plan.Plan{plan.PlanNone, plan.PlanStandard, plan.PlanPremium} {
		eligible := make([]catalog.ServiceType, 0, len(types))
		for _, t := range types {
			if plan.Eligible(p, t) {
				eligible = append(eligible, t)
			}
		}
		plans[p] = PlanConfig{EligibleServices: eligible}
	}

	api.WriteJSON(w, http.StatusOK, ConfigResponse{
		Services:     services,
		MonthlyQuota: plan.MonthlyQuota,
		Plans:        plans,
	})
}
