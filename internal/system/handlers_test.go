package system

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"washwise/internal/catalog"
	"washwise/internal/plan"
)

func TestConfigResponse(t *testing.T) {
	h := Handlers{Registry: catalog.Default()}

	req := httptest.NewRequest(http.MethodGet, "/v1/system/config", nil)
	rec := httptest.NewRecorder()
	h.Config(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp ConfigResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	if len(resp.Services) != 5 {
		t.Fatalf("expected 5 services, got %d", len(resp.Services))
	}
	if resp.MonthlyQuota != plan.MonthlyQuota {
		t.Fatalf("monthly quota = %d, want %d", resp.MonthlyQuota, plan.MonthlyQuota)
	}

	for _, svc := range resp.Services {
		if len(svc.Workflow) == 0 || svc.Workflow[0] != catalog.StatusPending {
			t.Fatalf("%s: workflow must start at pending", svc.ID)
		}
		if svc.Workflow[len(svc.Workflow)-1] != catalog.StatusPickedUp {
			t.Fatalf("%s: workflow must end at picked_up", svc.ID)
		}
		if svc.UnitPrice == "" || svc.Name == "" {
			t.Fatalf("%s: missing price or name", svc.ID)
		}
	}

	if len(resp.Plans[plan.PlanNone].EligibleServices) != 0 {
		t.Fatalf("plan none must have no eligible services")
	}
	if len(resp.Plans[plan.PlanStandard].EligibleServices) != 2 {
		t.Fatalf("standard plan must cover 2 service types, got %v", resp.Plans[plan.PlanStandard].EligibleServices)
	}
	if len(resp.Plans[plan.PlanPremium].EligibleServices) != 5 {
		t.Fatalf("premium plan must cover all service types, got %v", resp.Plans[plan.PlanPremium].EligibleServices)
	}
}
