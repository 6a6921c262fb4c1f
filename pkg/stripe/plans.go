package stripe

import "sync"

// Plan is one entry of the local plan catalog. The catalog is declared
// in code and mirrored to the processor out of band; Amount is nil for
// tiers that are not directly subscribable ("contact us").
type Plan struct {
	Key      string // local key, e.g. "business"
	ID       string // processor plan/price id, environment specific
	Name     string
	Amount   *int64 // cents
	Currency string
	Interval string
	Metadata map[string]string
}

var (
	planMu    sync.RWMutex
	planOrder []string
	planIndex = map[string]Plan{}
)

// RegisterPlan adds a plan to the catalog, keeping declaration order.
// Re-registering a key replaces the entry.
func RegisterPlan(plan Plan) {
	planMu.Lock()
	defer planMu.Unlock()

	if _, exists := planIndex[plan.Key]; !exists {
		planOrder = append(planOrder, plan.Key)
	}
	planIndex[plan.Key] = plan
}

// AllPlans returns the catalog in declaration order
func AllPlans() []Plan {
	planMu.RLock()
	defer planMu.RUnlock()

	plans := make([]Plan, 0, len(planOrder))
	for _, key := range planOrder {
		plans = append(plans, planIndex[key])
	}
	return plans
}

// PlanByID resolves a plan by its processor id
func PlanByID(id string) (Plan, bool) {
	planMu.RLock()
	defer planMu.RUnlock()

	for _, key := range planOrder {
		if planIndex[key].ID == id {
			return planIndex[key], true
		}
	}
	return Plan{}, false
}

// ResetPlans clears the catalog; test hook.
func ResetPlans() {
	planMu.Lock()
	defer planMu.Unlock()

	planOrder = nil
	planIndex = map[string]Plan{}
}
