// FILE: internal/catalog/catalog.go

// Package catalog holds the static plan definitions the billing engine sells.
// Plans are versioned in code, not the database, so a deploy is the only way
// prices change.
package catalog

import "ai-adgen-be/internal/pkg/apperror"

type Interval string

const (
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

const (
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
)

// UnlimitedCredits marks a plan with no per-period credit cap.
const UnlimitedCredits = -1

type Plan struct {
	Id           string
	Name         string
	Price        float64
	Credits      int
	Interval     Interval
	MaxCampaigns int
	Features     []string
}

func (p Plan) Unlimited() bool {
	return p.Credits == UnlimitedCredits
}

type Catalog struct {
	plans map[string]Plan
	order []string
}

func New(plans ...Plan) *Catalog {
	c := &Catalog{plans: make(map[string]Plan, len(plans))}
	for _, p := range plans {
		c.plans[p.Id] = p
		c.order = append(c.order, p.Id)
	}
	return c
}

func (c *Catalog) Lookup(id string) (Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, apperror.Validationf("unknown plan id %q", id)
	}
	return p, nil
}

// Plans returns the plans in display order.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.plans[id])
	}
	return out
}

// Default is the production plan lineup.
func Default() *Catalog {
	return New(
		Plan{
			Id:           PlanStarter,
			Name:         "Starter",
			Price:        29.99,
			Credits:      100,
			Interval:     IntervalMonth,
			MaxCampaigns: 5,
			Features:     []string{"ai_generation", "basic_analytics"},
		},
		Plan{
			Id:           PlanProfessional,
			Name:         "Professional",
			Price:        79.99,
			Credits:      300,
			Interval:     IntervalMonth,
			MaxCampaigns: 20,
			Features:     []string{"ai_generation", "advanced_analytics", "priority_support", "custom_branding"},
		},
		Plan{
			Id:           PlanEnterprise,
			Name:         "Enterprise",
			Price:        199.99,
			Credits:      UnlimitedCredits,
			Interval:     IntervalMonth,
			MaxCampaigns: UnlimitedCredits,
			Features:     []string{"ai_generation", "advanced_analytics", "priority_support", "custom_branding", "api_access", "dedicated_account_manager"},
		},
	)
}
