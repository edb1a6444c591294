package domain

import "time"

// PlanTier is a named subscription level.
type PlanTier string

const (
	PlanFree    PlanTier = "free"
	PlanMonthly PlanTier = "monthly"
	PlanYearly  PlanTier = "yearly"
	PlanBundle  PlanTier = "bundle"
)

// Unlimited is the assessment-limit sentinel. It is not a usable bound.
const Unlimited = -1

// Valid reports whether t is one of the four known tiers.
func (t PlanTier) Valid() bool {
	switch t {
	case PlanFree, PlanMonthly, PlanYearly, PlanBundle:
		return true
	}
	return false
}

// Premium reports whether t is a paid tier.
func (t PlanTier) Premium() bool {
	return t != PlanFree && t != ""
}

// Quota is the pair of limits derived from a plan tier.
type Quota struct {
	AssessmentLimit int `json:"assessments_limit"`
	StorageLimitMB  int `json:"storage_limit"`
}

// Unlimited reports whether the assessment limit is the -1 sentinel.
func (q Quota) Unlimited() bool {
	return q.AssessmentLimit == Unlimited
}

// AllowsAssessment reports whether one more assessment fits given the number
// already completed.
func (q Quota) AllowsAssessment(completed int) bool {
	if q.Unlimited() {
		return true
	}
	return completed < q.AssessmentLimit
}

// RemainingAssessments returns how many assessments are left, or Unlimited.
func (q Quota) RemainingAssessments(completed int) int {
	if q.Unlimited() {
		return Unlimited
	}
	if left := q.AssessmentLimit - completed; left > 0 {
		return left
	}
	return 0
}

// AllowsStorage reports whether addMB more fits on top of usedMB.
func (q Quota) AllowsStorage(usedMB, addMB float64) bool {
	return usedMB+addMB <= float64(q.StorageLimitMB)
}

// RemainingStorageMB may be negative when a tier was downgraded under usage.
func (q Quota) RemainingStorageMB(usedMB float64) float64 {
	return float64(q.StorageLimitMB) - usedMB
}

var quotas = map[PlanTier]Quota{
	PlanFree:    {AssessmentLimit: 1, StorageLimitMB: 50},
	PlanMonthly: {AssessmentLimit: 10, StorageLimitMB: 500},
	PlanYearly:  {AssessmentLimit: 100, StorageLimitMB: 2000},
	PlanBundle:  {AssessmentLimit: Unlimited, StorageLimitMB: 5000},
}

// LimitsFor maps a tier to its quota. Unknown tiers get the free quota.
func LimitsFor(tier PlanTier) Quota {
	if q, ok := quotas[tier]; ok {
		return q
	}
	return quotas[PlanFree]
}

// Plan is the catalogue entry for a tier.
type Plan struct {
	Tier     PlanTier      `json:"tier"`
	Name     string        `json:"name"`
	Price    float64       `json:"price"`
	Period   time.Duration `json:"-"`
	Features []string      `json:"features"`
	Quota
}

// MonthlyRevenue spreads the plan price over months.
func (p Plan) MonthlyRevenue() float64 {
	switch p.Tier {
	case PlanMonthly:
		return p.Price
	case PlanYearly, PlanBundle:
		return p.Price / 12
	default:
		return 0
	}
}

const day = 24 * time.Hour

var plans = []Plan{
	{
		Tier:     PlanFree,
		Name:     "Free Plan",
		Features: []string{"Basic assessment", "Email support"},
	},
	{
		Tier:     PlanMonthly,
		Name:     "Monthly Plan",
		Price:    29.99,
		Period:   30 * day,
		Features: []string{"10 assessments/month", "Priority support", "Detailed reports"},
	},
	{
		Tier:     PlanYearly,
		Name:     "Yearly Plan",
		Price:    299.99,
		Period:   365 * day,
		Features: []string{"100 assessments/year", "Priority support", "Detailed reports", "3D visualization"},
	},
	{
		Tier:     PlanBundle,
		Name:     "Bundle Plan",
		Price:    499.99,
		Period:   365 * day,
		Features: []string{"Unlimited assessments", "Priority support", "Detailed reports", "3D visualization", "API access"},
	},
}

// PlanFor returns the catalogue entry for tier, falling back to free.
func PlanFor(tier PlanTier) Plan {
	for _, p := range plans {
		if p.Tier == tier {
			p.Quota = LimitsFor(p.Tier)
			p.Features = append([]string(nil), p.Features...)
			return p
		}
	}
	return PlanFor(PlanFree)
}

// Plans lists every tier in ascending order.
func Plans() []Plan {
	out := make([]Plan, 0, len(plans))
	for _, p := range plans {
		out = append(out, PlanFor(p.Tier))
	}
	return out
}
