package domain

import (
	"strings"
	"time"
)

// SubscriptionStatus is the billing state of an identity's plan.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// Kind tells which backend owns an identity. It is fixed for the identity's
// lifetime.
type Kind int

const (
	KindRegular Kind = iota
	KindAdministrator
)

func (k Kind) String() string {
	if k == KindAdministrator {
		return "administrator"
	}
	return "regular"
}

// adminEmails is the compiled-in administrator allow-list.
// TODO: replace with a role claim read from the identity provider once it can
// issue custom claims per account.
var adminEmails = map[string]struct{}{
	"aakarshit.cse@gmail.com": {},
	"orthodox396@gmail.com":   {},
}

// IsAdminEmail reports allow-list membership.
func IsAdminEmail(email string) bool {
	_, ok := adminEmails[NormalizeEmail(email)]
	return ok
}

// AdminEmails returns a copy of the allow-list.
func AdminEmails() []string {
	out := make([]string, 0, len(adminEmails))
	for e := range adminEmails {
		out = append(out, e)
	}
	return out
}

// NormalizeEmail lower-cases and trims an address for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity is an authenticated user of either kind.
type Identity struct {
	ID                   string             `json:"uid" bson:"_id"`
	Email                string             `json:"email" bson:"email"`
	DisplayName          string             `json:"name" bson:"name"`
	PlanTier             PlanTier           `json:"plan" bson:"plan"`
	IsAdministrator      bool               `json:"isAdmin" bson:"is_admin"`
	CreatedAt            time.Time          `json:"createdAt" bson:"created_at"`
	LastLoginAt          time.Time          `json:"lastLogin" bson:"last_login"`
	TotalRevenue         float64            `json:"totalRevenue" bson:"total_revenue"`
	MonthlyRevenue       float64            `json:"monthlyRevenue" bson:"monthly_revenue"`
	AssessmentsCompleted int                `json:"assessmentsCompleted" bson:"assessments_completed"`
	StorageUsedMB        float64            `json:"storageUsed" bson:"storage_used_mb"`
	LastAssessmentAt     *time.Time         `json:"lastAssessmentDate,omitempty" bson:"last_assessment_at,omitempty"`
	SubscriptionStatus   SubscriptionStatus `json:"subscriptionStatus" bson:"subscription_status"`
	PlanStartAt          *time.Time         `json:"planStartDate,omitempty" bson:"plan_start_at,omitempty"`
	PlanEndAt            *time.Time         `json:"planEndDate,omitempty" bson:"plan_end_at,omitempty"`
}

// NewIdentity builds a fresh free-tier identity with zeroed counters.
func NewIdentity(id, name, email string, now time.Time) Identity {
	ident := Identity{
		ID:                 id,
		Email:              NormalizeEmail(email),
		DisplayName:        strings.TrimSpace(name),
		PlanTier:           PlanFree,
		CreatedAt:          now,
		LastLoginAt:        now,
		SubscriptionStatus: SubscriptionActive,
	}
	ident.Normalize()
	return ident
}

// Normalize recomputes IsAdministrator from the allow-list and fills a blank
// tier with free. Stored or received values of IsAdministrator are ignored.
func (i *Identity) Normalize() {
	i.IsAdministrator = IsAdminEmail(i.Email)
	if i.PlanTier == "" {
		i.PlanTier = PlanFree
	}
}

// Kind derives the backend kind from the allow-list.
func (i Identity) Kind() Kind {
	if IsAdminEmail(i.Email) {
		return KindAdministrator
	}
	return KindRegular
}

// IsPremium reports a paid tier.
func (i Identity) IsPremium() bool {
	return i.PlanTier.Premium()
}

// Quota returns the limits of the identity's current tier.
func (i Identity) Quota() Quota {
	return LimitsFor(i.PlanTier)
}

// ApplyPlan moves the identity to tier and resets revenue and plan dates.
func (i *Identity) ApplyPlan(tier PlanTier, now time.Time) {
	p := PlanFor(tier)
	i.PlanTier = p.Tier
	i.TotalRevenue = p.Price
	i.MonthlyRevenue = p.MonthlyRevenue()
	i.SubscriptionStatus = SubscriptionActive
	if p.Period == 0 {
		i.PlanStartAt, i.PlanEndAt = nil, nil
		return
	}
	start := now
	end := now.Add(p.Period)
	i.PlanStartAt, i.PlanEndAt = &start, &end
}

// CheckQuota returns a *QuotaError when one more assessment of addMB would
// exceed the identity's plan. The assessment count is checked first.
func (i Identity) CheckQuota(addMB float64) error {
	q := i.Quota()
	if !q.AllowsAssessment(i.AssessmentsCompleted) {
		return &QuotaError{Tier: i.PlanTier, Resource: "assessments"}
	}
	if !q.AllowsStorage(i.StorageUsedMB, addMB) {
		return &QuotaError{Tier: i.PlanTier, Resource: "storage"}
	}
	return nil
}
