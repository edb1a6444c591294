package domain

import (
	"sort"
	"strings"
	"time"
)

// Overview aggregates the user catalogue for the admin dashboard.
type Overview struct {
	TotalUsers       int              `json:"totalUsers"`
	ActiveUsers      int              `json:"activeUsers"`
	PremiumUsers     int              `json:"premiumUsers"`
	AdminUsers       int              `json:"adminUsers"`
	TotalRevenue     float64          `json:"totalRevenue"`
	MonthlyRevenue   float64          `json:"monthlyRevenue"`
	TotalAssessments int              `json:"totalAssessments"`
	TotalStorageMB   float64          `json:"totalStorageUsed"`
	PlanDistribution map[PlanTier]int `json:"planDistribution"`
	LastUpdated      time.Time        `json:"lastUpdated"`
}

// Summarize folds users into an Overview stamped with now.
func Summarize(users []Identity, now time.Time) Overview {
	o := Overview{
		TotalUsers:       len(users),
		PlanDistribution: make(map[PlanTier]int),
		LastUpdated:      now,
	}
	for _, u := range users {
		if u.SubscriptionStatus == SubscriptionActive {
			o.ActiveUsers++
		}
		if u.IsPremium() {
			o.PremiumUsers++
		}
		if IsAdminEmail(u.Email) {
			o.AdminUsers++
		}
		o.TotalRevenue += u.TotalRevenue
		o.MonthlyRevenue += u.MonthlyRevenue
		o.TotalAssessments += u.AssessmentsCompleted
		o.TotalStorageMB += u.StorageUsedMB
		o.PlanDistribution[u.PlanTier]++
	}
	return o
}

// SortKey orders the admin user table.
type SortKey string

const (
	SortRevenue     SortKey = "revenue"
	SortAssessments SortKey = "assessments"
	SortStorage     SortKey = "storage"
	SortDate        SortKey = "date"
	SortName        SortKey = "name"
)

// PlanFilterAll disables plan filtering.
const PlanFilterAll = "all"

// UserQuery is the search/filter/sort state of the admin user table.
type UserQuery struct {
	Search string
	Plan   string // PlanFilterAll, empty, or a tier
	SortBy SortKey
}

// QueryUsers filters and sorts a copy of users. Numeric and date keys sort
// descending, name ascending; ties keep input order.
func QueryUsers(users []Identity, q UserQuery) []Identity {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]Identity, 0, len(users))
	for _, u := range users {
		if term != "" &&
			!strings.Contains(strings.ToLower(u.DisplayName), term) &&
			!strings.Contains(strings.ToLower(u.Email), term) {
			continue
		}
		if q.Plan != "" && q.Plan != PlanFilterAll && string(u.PlanTier) != q.Plan {
			continue
		}
		out = append(out, u)
	}

	var less func(a, b Identity) bool
	switch q.SortBy {
	case SortRevenue:
		less = func(a, b Identity) bool { return a.TotalRevenue > b.TotalRevenue }
	case SortAssessments:
		less = func(a, b Identity) bool { return a.AssessmentsCompleted > b.AssessmentsCompleted }
	case SortStorage:
		less = func(a, b Identity) bool { return a.StorageUsedMB > b.StorageUsedMB }
	case SortDate:
		less = func(a, b Identity) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortName:
		less = func(a, b Identity) bool { return strings.ToLower(a.DisplayName) < strings.ToLower(b.DisplayName) }
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
