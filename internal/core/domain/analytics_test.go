package domain

import (
	"testing"
	"time"
)

func sampleUsers() []Identity {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return []Identity{
		{ID: "1", DisplayName: "Carol", Email: "carol@example.com", PlanTier: PlanFree, SubscriptionStatus: SubscriptionActive, AssessmentsCompleted: 1, StorageUsedMB: 10, CreatedAt: base},
		{ID: "2", DisplayName: "alice", Email: "alice@example.com", PlanTier: PlanBundle, SubscriptionStatus: SubscriptionActive, TotalRevenue: 499.99, MonthlyRevenue: 41.67, AssessmentsCompleted: 40, StorageUsedMB: 900, CreatedAt: base.Add(48 * time.Hour)},
		{ID: "3", DisplayName: "Bob", Email: "bob@corp.io", PlanTier: PlanMonthly, SubscriptionStatus: SubscriptionCancelled, TotalRevenue: 29.99, MonthlyRevenue: 29.99, AssessmentsCompleted: 7, StorageUsedMB: 120, CreatedAt: base.Add(24 * time.Hour)},
		{ID: "4", DisplayName: "Root", Email: "orthodox396@gmail.com", PlanTier: PlanFree, SubscriptionStatus: SubscriptionActive, CreatedAt: base.Add(-24 * time.Hour)},
	}
}

func TestSummarize(t *testing.T) {
	now := time.Now().UTC()
	o := Summarize(sampleUsers(), now)

	if o.TotalUsers != 4 || o.ActiveUsers != 3 || o.PremiumUsers != 2 || o.AdminUsers != 1 {
		t.Fatalf("unexpected counts: %+v", o)
	}
	bundle, monthly := 499.99, 29.99
	if o.TotalRevenue != bundle+monthly {
		t.Errorf("unexpected revenue: %v", o.TotalRevenue)
	}
	if o.TotalAssessments != 48 || o.TotalStorageMB != 1030 {
		t.Errorf("unexpected usage: %d %v", o.TotalAssessments, o.TotalStorageMB)
	}
	if o.PlanDistribution[PlanFree] != 2 || o.PlanDistribution[PlanBundle] != 1 {
		t.Errorf("unexpected distribution: %v", o.PlanDistribution)
	}
	if !o.LastUpdated.Equal(now) {
		t.Error("LastUpdated not stamped")
	}
}

func TestSummarize_Empty(t *testing.T) {
	o := Summarize(nil, time.Now())
	if o.TotalUsers != 0 || o.PlanDistribution == nil {
		t.Fatalf("unexpected overview: %+v", o)
	}
}

func ids(users []Identity) string {
	s := ""
	for _, u := range users {
		s += u.ID
	}
	return s
}

func TestQueryUsers(t *testing.T) {
	users := sampleUsers()

	cases := []struct {
		name string
		q    UserQuery
		want string
	}{
		{"revenue desc", UserQuery{SortBy: SortRevenue}, "2314"},
		{"assessments desc", UserQuery{SortBy: SortAssessments}, "2314"},
		{"storage desc", UserQuery{SortBy: SortStorage}, "2314"},
		{"date desc", UserQuery{SortBy: SortDate}, "2314"},
		{"name asc", UserQuery{SortBy: SortName}, "2314"},
		{"search by email domain", UserQuery{Search: "CORP.IO"}, "3"},
		{"search by name", UserQuery{Search: "car"}, "1"},
		{"plan filter", UserQuery{Plan: "free", SortBy: SortName}, "14"},
		{"plan all", UserQuery{Plan: PlanFilterAll}, "1234"},
		{"no match", UserQuery{Search: "zzz"}, ""},
	}
	for _, tc := range cases {
		if got := ids(QueryUsers(users, tc.q)); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}

	if ids(users) != "1234" {
		t.Fatal("QueryUsers must not reorder its input")
	}
}
