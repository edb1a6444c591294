package client

import (
	"context"
	"testing"
	"time"

	"github.com/plan2protect/platform/internal/core/domain"
)

func signedInRegular(t *testing.T, seed domain.Identity) *fixture {
	t.Helper()
	f := newFixture(seed)
	if _, err := f.gateway.SignInByEmail(context.Background(), seed.Email); err != nil {
		t.Fatalf("SignInByEmail returned error: %v", err)
	}
	return f
}

func TestUsageTracker_RecordAssessmentCompletion(t *testing.T) {
	f := signedInRegular(t, domain.NewIdentity("reg-0", "Jane", "jane@x.com", time.Now()))
	ident, _ := f.store.Current()

	f.usage.RecordAssessmentCompletion(context.Background(), ident)

	cur, _ := f.store.Current()
	if cur.AssessmentsCompleted != 1 || cur.LastAssessmentAt == nil {
		t.Fatalf("session not refreshed: %+v", cur)
	}
}

func TestUsageTracker_RecordStorageUsageIsAbsolute(t *testing.T) {
	seed := domain.NewIdentity("reg-0", "Jane", "jane@x.com", time.Now())
	seed.StorageUsedMB = 20
	f := signedInRegular(t, seed)
	ident, _ := f.store.Current()

	f.usage.RecordStorageUsage(context.Background(), ident, 12.5)

	if cur, _ := f.store.Current(); cur.StorageUsedMB != 12.5 {
		t.Fatalf("expected 12.5, got %v", cur.StorageUsedMB)
	}
}

func TestUsageTracker_FailureIsSwallowed(t *testing.T) {
	f := signedInRegular(t, domain.NewIdentity("reg-0", "Jane", "jane@x.com", time.Now()))
	ident, _ := f.store.Current()
	version := f.store.Version()
	f.api.err = errBoom

	f.usage.RecordAssessmentCompletion(context.Background(), ident)

	if f.store.Version() != version {
		t.Fatal("session must not change on failure")
	}
	if cur, _ := f.store.Current(); cur.AssessmentsCompleted != 0 {
		t.Fatalf("unexpected counters: %+v", cur)
	}
}

func TestUsageTracker_DropsStaleResponse(t *testing.T) {
	f := signedInRegular(t, domain.NewIdentity("reg-0", "Jane", "jane@x.com", time.Now()))
	ident, _ := f.store.Current()
	ctx := context.Background()

	newer := ident
	newer.DisplayName = "Jane Doe"
	f.api.beforeReply = func() { f.store.Set(ctx, newer) }

	f.usage.RecordAssessmentCompletion(ctx, ident)

	cur, _ := f.store.Current()
	if cur.DisplayName != "Jane Doe" || cur.AssessmentsCompleted != 0 {
		t.Fatalf("stale response overwrote a newer session: %+v", cur)
	}
}

func TestUsageTracker_SignedOutIdentityDoesNotRepopulateSession(t *testing.T) {
	f := signedInRegular(t, domain.NewIdentity("reg-0", "Jane", "jane@x.com", time.Now()))
	ident, _ := f.store.Current()
	ctx := context.Background()
	f.store.Clear(ctx)

	f.usage.RecordAssessmentCompletion(ctx, ident)

	if _, ok := f.store.Current(); ok {
		t.Fatal("a usage response must not sign anyone back in")
	}
	if u, _ := f.api.GetUser(ctx, "reg-0"); u.AssessmentsCompleted != 1 {
		t.Fatal("usage should still be recorded on the backend")
	}
}

func TestUsageTracker_AdministratorRoutesToDocumentStore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.gateway.SignIn(ctx, adminEmail, "secret"); err != nil {
		t.Fatal(err)
	}
	ident, _ := f.store.Current()
	calls := f.api.calls

	f.usage.RecordAssessmentCompletion(ctx, ident)

	if f.api.calls != calls {
		t.Fatal("administrator usage must not reach the REST backend")
	}
	stored, _ := f.admins.FindByID(ctx, ident.ID)
	if stored.AssessmentsCompleted != 1 {
		t.Fatalf("document store not updated: %+v", stored)
	}
	if cur, _ := f.store.Current(); cur.AssessmentsCompleted != 1 {
		t.Fatal("session not refreshed")
	}
}
