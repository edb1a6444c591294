package client

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/plan2protect/platform/internal/core/domain"
)

// UsageTracker records consumption against the identity's backend and
// refreshes the session from the reply. Failures are logged and swallowed:
// the session keeps its previous counters.
type UsageTracker struct {
	store    *Store
	backends *Backends
	timeout  time.Duration
	log      zerolog.Logger
}

func NewUsageTracker(store *Store, backends *Backends, timeout time.Duration, log zerolog.Logger) *UsageTracker {
	return &UsageTracker{store: store, backends: backends, timeout: timeout, log: log}
}

// RecordAssessmentCompletion adds one completed assessment to ident.
func (t *UsageTracker) RecordAssessmentCompletion(ctx context.Context, ident domain.Identity) {
	t.record(ctx, ident, "assessment completion", func(ctx context.Context, users UserBackend) (*domain.Identity, error) {
		return users.RecordAssessment(ctx, ident.ID)
	})
}

// RecordStorageUsage sets ident's storage total to totalMB.
func (t *UsageTracker) RecordStorageUsage(ctx context.Context, ident domain.Identity, totalMB float64) {
	t.record(ctx, ident, "storage usage", func(ctx context.Context, users UserBackend) (*domain.Identity, error) {
		return users.SetStorage(ctx, ident.ID, totalMB)
	})
}

func (t *UsageTracker) record(ctx context.Context, ident domain.Identity, what string, call func(context.Context, UserBackend) (*domain.Identity, error)) {
	version := t.store.Version()
	cur, ok := t.store.Current()
	sameSession := ok && cur.ID == ident.ID

	callCtx, cancel := callContext(ctx, t.timeout)
	defer cancel()

	updated, err := call(callCtx, t.backends.For(ident).Users)
	if err != nil {
		t.log.Error().Err(err).Str("user_id", ident.ID).Msgf("failed to record %s", what)
		return
	}
	if !sameSession {
		return
	}
	if !t.store.CompareAndSet(ctx, version, *updated) {
		t.log.Debug().Str("user_id", ident.ID).Msgf("dropping stale %s response", what)
	}
}
