// Package client is the session core used by the web front end: it owns the
// signed-in identity and routes every operation to the backend that serves
// that identity's kind.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

var errNotSignedIn = fmt.Errorf("%w: not signed in", domain.ErrAuth)

// callContext bounds a single collaborator call.
func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// Gateway signs identities in and out of the session.
type Gateway struct {
	store    *Store
	idp      ports.IdentityProvider
	admins   ports.IdentityRepository
	api      RegularAPI
	backends *Backends
	timeout  time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewGateway(store *Store, idp ports.IdentityProvider, admins ports.IdentityRepository, api RegularAPI, backends *Backends, timeout time.Duration, log zerolog.Logger) *Gateway {
	return &Gateway{
		store:    store,
		idp:      idp,
		admins:   admins,
		api:      api,
		backends: backends,
		timeout:  timeout,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SignIn authenticates an administrator with a password. Emails outside the
// allow-list are rejected before any collaborator is contacted.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = domain.NormalizeEmail(email)
	if !domain.IsAdminEmail(email) {
		return nil, domain.ErrNotAdministrator
	}

	sess, err := g.providerCall(ctx, func(ctx context.Context) (*domain.Session, error) {
		return g.idp.SignIn(ctx, email, password)
	})
	if err != nil {
		// Only a rejection is an auth failure. An unreachable provider keeps
		// its own error so an outage never reads as bad credentials.
		if errors.Is(err, domain.ErrAuth) {
			g.log.Warn().Err(err).Str("email", email).Msg("administrator sign-in rejected")
			return nil, err
		}
		g.log.Error().Err(err).Str("email", email).Msg("identity provider unavailable")
		return nil, fmt.Errorf("sign in: %w", err)
	}

	ident, err := g.loadAdmin(ctx, sess.Subject, email, "")
	if err != nil {
		g.log.Error().Err(err).Str("user_id", sess.Subject).Msg("failed to load administrator record")
		return nil, err
	}

	g.store.Establish(ctx, *ident, sess.Token)
	g.log.Info().Str("user_id", ident.ID).Msg("administrator signed in")
	return ident, nil
}

// SignUp creates an administrator account and its document-store identity,
// then signs it in.
func (g *Gateway) SignUp(ctx context.Context, name, email, password string) (*domain.Identity, error) {
	email = domain.NormalizeEmail(email)
	if !domain.IsAdminEmail(email) {
		return nil, domain.ErrNotAdministrator
	}

	sess, err := g.providerCall(ctx, func(ctx context.Context) (*domain.Session, error) {
		return g.idp.SignUp(ctx, name, email, password)
	})
	if err != nil {
		g.log.Warn().Err(err).Str("email", email).Msg("administrator sign-up rejected")
		if errors.Is(err, domain.ErrRegistration) || errors.Is(err, domain.ErrAuth) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrRegistration, err)
	}

	ident, err := g.loadAdmin(ctx, sess.Subject, email, name)
	if err != nil {
		g.log.Error().Err(err).Str("user_id", sess.Subject).Msg("failed to create administrator record")
		return nil, err
	}

	g.store.Establish(ctx, *ident, sess.Token)
	g.log.Info().Str("user_id", ident.ID).Msg("administrator signed up")
	return ident, nil
}

// loadAdmin fetches the administrator record keyed by subject, creating it
// with zeroed counters when it does not exist yet, and stamps the login.
func (g *Gateway) loadAdmin(ctx context.Context, subject, email, name string) (*domain.Identity, error) {
	ctx, cancel := callContext(ctx, g.timeout)
	defer cancel()

	now := g.now()
	ident, err := g.admins.FindByID(ctx, subject)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if strings.TrimSpace(name) == "" {
			name, _, _ = strings.Cut(email, "@")
		}
		fresh := domain.NewIdentity(subject, name, email, now)
		if err := g.admins.Insert(ctx, &fresh); err != nil {
			return nil, err
		}
		return &fresh, nil
	case err != nil:
		return nil, err
	}

	ident.LastLoginAt = now
	if err := g.admins.Update(ctx, ident); err != nil {
		return nil, err
	}
	return ident, nil
}

// RegisterByEmail creates a regular identity on the REST backend.
func (g *Gateway) RegisterByEmail(ctx context.Context, name, email string, tier domain.PlanTier) (*domain.Identity, error) {
	email = domain.NormalizeEmail(email)
	if domain.IsAdminEmail(email) {
		return nil, domain.ErrAdminEmail
	}
	if tier == "" {
		tier = domain.PlanFree
	}

	ctx, cancel := callContext(ctx, g.timeout)
	defer cancel()

	ident, err := g.api.CreateUser(ctx, name, email, tier)
	if err != nil {
		g.log.Warn().Err(err).Str("email", email).Msg("email registration failed")
		return nil, err
	}

	g.store.Establish(ctx, *ident, "")
	g.log.Info().Str("user_id", ident.ID).Str("plan", string(ident.PlanTier)).Msg("user registered")
	return ident, nil
}

// SignInByEmail looks a regular identity up by email.
func (g *Gateway) SignInByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	email = domain.NormalizeEmail(email)
	if domain.IsAdminEmail(email) {
		return nil, fmt.Errorf("%w: administrators must sign in with a password", domain.ErrAuth)
	}

	ctx, cancel := callContext(ctx, g.timeout)
	defer cancel()

	ident, err := g.api.LoginByEmail(ctx, email)
	if err != nil {
		g.log.Warn().Err(err).Str("email", email).Msg("email sign-in failed")
		return nil, err
	}

	g.store.Establish(ctx, *ident, "")
	g.log.Info().Str("user_id", ident.ID).Msg("user signed in")
	return ident, nil
}

// SignOut revokes an administrator token and always clears the session. The
// revocation error, if any, is returned after the session is gone.
func (g *Gateway) SignOut(ctx context.Context) error {
	var revokeErr error
	if g.store.IsAdmin() {
		if token := g.store.Token(); token != "" {
			callCtx, cancel := callContext(ctx, g.timeout)
			revokeErr = g.idp.SignOut(callCtx, token)
			cancel()
			if revokeErr != nil {
				g.log.Warn().Err(revokeErr).Msg("token revocation failed")
			}
		}
	}

	g.store.Clear(ctx)
	if revokeErr != nil {
		return fmt.Errorf("sign out: %w", revokeErr)
	}
	return nil
}

// UpgradePlan moves the signed-in identity to tier.
func (g *Gateway) UpgradePlan(ctx context.Context, tier domain.PlanTier) (*domain.Identity, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: unknown plan %q", domain.ErrInvalidInput, tier)
	}
	return g.refreshWith(ctx, "plan upgrade", func(ctx context.Context, users UserBackend, id string) (*domain.Identity, error) {
		return users.UpgradePlan(ctx, id, tier)
	})
}

// Refresh reloads the signed-in identity from its backend.
func (g *Gateway) Refresh(ctx context.Context) (*domain.Identity, error) {
	return g.refreshWith(ctx, "refresh", func(ctx context.Context, users UserBackend, id string) (*domain.Identity, error) {
		return users.Get(ctx, id)
	})
}

func (g *Gateway) refreshWith(ctx context.Context, op string, call func(context.Context, UserBackend, string) (*domain.Identity, error)) (*domain.Identity, error) {
	version := g.store.Version()
	cur, ok := g.store.Current()
	if !ok {
		return nil, errNotSignedIn
	}

	callCtx, cancel := callContext(ctx, g.timeout)
	defer cancel()

	updated, err := call(callCtx, g.backends.For(cur).Users, cur.ID)
	if err != nil {
		g.log.Error().Err(err).Str("user_id", cur.ID).Msg(op + " failed")
		return nil, err
	}
	if !g.store.CompareAndSet(ctx, version, *updated) {
		g.log.Debug().Str("user_id", cur.ID).Msg(op + " response superseded by a newer session change")
	}
	return updated, nil
}

func (g *Gateway) providerCall(ctx context.Context, call func(context.Context) (*domain.Session, error)) (*domain.Session, error) {
	ctx, cancel := callContext(ctx, g.timeout)
	defer cancel()
	return call(ctx)
}
