package client

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/plan2protect/platform/internal/core/ports"
	"github.com/plan2protect/platform/internal/infrastructure/backend"
	"github.com/plan2protect/platform/internal/infrastructure/db/redis"
	"github.com/plan2protect/platform/internal/infrastructure/localstore"
	"github.com/plan2protect/platform/internal/pkg/config"
)

// Deps are the collaborators of the session core that the configuration
// cannot build on its own. Engine may be nil.
type Deps struct {
	Identity         ports.IdentityProvider
	AdminUsers       ports.IdentityRepository
	AdminAssessments ports.AssessmentRepository
	Blobs            ports.BlobStore
	Engine           ports.AnalysisEngine
	// API overrides the REST client built from BackendURL.
	API RegularAPI
	// Redis backs the session record when no session file is configured.
	Redis *goredis.Client
}

// App is an assembled session core with its session restored.
type App struct {
	Session   *Store
	Gateway   *Gateway
	Usage     *UsageTracker
	Catalog   *Catalog
	Analytics *Analytics
}

// NewApp wires the session core from cfg and restores the persisted session.
func NewApp(ctx context.Context, cfg *config.ClientConfig, deps Deps, log zerolog.Logger) *App {
	api := deps.API
	if api == nil {
		api = backend.New(cfg.BackendURL, cfg.RequestTimeout)
	}

	store := NewStore(sessionStorage(cfg, deps.Redis), log.With().Str("component", "session").Logger())
	store.Restore(ctx)

	backends := NewBackends(api, deps.AdminUsers, deps.AdminAssessments, deps.Blobs)
	usage := NewUsageTracker(store, backends, cfg.RequestTimeout, log.With().Str("component", "usage").Logger())

	catalog := NewCatalog(store, backends, usage, deps.Blobs, deps.Engine, cfg.RequestTimeout, log.With().Str("component", "catalog").Logger())
	catalog.SetAnalysisTimeout(cfg.AnalysisTimeout)

	return &App{
		Session:   store,
		Gateway:   NewGateway(store, deps.Identity, deps.AdminUsers, api, backends, cfg.RequestTimeout, log.With().Str("component", "gateway").Logger()),
		Usage:     usage,
		Catalog:   catalog,
		Analytics: NewAnalytics(store, api, deps.AdminUsers, cfg.RequestTimeout, log.With().Str("component", "analytics").Logger()),
	}
}

func sessionStorage(cfg *config.ClientConfig, rdb *goredis.Client) ports.SessionStorage {
	if cfg.SessionFile != "" || rdb == nil {
		path := cfg.SessionFile
		if path == "" {
			path = cfg.SessionNamespace + ".session.json"
		}
		return localstore.NewSessionFile(path)
	}
	return redis.NewSessionStorage(rdb, cfg.SessionNamespace, cfg.SessionTTL)
}
