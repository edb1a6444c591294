package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	JWTTTL    time.Duration `env:"JWT_TTL,   default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=15s"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Analysis AnalysisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=plan2protect"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// StorageConfig selects the blob store. An empty S3Bucket keeps blobs on
// local disk under LocalDir.
type StorageConfig struct {
	LocalDir     string `env:"STORAGE_DIR,      default=./uploads"`
	LocalBaseURL string `env:"STORAGE_BASE_URL, default=/files"`

	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3Region    string `env:"S3_REGION"`
	S3Bucket    string `env:"S3_BUCKET"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3PublicURL string `env:"S3_PUBLIC_URL"`
}

// UseS3 reports whether an S3 bucket is configured.
func (s StorageConfig) UseS3() bool { return s.S3Bucket != "" }

// AnalysisConfig points at the external analysis engine. An empty URL
// disables server-side analysis.
type AnalysisConfig struct {
	URL     string        `env:"ANALYSIS_ENGINE_URL"`
	Timeout time.Duration `env:"ANALYSIS_TIMEOUT, default=2m"`
	Workers int           `env:"ANALYSIS_WORKERS, default=4"`
}

// IsDevelopment reports a development environment.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// ClientConfig configures the session core that talks to the REST backend.
type ClientConfig struct {
	BackendURL     string        `env:"BACKEND_URL,     default=http://localhost:8080"`
	RequestTimeout time.Duration `env:"CLIENT_REQUEST_TIMEOUT, default=15s"`

	// AnalysisTimeout bounds one analysis engine call.
	AnalysisTimeout time.Duration `env:"CLIENT_ANALYSIS_TIMEOUT, default=2m"`

	SessionNamespace string        `env:"SESSION_NAMESPACE, default=plan2protect"`
	SessionTTL       time.Duration `env:"SESSION_TTL,       default=720h"`
	// SessionFile persists the session on local disk instead of Redis when set.
	SessionFile string `env:"SESSION_FILE"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads the server configuration from l.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadClient reads the session core configuration from l.
func LoadClient(ctx context.Context, l envconfig.Lookuper) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("config: CLIENT_REQUEST_TIMEOUT must be positive")
	}
	return &cfg, nil
}
