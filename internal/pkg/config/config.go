// Package config loads the client configuration from environment variables.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const appName = "catalog-client"

// Storage backends for credentials and proxy preferences.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

var defaultProxyURLs = []string{
	"https://cors-anywhere.herokuapp.com/",
	"https://api.allorigins.win/raw?url=",
	"https://corsproxy.io/?",
	"https://thingproxy.freeboard.io/fetch/",
}

type Config struct {
	API     APIConfig
	Proxy   ProxyConfig
	HTTP    HTTPConfig
	Store   StoreConfig
	Redis   RedisConfig
	Mongo   MongoConfig
	Output  OutputConfig
	Logging LoggingConfig
}

type APIConfig struct {
	BaseURL      string   `env:"CATALOG_BASE_URL,      default=http://localhost:5086/api"`
	Hostname     string   `env:"CATALOG_HOSTNAME,      default=localhost"`
	LoginPath    string   `env:"CATALOG_LOGIN_PATH,    default=/Auth/login"`
	RegisterPath string   `env:"CATALOG_REGISTER_PATH, default=/Auth/register"`
	ProductsPath string   `env:"CATALOG_PRODUCTS_PATH, default=/Products"`
	FieldCasing  []string `env:"FIELD_CASING"`
}

type ProxyConfig struct {
	URLs    []string `env:"CORS_PROXY_URLS"`
	Enabled bool     `env:"USE_CORS_PROXY,   default=false"`
	Index   int      `env:"CORS_PROXY_INDEX, default=0"`
}

type HTTPConfig struct {
	Timeout                 time.Duration `env:"HTTP_TIMEOUT,              default=10s"`
	MaxRetries              int           `env:"MAX_RETRIES,               default=3"`
	RetryDelay              time.Duration `env:"RETRY_DELAY,               default=1s"`
	RetryBackoff            string        `env:"RETRY_BACKOFF,             default=fixed"`
	CircuitBreaker          bool          `env:"CIRCUIT_BREAKER,           default=false"`
	CircuitBreakerThreshold uint32        `env:"CIRCUIT_BREAKER_THRESHOLD, default=5"`
	CircuitBreakerCoolDown  time.Duration `env:"CIRCUIT_BREAKER_COOLDOWN,  default=30s"`
}

type StoreConfig struct {
	Backend    string `env:"STORE_BACKEND, default=sqlite"`
	SQLitePath string `env:"SQLITE_PATH"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Prefix   string `env:"REDIS_PREFIX,   default=catalog:"`
}

type MongoConfig struct {
	URI        string `env:"MONGO_URI"`
	Database   string `env:"MONGO_DB,         default=catalog"`
	Collection string `env:"MONGO_COLLECTION, default=product_snapshots"`
}

type OutputConfig struct {
	ExportDir string `env:"EXPORT_DIR,     default=."`
	Locale    string `env:"CATALOG_LOCALE, default=en"`
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL,  default=info"`
	Pretty bool   `env:"LOG_PRETTY, default=true"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

// MustLoad is Load that panics on error.
func MustLoad(ctx context.Context) *Config {
	cfg, err := Load(ctx)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}

	if len(cfg.Proxy.URLs) == 0 {
		cfg.Proxy.URLs = append([]string(nil), defaultProxyURLs...)
	}
	if cfg.Store.SQLitePath == "" {
		path, err := defaultSQLitePath()
		if err != nil {
			return nil, err
		}
		cfg.Store.SQLitePath = path
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("config: MAX_RETRIES must not be negative")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("config: HTTP_TIMEOUT must be positive")
	}
	switch strings.ToLower(c.HTTP.RetryBackoff) {
	case "fixed", "exponential":
	default:
		return fmt.Errorf("config: RETRY_BACKOFF must be fixed or exponential, got %q", c.HTTP.RetryBackoff)
	}
	switch c.Store.Backend {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.Store.Backend)
	}
	if c.Proxy.Index < 0 || c.Proxy.Index >= len(c.Proxy.URLs) {
		return fmt.Errorf("config: CORS_PROXY_INDEX %d out of range", c.Proxy.Index)
	}
	return nil
}

func defaultSQLitePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user config dir: %w", err)
	}
	return filepath.Join(dir, appName, "catalog.db"), nil
}
