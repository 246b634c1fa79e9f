package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the optional YAML
// config file path.
const EnvConfigPath = "REGISTRY_CONFIG"

// Config is the full process configuration.
type Config struct {
	GitHub   GitHubConfig   `yaml:"github"`
	Cache    CacheConfig    `yaml:"cache"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Server   ServerConfig   `yaml:"server"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Log      LogConfig      `yaml:"log"`
}

// GitHubConfig controls the API client.
type GitHubConfig struct {
	Token              string        `yaml:"token"`
	BaseURL            string        `yaml:"base_url"`
	MaxRetries         int           `yaml:"max_retries"`
	InitialBackoff     time.Duration `yaml:"initial_backoff"`
	RateLimitThreshold int           `yaml:"rate_limit_threshold"`
	MaxRateLimitWait   time.Duration `yaml:"max_rate_limit_wait"`
	Timeout            time.Duration `yaml:"timeout"`
}

// CacheConfig controls the API response cache. A zero TTL disables it.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// RedisConfig holds Redis connection settings. An empty URL means the cache
// stays in process.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PostgresConfig selects the Postgres store when DSN is set.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// DatasetConfig locates the JSON dataset file.
type DatasetConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type RefreshConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		GitHub: GitHubConfig{
			BaseURL:            "https://api.github.com",
			MaxRetries:         3,
			InitialBackoff:     time.Second,
			RateLimitThreshold: 100,
			MaxRateLimitWait:   time.Hour,
			Timeout:            30 * time.Second,
		},
		Cache: CacheConfig{TTL: 0},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Dataset: DatasetConfig{Path: "data/projects.json"},
		Server:  ServerConfig{Addr: ":8080"},
		Refresh: RefreshConfig{Concurrency: 4},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// FromEnv builds a Config from defaults and environment variables so main
// stays lean.
func FromEnv() (Config, error) {
	cfg := Defaults()
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load builds a Config from defaults, then the YAML file at path (or at
// $REGISTRY_CONFIG when path is empty), then environment variables.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	envString("GITHUB_TOKEN", &cfg.GitHub.Token)
	envString("GITHUB_API_URL", &cfg.GitHub.BaseURL)
	envString("REGISTRY_REDIS_URL", &cfg.Redis.URL)
	envString("REGISTRY_POSTGRES_DSN", &cfg.Postgres.DSN)
	envString("REGISTRY_DATASET", &cfg.Dataset.Path)
	envString("REGISTRY_ADDR", &cfg.Server.Addr)
	envString("REGISTRY_LOG_LEVEL", &cfg.Log.Level)
	envString("REGISTRY_LOG_FORMAT", &cfg.Log.Format)

	for name, dst := range map[string]*int{
		"GITHUB_MAX_RETRIES":           &cfg.GitHub.MaxRetries,
		"GITHUB_RATE_LIMIT_THRESHOLD":  &cfg.GitHub.RateLimitThreshold,
		"REGISTRY_REDIS_POOL_SIZE":     &cfg.Redis.PoolSize,
		"REGISTRY_REFRESH_CONCURRENCY": &cfg.Refresh.Concurrency,
	} {
		if err := envInt(name, dst); err != nil {
			return err
		}
	}

	for name, dst := range map[string]*time.Duration{
		"GITHUB_INITIAL_BACKOFF":     &cfg.GitHub.InitialBackoff,
		"GITHUB_MAX_RATE_LIMIT_WAIT": &cfg.GitHub.MaxRateLimitWait,
		"GITHUB_TIMEOUT":             &cfg.GitHub.Timeout,
		"REGISTRY_CACHE_TTL":         &cfg.Cache.TTL,
	} {
		if err := envDuration(name, dst); err != nil {
			return err
		}
	}
	return nil
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", name, v)
	}
	*dst = n
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", name, v)
	}
	*dst = d
	return nil
}
