// Package config reads the gateway settings from OMA_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"oma-gateway/internal/backend"
	"oma-gateway/internal/fetch"
	"oma-gateway/internal/logs"
	"oma-gateway/internal/storage"
)

type Config struct {
	BackendURL string `env:"OMA_BACKEND_URL" envDefault:"https://oma-demo-server.onrender.com"`
	ListenAddr string `env:"OMA_LISTEN_ADDR" envDefault:":8080"`

	LogLevel  string `env:"OMA_LOG_LEVEL"  envDefault:"INFO"`
	LogBuffer int    `env:"OMA_LOG_BUFFER" envDefault:"1000"`

	FetchMaxRetries   int           `env:"OMA_FETCH_MAX_RETRIES"   envDefault:"5"`
	FetchInitialDelay time.Duration `env:"OMA_FETCH_INITIAL_DELAY" envDefault:"2s"`
	FetchRateLimit    float64       `env:"OMA_FETCH_RATE_LIMIT"    envDefault:"0"`
	FetchRateBurst    int           `env:"OMA_FETCH_RATE_BURST"    envDefault:"1"`
	HTTPTimeout       time.Duration `env:"OMA_HTTP_TIMEOUT"        envDefault:"0s"`

	CacheTTL           time.Duration `env:"OMA_CACHE_TTL"            envDefault:"5m"`
	CacheRetention     time.Duration `env:"OMA_CACHE_RETENTION"      envDefault:"24h"`
	CacheSweepInterval time.Duration `env:"OMA_CACHE_SWEEP_INTERVAL" envDefault:"1h"`

	StorageDriver string `env:"OMA_STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string `env:"OMA_SQLITE_PATH"    envDefault:"oma-cache.db"`
	S3Endpoint    string `env:"OMA_S3_ENDPOINT"`
	S3AccessKey   string `env:"OMA_S3_ACCESS_KEY"`
	S3SecretKey   string `env:"OMA_S3_SECRET_KEY"`
	S3Bucket      string `env:"OMA_S3_BUCKET"`
	S3Prefix      string `env:"OMA_S3_PREFIX"`
	S3Region      string `env:"OMA_S3_REGION"`
	S3UseSSL      bool   `env:"OMA_S3_USE_SSL" envDefault:"true"`

	KeepAliveInterval time.Duration `env:"OMA_KEEPALIVE_INTERVAL" envDefault:"10m"`
	PreloadSchedule   string        `env:"OMA_PRELOAD_SCHEDULE"   envDefault:"@every 5m"`
	DashboardSchedule string        `env:"OMA_DASHBOARD_SCHEDULE" envDefault:"@every 1m"`
}

// Load parses and validates the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("OMA_BACKEND_URL %q is not an absolute URL", c.BackendURL))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, errors.New("OMA_CACHE_TTL must be positive"))
	}
	if c.CacheSweepInterval <= 0 {
		errs = append(errs, errors.New("OMA_CACHE_SWEEP_INTERVAL must be positive"))
	}
	if c.KeepAliveInterval <= 0 {
		errs = append(errs, errors.New("OMA_KEEPALIVE_INTERVAL must be positive"))
	}
	if c.StorageDriver == storage.DriverS3 && (c.S3Endpoint == "" || c.S3Bucket == "") {
		errs = append(errs, errors.New("s3 storage needs OMA_S3_ENDPOINT and OMA_S3_BUCKET"))
	}
	return errors.Join(errs...)
}

func (c Config) Level() logs.Level { return logs.ParseLevel(c.LogLevel) }

func (c Config) Fetch() fetch.Config {
	fc := fetch.DefaultConfig()
	fc.Retry.MaxRetries = c.FetchMaxRetries
	fc.Retry.InitialDelay = c.FetchInitialDelay
	fc.RateLimit = c.FetchRateLimit
	fc.RateBurst = c.FetchRateBurst
	fc.Timeout = c.HTTPTimeout
	return fc
}

func (c Config) Storage() storage.Config {
	return storage.Config{
		Driver:     c.StorageDriver,
		SQLitePath: c.SQLitePath,
		S3: storage.S3Config{
			Endpoint:  c.S3Endpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Bucket:    c.S3Bucket,
			Prefix:    c.S3Prefix,
			Region:    c.S3Region,
			UseSSL:    c.S3UseSSL,
		},
	}
}

func (c Config) Backend() backend.Config {
	bc := backend.DefaultConfig()
	bc.KeepAliveInterval = c.KeepAliveInterval
	return bc
}
