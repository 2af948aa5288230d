package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	Sync   SyncConfig
	JWT    JWTConfig
	Lookup LookupConfig
	Notify NotifyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PANTRYLOG_APP_ENV" default:"development"`
	Port         string `envconfig:"PANTRYLOG_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PANTRYLOG_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PANTRYLOG_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	// Driver selects the dialector: "sqlite" for the on-device store,
	// "postgres" for a self-hosted deployment.
	Driver string `envconfig:"PANTRYLOG_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"PANTRYLOG_DB_DSN" default:"pantrylog.db"`

	MaxOpenConns    int           `envconfig:"PANTRYLOG_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"PANTRYLOG_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"PANTRYLOG_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PANTRYLOG_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"PANTRYLOG_DB_AUTO_MIGRATE" default:"true"`
}

type RedisConfig struct {
	// Enabled toggles the lookup cache; the core works without redis.
	Enabled      bool          `envconfig:"PANTRYLOG_REDIS_ENABLED" default:"false"`
	Address      string        `envconfig:"PANTRYLOG_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"PANTRYLOG_REDIS_PASSWORD"`
	DB           int           `envconfig:"PANTRYLOG_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PANTRYLOG_REDIS_POOL_SIZE" default:"5"`
	DialTimeout  time.Duration `envconfig:"PANTRYLOG_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PANTRYLOG_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PANTRYLOG_REDIS_WRITE_TIMEOUT" default:"5s"`
	LookupTTL    time.Duration `envconfig:"PANTRYLOG_REDIS_LOOKUP_TTL" default:"168h"`
}

type SyncConfig struct {
	RemoteURL    string        `envconfig:"PANTRYLOG_SYNC_REMOTE_URL"`
	PushTimeout  time.Duration `envconfig:"PANTRYLOG_SYNC_PUSH_TIMEOUT" default:"30s"`
	ProbeTimeout time.Duration `envconfig:"PANTRYLOG_SYNC_PROBE_TIMEOUT" default:"3s"`
	BatchLimit   int           `envconfig:"PANTRYLOG_SYNC_BATCH_LIMIT" default:"200"`
	Interval     time.Duration `envconfig:"PANTRYLOG_SYNC_INTERVAL" default:"5m"`
	Tier         string        `envconfig:"PANTRYLOG_SYNC_TIER" default:"free"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PANTRYLOG_JWT_SECRET"`
	Issuer            string `envconfig:"PANTRYLOG_JWT_ISSUER" default:"pantrylog-device"`
	ExpirationMinutes int    `envconfig:"PANTRYLOG_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the device token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type LookupConfig struct {
	BaseURL        string        `envconfig:"PANTRYLOG_LOOKUP_BASE_URL" default:"https://world.openfoodfacts.org"`
	Timeout        time.Duration `envconfig:"PANTRYLOG_LOOKUP_TIMEOUT" default:"10s"`
	ContributeURL  string        `envconfig:"PANTRYLOG_LOOKUP_CONTRIBUTE_URL"`
	ContributeUser string        `envconfig:"PANTRYLOG_LOOKUP_CONTRIBUTE_USER"`
}

type NotifyConfig struct {
	// ReminderLead is subtracted from the expiry date to derive reminder time.
	ReminderLead time.Duration `envconfig:"PANTRYLOG_NOTIFY_REMINDER_LEAD" default:"24h"`
}
