package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "fs"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Auth      AuthConfig
	Password  PasswordConfig
	Inventory InventoryConfig
	Eventing  EventingConfig
	Seed      SeedConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Inventory.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FS_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"FS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FS_LOG_WARN_STACK" default:"false"`
	// MetricsAddr exposes the Prometheus endpoint when non-empty.
	MetricsAddr string `envconfig:"FS_METRICS_ADDR" default:""`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	// Path is the location of the SQLite database file. The process owns the
	// file exclusively; no other writer may touch it.
	Path            string        `envconfig:"FS_DB_PATH" default:"francosphere.db"`
	BusyTimeout     time.Duration `envconfig:"FS_DB_BUSY_TIMEOUT" default:"5s"`
	MaxOpenConns    int           `envconfig:"FS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"FS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"FS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// DSN builds the SQLite connection string with the pragmas the write lane
// depends on (WAL readers, enforced foreign keys).
func (db DBConfig) DSN() string {
	timeoutMS := int(db.BusyTimeout / time.Millisecond)
	if timeoutMS <= 0 {
		timeoutMS = 5000
	}
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=%d", db.Path, timeoutMS)
}

type AuthConfig struct {
	MaxFailedLogins int           `envconfig:"FS_AUTH_MAX_FAILED_LOGINS" default:"5"`
	LockoutDuration time.Duration `envconfig:"FS_AUTH_LOCKOUT_DURATION" default:"30m"`
	SessionTTL      time.Duration `envconfig:"FS_AUTH_SESSION_TTL" default:"24h"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FS_ARGON_KEY_LEN" default:"32"`
}

const (
	// NegativeStockReject fails a ledger transaction whose stock_after would
	// drop below zero without writing anything.
	NegativeStockReject = "reject"
	// NegativeStockClamp floors stock_after at zero and records the clamped
	// value in the ledger row.
	NegativeStockClamp = "clamp"
)

type InventoryConfig struct {
	NegativeStockPolicy string `envconfig:"FS_INVENTORY_NEGATIVE_STOCK_POLICY" default:"reject"`
}

func (i InventoryConfig) validate() error {
	switch i.NegativeStockPolicy {
	case NegativeStockReject, NegativeStockClamp:
		return nil
	default:
		return fmt.Errorf("invalid negative stock policy %q (expected %q or %q)",
			i.NegativeStockPolicy, NegativeStockReject, NegativeStockClamp)
	}
}

type EventingConfig struct {
	// SubscriberBuffer is the per-subscriber channel depth; a subscriber that
	// falls this far behind starts dropping events.
	SubscriberBuffer int `envconfig:"FS_EVENTING_SUBSCRIBER_BUFFER" default:"64"`
}

type SeedConfig struct {
	Enabled       bool   `envconfig:"FS_SEED_ENABLED" default:"false"`
	AdminEmail    string `envconfig:"FS_SEED_ADMIN_EMAIL" default:"admin@francosphere.local"`
	AdminPassword string `envconfig:"FS_SEED_ADMIN_PASSWORD"`
}
