package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Analytics    AnalyticsConfig
	Seed         SeedConfig
	FeatureFlags FeatureFlagsConfig
	CORS         CORSConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Maintenance  MaintenanceConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SUPERMARKET_APP_ENV" required:"true"`
	CashierPort  string `envconfig:"SUPERMARKET_CASHIER_PORT" default:"8000"`
	OwnerPort    string `envconfig:"SUPERMARKET_OWNER_PORT" default:"8001"`
	LogLevel     string `envconfig:"SUPERMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SUPERMARKET_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"SUPERMARKET_LOG_FORMAT"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SUPERMARKET_DB_DSN"`
	Driver string `envconfig:"SUPERMARKET_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SUPERMARKET_DB_HOST"`
	Port     int    `envconfig:"SUPERMARKET_DB_PORT" default:"5432"`
	User     string `envconfig:"SUPERMARKET_DB_USER"`
	Password string `envconfig:"SUPERMARKET_DB_PASSWORD"`
	Name     string `envconfig:"SUPERMARKET_DB_NAME"`
	SSLMode  string `envconfig:"SUPERMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SUPERMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SUPERMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SUPERMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SUPERMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQuery is the threshold above which statements are logged. Zero
	// disables statement logging.
	SlowQuery time.Duration `envconfig:"SUPERMARKET_DB_SLOW_QUERY" default:"500ms"`
}

// IsSQLite reports whether the store runs on the embedded SQLite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"SUPERMARKET_REDIS_URL"`
	Address      string        `envconfig:"SUPERMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"SUPERMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"SUPERMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SUPERMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SUPERMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SUPERMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SUPERMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SUPERMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured at all.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type AnalyticsConfig struct {
	CacheTTL            time.Duration `envconfig:"SUPERMARKET_ANALYTICS_CACHE_TTL" default:"0s"`
	DefaultMinPurchases int           `envconfig:"SUPERMARKET_ANALYTICS_MIN_PURCHASES" default:"3"`
	DefaultTopN         int           `envconfig:"SUPERMARKET_ANALYTICS_TOP_N" default:"3"`
}

type SeedConfig struct {
	DataDir     string        `envconfig:"SUPERMARKET_SEED_DATA_DIR" default:"data"`
	WaitRetries int           `envconfig:"SUPERMARKET_SEED_WAIT_RETRIES" default:"10"`
	WaitDelay   time.Duration `envconfig:"SUPERMARKET_SEED_WAIT_DELAY" default:"2s"`
	Reset       bool          `envconfig:"SUPERMARKET_SEED_RESET" default:"false"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SUPERMARKET_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SUPERMARKET_CORS_ALLOWED_ORIGINS" default:"*"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SUPERMARKET_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	PurchasesTopic string `envconfig:"SUPERMARKET_PUBSUB_PURCHASES_TOPIC"`
	// CustomersTopic receives customer_created events. Blank means the
	// purchases topic.
	CustomersTopic string `envconfig:"SUPERMARKET_PUBSUB_CUSTOMERS_TOPIC"`
}

// Enabled reports whether purchase events should be relayed to Pub/Sub.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.PurchasesTopic) != ""
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SUPERMARKET_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SUPERMARKET_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SUPERMARKET_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// MaintenanceConfig drives the cron worker's retention jobs.
type MaintenanceConfig struct {
	Interval            time.Duration `envconfig:"SUPERMARKET_MAINTENANCE_INTERVAL" default:"24h"`
	OutboxRetentionDays int           `envconfig:"SUPERMARKET_OUTBOX_RETENTION_DAYS" default:"30"`
	DLQRetentionDays    int           `envconfig:"SUPERMARKET_OUTBOX_DLQ_RETENTION_DAYS" default:"90"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
