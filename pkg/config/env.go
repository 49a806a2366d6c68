package config

const EnvPrefix = "SUPERMARKET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:supermarket.db?_foreign_keys=on"
)

const (
	EnvAppEnv      = "SUPERMARKET_APP_ENV"
	EnvCashierPort = "SUPERMARKET_CASHIER_PORT"
	EnvOwnerPort   = "SUPERMARKET_OWNER_PORT"
	EnvLogLevel    = "SUPERMARKET_LOG_LEVEL"

	EnvDBDSN    = "SUPERMARKET_DB_DSN"
	EnvDBDriver = "SUPERMARKET_DB_DRIVER"
	EnvDBHost   = "SUPERMARKET_DB_HOST"
	EnvDBPort   = "SUPERMARKET_DB_PORT"
	EnvDBUser   = "SUPERMARKET_DB_USER"
	EnvDBName   = "SUPERMARKET_DB_NAME"

	EnvRedisURL          = "SUPERMARKET_REDIS_URL"
	EnvAnalyticsCacheTTL = "SUPERMARKET_ANALYTICS_CACHE_TTL"
	EnvCORSOrigins       = "SUPERMARKET_CORS_ALLOWED_ORIGINS"
	EnvPubSubTopic       = "SUPERMARKET_PUBSUB_PURCHASES_TOPIC"
	EnvPubSubCustomers   = "SUPERMARKET_PUBSUB_CUSTOMERS_TOPIC"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
