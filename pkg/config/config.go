package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "FLEETQUOTA"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv    = "FLEETQUOTA_APP_ENV"
	EnvPort      = "FLEETQUOTA_APP_PORT"
	EnvDBDSN     = "FLEETQUOTA_DB_DSN"
	EnvDBHost    = "FLEETQUOTA_DB_HOST"
	EnvDBUser    = "FLEETQUOTA_DB_USER"
	EnvDBName    = "FLEETQUOTA_DB_NAME"
	EnvRedisURL  = "FLEETQUOTA_REDIS_URL"
	EnvJWTSecret = "FLEETQUOTA_JWT_SECRET"
	EnvJWTIssuer = "FLEETQUOTA_JWT_ISSUER"

	EnvSeasonYear = "FLEETQUOTA_SEASON_YEAR"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Quota        QuotaConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"FLEETQUOTA_APP_ENV" required:"true"`
	Port         string `envconfig:"FLEETQUOTA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FLEETQUOTA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLEETQUOTA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FLEETQUOTA_DB_DSN"`
	Driver string `envconfig:"FLEETQUOTA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FLEETQUOTA_DB_HOST"`
	LegacyPort     int    `envconfig:"FLEETQUOTA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FLEETQUOTA_DB_USER"`
	LegacyPassword string `envconfig:"FLEETQUOTA_DB_PASSWORD"`
	LegacyName     string `envconfig:"FLEETQUOTA_DB_NAME"`
	LegacySSLMode  string `envconfig:"FLEETQUOTA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FLEETQUOTA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FLEETQUOTA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FLEETQUOTA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLEETQUOTA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLEETQUOTA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FLEETQUOTA_REDIS_ADDR"`
	Password     string        `envconfig:"FLEETQUOTA_REDIS_PASSWORD"`
	DB           int           `envconfig:"FLEETQUOTA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FLEETQUOTA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLEETQUOTA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLEETQUOTA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLEETQUOTA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FLEETQUOTA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FLEETQUOTA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FLEETQUOTA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"FLEETQUOTA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"FLEETQUOTA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FLEETQUOTA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FLEETQUOTA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FLEETQUOTA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FLEETQUOTA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FLEETQUOTA_ARGON_KEY_LEN" default:"32"`
}

// QuotaConfig scopes ledger reads and writes to the active fishing season.
type QuotaConfig struct {
	SeasonYear        int           `envconfig:"FLEETQUOTA_SEASON_YEAR" default:"2026"`
	LedgerCacheTTL    time.Duration `envconfig:"FLEETQUOTA_LEDGER_CACHE_TTL" default:"30s"`
	ReferenceCacheTTL time.Duration `envconfig:"FLEETQUOTA_REFERENCE_CACHE_TTL" default:"5m"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FLEETQUOTA_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FLEETQUOTA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FLEETQUOTA_GOOGLE_APPLICATION_CREDENTIALS"`
}

// PubSubConfig names the fleet notification topic used when a bycatch alert
// is shared. Empty means broadcasting is disabled. The subscription is only
// needed by the analytics worker.
type PubSubConfig struct {
	FleetAlertTopic        string `envconfig:"FLEETQUOTA_PUBSUB_FLEET_ALERT_TOPIC"`
	FleetAlertSubscription string `envconfig:"FLEETQUOTA_PUBSUB_FLEET_ALERT_SUBSCRIPTION"`
}

// BigQueryConfig names the analytics sink for shared fleet alerts.
type BigQueryConfig struct {
	Dataset               string        `envconfig:"FLEETQUOTA_BIGQUERY_DATASET"`
	FleetAlertEventsTable string        `envconfig:"FLEETQUOTA_BIGQUERY_FLEET_ALERT_EVENTS_TABLE" default:"fleet_alert_events"`
	ProcessedEventTTL     time.Duration `envconfig:"FLEETQUOTA_BIGQUERY_PROCESSED_EVENT_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FLEETQUOTA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FLEETQUOTA_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
