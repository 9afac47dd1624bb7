package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable consumed by the service.
const EnvPrefix = "FERIA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Orders        OrdersConfig
	Checkout      CheckoutConfig
	Mail          MailConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
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
	Env          string   `envconfig:"FERIA_APP_ENV" required:"true"`
	Port         string   `envconfig:"FERIA_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"FERIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"FERIA_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"FERIA_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FERIA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FERIA_DB_DSN"`
	Driver string `envconfig:"FERIA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FERIA_DB_HOST"`
	LegacyPort     int    `envconfig:"FERIA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FERIA_DB_USER"`
	LegacyPassword string `envconfig:"FERIA_DB_PASSWORD"`
	LegacyName     string `envconfig:"FERIA_DB_NAME"`
	LegacySSLMode  string `envconfig:"FERIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FERIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FERIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FERIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FERIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FERIA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FERIA_REDIS_ADDR"`
	Password     string        `envconfig:"FERIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"FERIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FERIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FERIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FERIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FERIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FERIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FERIA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FERIA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"FERIA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"FERIA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FERIA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FERIA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FERIA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FERIA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FERIA_ARGON_KEY_LEN" default:"32"`

	ResetTokenTTL time.Duration `envconfig:"FERIA_PASSWORD_RESET_TOKEN_TTL" default:"1h"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FERIA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"FERIA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FERIA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"FERIA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"FERIA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"FERIA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FERIA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FERIA_AUTO_MIGRATE" default:"false"`
}

// OrdersConfig exposes the fan-out priority and tagging thresholds. Amounts are
// integer colones; the defaults match the marketplace's current policy.
type OrdersConfig struct {
	PriorityUrgentTotal int `envconfig:"FERIA_ORDERS_PRIORITY_URGENT_TOTAL" default:"500000"`
	PriorityHighTotal   int `envconfig:"FERIA_ORDERS_PRIORITY_HIGH_TOTAL" default:"100000"`
	PriorityHighItems   int `envconfig:"FERIA_ORDERS_PRIORITY_HIGH_ITEMS" default:"5"`
	PriorityNormalTotal int `envconfig:"FERIA_ORDERS_PRIORITY_NORMAL_TOTAL" default:"50000"`

	TagHighValueTotal int `envconfig:"FERIA_ORDERS_TAG_HIGH_VALUE_TOTAL" default:"100000"`
	TagLowValueTotal  int `envconfig:"FERIA_ORDERS_TAG_LOW_VALUE_TOTAL" default:"10000"`
	TagBulkItems      int `envconfig:"FERIA_ORDERS_TAG_BULK_ITEMS" default:"5"`
}

// CheckoutConfig holds the flat-rate shipping policy. Orders at or above the
// free-shipping threshold ship at no charge; a zero threshold disables it.
type CheckoutConfig struct {
	ShippingFlatCents     int64 `envconfig:"FERIA_CHECKOUT_SHIPPING_FLAT_CENTS" default:"2500"`
	FreeShippingMinCents  int64 `envconfig:"FERIA_CHECKOUT_FREE_SHIPPING_MIN_CENTS" default:"0"`
	IdempotencyTTLMinutes int   `envconfig:"FERIA_CHECKOUT_IDEMPOTENCY_TTL_MINUTES" default:"1440"`
}

type MailConfig struct {
	SMTPHost    string `envconfig:"FERIA_SMTP_HOST"`
	SMTPPort    int    `envconfig:"FERIA_SMTP_PORT" default:"587"`
	SMTPUser    string `envconfig:"FERIA_SMTP_USER"`
	SMTPPass    string `envconfig:"FERIA_SMTP_PASS"`
	FromAddress string `envconfig:"FERIA_MAIL_FROM" default:"no-reply@feria.cr"`
	FrontendURL string `envconfig:"FERIA_FRONTEND_URL" default:"http://localhost:3000"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FERIA_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FERIA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FERIA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"FERIA_PUBSUB_DOMAIN_TOPIC" default:"feria-domain-events"`
	DomainSubscription string `envconfig:"FERIA_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FERIA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FERIA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FERIA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval           time.Duration `envconfig:"FERIA_CRON_INTERVAL" default:"5m"`
	ReconcileLookback  time.Duration `envconfig:"FERIA_CRON_RECONCILE_LOOKBACK" default:"720h"`
	LockTTL            time.Duration `envconfig:"FERIA_CRON_LOCK_TTL" default:"4m"`
	ResetTokenMaxAge   time.Duration `envconfig:"FERIA_CRON_RESET_TOKEN_MAX_AGE" default:"24h"`
	MetricsListenAddr  string        `envconfig:"FERIA_CRON_METRICS_ADDR" default:":9102"`
	DisableMetricsHTTP bool          `envconfig:"FERIA_CRON_METRICS_DISABLED" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		"FERIA_DB_HOST": db.LegacyHost,
		"FERIA_DB_USER": db.LegacyUser,
		"FERIA_DB_NAME": db.LegacyName,
	}
	for _, env := range []string{"FERIA_DB_HOST", "FERIA_DB_USER", "FERIA_DB_NAME"} {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either FERIA_DB_DSN or %s are required", strings.Join(missing, ", "))
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
