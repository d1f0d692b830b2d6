package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	IPay     IPayConfig
	Cron     CronConfig
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
	Env          string `envconfig:"KARTVELO_APP_ENV" required:"true"`
	Port         string `envconfig:"KARTVELO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KARTVELO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KARTVELO_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"KARTVELO_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KARTVELO_DB_DSN"`
	Driver string `envconfig:"KARTVELO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KARTVELO_DB_HOST"`
	LegacyPort     int    `envconfig:"KARTVELO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KARTVELO_DB_USER"`
	LegacyPassword string `envconfig:"KARTVELO_DB_PASSWORD"`
	LegacyName     string `envconfig:"KARTVELO_DB_NAME"`
	LegacySSLMode  string `envconfig:"KARTVELO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KARTVELO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KARTVELO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KARTVELO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KARTVELO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KARTVELO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KARTVELO_REDIS_ADDR"`
	Password     string        `envconfig:"KARTVELO_REDIS_PASSWORD"`
	DB           int           `envconfig:"KARTVELO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KARTVELO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KARTVELO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KARTVELO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KARTVELO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KARTVELO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KARTVELO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KARTVELO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KARTVELO_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KARTVELO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KARTVELO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KARTVELO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KARTVELO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KARTVELO_ARGON_KEY_LEN" default:"32"`
}

// IPayConfig carries the bank gateway credentials and callback wiring. The
// gateway's callback-signing public key is loaded here at process start, never
// embedded in source.
type IPayConfig struct {
	BaseURL       string        `envconfig:"KARTVELO_IPAY_BASE_URL" required:"true"`
	ClientID      string        `envconfig:"KARTVELO_IPAY_CLIENT_ID" required:"true"`
	ClientSecret  string        `envconfig:"KARTVELO_IPAY_CLIENT_SECRET" required:"true"`
	PublicKeyPEM  string        `envconfig:"KARTVELO_IPAY_PUBLIC_KEY_PEM" required:"true"`
	CallbackURL   string        `envconfig:"KARTVELO_IPAY_CALLBACK_URL" required:"true"`
	SuccessURL    string        `envconfig:"KARTVELO_IPAY_SUCCESS_URL" required:"true"`
	FailURL       string        `envconfig:"KARTVELO_IPAY_FAIL_URL" required:"true"`
	Locale        string        `envconfig:"KARTVELO_IPAY_LOCALE" default:"ka"`
	Currency      string        `envconfig:"KARTVELO_IPAY_CURRENCY" default:"GEL"`
	Timeout       time.Duration `envconfig:"KARTVELO_IPAY_TIMEOUT" default:"30s"`
	WebhookDedupe time.Duration `envconfig:"KARTVELO_IPAY_WEBHOOK_DEDUPE_TTL" default:"24h"`
}

type CronConfig struct {
	StaleOrderAfter time.Duration `envconfig:"KARTVELO_CRON_STALE_ORDER_AFTER" default:"240h"`
	LockTTL         time.Duration `envconfig:"KARTVELO_CRON_LOCK_TTL" default:"1h"`
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
