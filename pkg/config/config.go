package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "METACRM"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "METACRM_DB_DSN"
	EnvDBHost = "METACRM_DB_HOST"
	EnvDBUser = "METACRM_DB_USER"
	EnvDBName = "METACRM_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Facebook      FacebookConfig
	Sync          SyncConfig
	Insights      InsightsConfig
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
	Env          string `envconfig:"METACRM_APP_ENV" required:"true"`
	Port         string `envconfig:"METACRM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"METACRM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"METACRM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"METACRM_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"METACRM_DB_DSN"`
	Driver string `envconfig:"METACRM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"METACRM_DB_HOST"`
	LegacyPort     int    `envconfig:"METACRM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"METACRM_DB_USER"`
	LegacyPassword string `envconfig:"METACRM_DB_PASSWORD"`
	LegacyName     string `envconfig:"METACRM_DB_NAME"`
	LegacySSLMode  string `envconfig:"METACRM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"METACRM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"METACRM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"METACRM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"METACRM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"METACRM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"METACRM_REDIS_ADDR"`
	Password     string        `envconfig:"METACRM_REDIS_PASSWORD"`
	DB           int           `envconfig:"METACRM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"METACRM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"METACRM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"METACRM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"METACRM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"METACRM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"METACRM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"METACRM_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"METACRM_JWT_EXPIRATION_MINUTES" default:"43200"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"METACRM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"METACRM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"METACRM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"METACRM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"METACRM_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"METACRM_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"METACRM_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"METACRM_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"METACRM_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"METACRM_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"METACRM_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"METACRM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"METACRM_AUTO_MIGRATE" default:"false"`
}

type FacebookConfig struct {
	AppID        string `envconfig:"METACRM_FACEBOOK_APP_ID"`
	AppSecret    string `envconfig:"METACRM_FACEBOOK_APP_SECRET"`
	GraphBaseURL string `envconfig:"METACRM_FACEBOOK_GRAPH_BASE_URL" default:"https://graph.facebook.com/v19.0"`
}

type SyncConfig struct {
	Interval   time.Duration `envconfig:"METACRM_SYNC_INTERVAL" default:"15m"`
	LeadsLimit int           `envconfig:"METACRM_SYNC_LEADS_PAGE_LIMIT" default:"100"`
}

type InsightsConfig struct {
	CacheTTL        time.Duration `envconfig:"METACRM_INSIGHTS_CACHE_TTL" default:"6h"`
	RefreshInterval time.Duration `envconfig:"METACRM_INSIGHTS_REFRESH_INTERVAL" default:"6h"`
	RefreshWindow   time.Duration `envconfig:"METACRM_INSIGHTS_REFRESH_WINDOW" default:"1h"`
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
