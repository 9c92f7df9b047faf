package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is passed to envconfig; individual tags carry full names.
	EnvPrefix = "RADIOSTOCK"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "RADIOSTOCK_APP_ENV"
	EnvDBDSN  = "RADIOSTOCK_DB_DSN"
	EnvDBHost = "RADIOSTOCK_DB_HOST"
	EnvDBUser = "RADIOSTOCK_DB_USER"
	EnvDBName = "RADIOSTOCK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Maintenance  MaintenanceConfig
	Bootstrap    BootstrapConfig
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
	Env          string `envconfig:"RADIOSTOCK_APP_ENV" required:"true"`
	Port         string `envconfig:"RADIOSTOCK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"RADIOSTOCK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RADIOSTOCK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RADIOSTOCK_DB_DSN"`
	Driver string `envconfig:"RADIOSTOCK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RADIOSTOCK_DB_HOST"`
	LegacyPort     int    `envconfig:"RADIOSTOCK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RADIOSTOCK_DB_USER"`
	LegacyPassword string `envconfig:"RADIOSTOCK_DB_PASSWORD"`
	LegacyName     string `envconfig:"RADIOSTOCK_DB_NAME"`
	LegacySSLMode  string `envconfig:"RADIOSTOCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RADIOSTOCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RADIOSTOCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RADIOSTOCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RADIOSTOCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RADIOSTOCK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RADIOSTOCK_REDIS_ADDR"`
	Password     string        `envconfig:"RADIOSTOCK_REDIS_PASSWORD"`
	DB           int           `envconfig:"RADIOSTOCK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RADIOSTOCK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RADIOSTOCK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RADIOSTOCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RADIOSTOCK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RADIOSTOCK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RADIOSTOCK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RADIOSTOCK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RADIOSTOCK_JWT_EXPIRATION_MINUTES" default:"480"`
}

// AccessTokenTTL returns the configured access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RADIOSTOCK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RADIOSTOCK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RADIOSTOCK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RADIOSTOCK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RADIOSTOCK_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RADIOSTOCK_AUTO_MIGRATE" default:"false"`
}

type MaintenanceConfig struct {
	WorkOrderPrefix string `envconfig:"RADIOSTOCK_WORK_ORDER_PREFIX" default:"MN"`
}

// BootstrapConfig seeds the first admin account on an empty users table.
// Both fields must be set for the seed to run.
type BootstrapConfig struct {
	AdminEmail    string `envconfig:"RADIOSTOCK_ADMIN_EMAIL" default:""`
	AdminPassword string `envconfig:"RADIOSTOCK_ADMIN_PASSWORD" default:""`
	AdminName     string `envconfig:"RADIOSTOCK_ADMIN_NAME" default:"Administrador"`
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
