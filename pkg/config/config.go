package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable consumed by the service.
	EnvPrefix = "SCM"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Inventory InventoryConfig
	Orders    OrdersConfig
	CORS      CORSConfig
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
	Env          string `envconfig:"SCM_APP_ENV" default:"dev"`
	Port         string `envconfig:"SCM_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SCM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SCM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"SCM_DB_DSN"`

	Host     string `envconfig:"SCM_DB_HOST"`
	Port     int    `envconfig:"SCM_DB_PORT" default:"5432"`
	User     string `envconfig:"SCM_DB_USER"`
	Password string `envconfig:"SCM_DB_PASSWORD"`
	Name     string `envconfig:"SCM_DB_NAME"`
	SSLMode  string `envconfig:"SCM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SCM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SCM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SCM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SCM_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"SCM_DB_AUTO_MIGRATE" default:"false"`
}

// ensureDSN assembles a Postgres DSN from discrete parts when one is not
// provided directly.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either SCM_DB_DSN or SCM_DB_HOST/SCM_DB_USER/SCM_DB_NAME must be set")
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()

	d.DSN = u.String()
	return nil
}

// InventoryConfig holds the stock ledger policy knobs.
type InventoryConfig struct {
	// StrictAdjust refuses stock adjustments that would drive on-hand below
	// the reserved quantity. Off by default: shrinkage write-offs are a legal
	// (audited) path.
	StrictAdjust bool `envconfig:"SCM_INVENTORY_STRICT_ADJUST" default:"false"`
}

// OrdersConfig holds the order lifecycle policy knobs.
type OrdersConfig struct {
	// AllowBackwardTransitions permits reversing a non-terminal order status
	// (e.g. processing back to confirmed) in addition to the forward edges.
	AllowBackwardTransitions bool `envconfig:"SCM_ORDERS_ALLOW_BACKWARD_TRANSITIONS" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SCM_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
