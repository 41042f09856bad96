package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"casa360/pkg/logger"
)

type Config struct {
	HTTPPort string
	Env      string
	CORS     CORSConfig
	UserDB   DBConfig
	Cluster  ClusterConfig
	Tenant   TenantConfig
	JWT      JWTConfig
}

type CORSConfig struct {
	AllowedOrigins []string
}

// DBConfig describes one concrete database (the shared user database, or a
// tenant database once a name is filled in).
type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ClusterConfig points at the PostgreSQL cluster that hosts the tenant
// databases. The maintenance database is only used for CREATE/DROP DATABASE.
type ClusterConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	SSLMode         string
	MaintenanceDB   string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

const (
	StrategyTemplate = "template"
	StrategyScript   = "script"
)

type TenantConfig struct {
	Strategy     string
	TemplateName string
	SchemaPath   string
	NamePrefix   string
	MaxPools     int
}

type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

func Load(log logger.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		CORS: CORSConfig{
			AllowedOrigins: []string{getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000")},
		},
		UserDB: DBConfig{
			DSN:             getEnv("USER_DB_DSN", ""),
			Host:            getEnv("USER_DB_HOST", "localhost"),
			Port:            getEnv("USER_DB_PORT", "5432"),
			User:            getEnv("USER_DB_USER", "postgres"),
			Password:        getEnv("USER_DB_PASSWORD", "postgres"),
			Name:            getEnv("USER_DB_NAME", "casa360_users"),
			SSLMode:         getEnv("USER_DB_SSLMODE", "disable"),
			TimeZone:        getEnv("USER_DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("USER_DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("USER_DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("USER_DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Cluster: ClusterConfig{
			Host:            getEnv("HOUSE_DB_HOST", "localhost"),
			Port:            getEnv("HOUSE_DB_PORT", "5432"),
			User:            getEnv("HOUSE_DB_USER", "postgres"),
			Password:        getEnv("HOUSE_DB_PASSWORD", "postgres"),
			SSLMode:         getEnv("HOUSE_DB_SSLMODE", "disable"),
			MaintenanceDB:   getEnv("HOUSE_DB_MAINTENANCE_DB", "postgres"),
			MaxOpenConns:    getEnvInt("HOUSE_DB_MAX_OPEN_CONNS", 5),
			MaxIdleConns:    getEnvInt("HOUSE_DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvDuration("HOUSE_DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Tenant: TenantConfig{
			Strategy:     getEnv("TENANT_STRATEGY", StrategyTemplate),
			TemplateName: getEnv("TENANT_TEMPLATE_NAME", "house_template"),
			SchemaPath:   getEnv("TENANT_SCHEMA_PATH", "schema/house.sql"),
			NamePrefix:   getEnv("TENANT_NAME_PREFIX", "house_"),
			MaxPools:     getEnvInt("TENANT_MAX_POOLS", 64),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			Issuer: getEnv("JWT_ISSUER", "casa360"),
			TTL:    getEnvDuration("JWT_TTL", 24*time.Hour),
		},
	}

	if cfg.Tenant.Strategy != StrategyTemplate && cfg.Tenant.Strategy != StrategyScript {
		return Config{}, fmt.Errorf("invalid TENANT_STRATEGY %q", cfg.Tenant.Strategy)
	}
	if cfg.JWT.Secret == "" {
		if cfg.Env != "development" {
			return Config{}, fmt.Errorf("JWT_SECRET is required outside development")
		}
		log.Warn("config: JWT_SECRET not set, using insecure development secret")
		cfg.JWT.Secret = "casa360-dev-secret"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}

// TenantDB builds the DBConfig for one tenant database on the cluster.
func (c ClusterConfig) TenantDB(name string) DBConfig {
	return DBConfig{
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Name:            name,
		SSLMode:         c.SSLMode,
		TimeZone:        "UTC",
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

// MaintenanceDSN connects to the cluster's maintenance database for
// CREATE/DROP DATABASE statements.
func (c ClusterConfig) MaintenanceDSN() string {
	return c.TenantDB(c.MaintenanceDB).GetDSN()
}
