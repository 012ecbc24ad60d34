package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ulule/limiter/v3"

	"pharmacy/m/domain"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration values.
type Config struct {
	AppEnv         string
	HTTPPort       string
	Secret         string
	TokenTTL       time.Duration
	AllowedOrigins []string
	LoginRate      string
	CatalogCSV     string

	Database DatabaseConfig
	Logger   LoggerConfig
	Accounts AccountsConfig

	// Warnings collects values that were rejected and replaced by defaults.
	// They are logged once the logger exists.
	Warnings []string
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type AccountsConfig struct {
	DefaultUserPassword  string
	DefaultAdminPassword string
	BootstrapAdmins      []AdminAccount
}

// AdminAccount is an account guaranteed to exist and be active at startup.
type AdminAccount struct {
	Username string
	Role     domain.Role
	Email    string
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads configuration from environment variables with reasonable defaults.
// A .env file in the working directory is applied first when present.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		Secret:         getEnv("SECRET", "dev_secret"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		LoginRate:      getEnv("LOGIN_RATE", "20-M"),
		CatalogCSV:     os.Getenv("CATALOG_CSV"),
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DATABASE_DRIVER", DriverSQLite)),
			DSN:    os.Getenv("DATABASE_DSN"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOG_LEVEL", "info"),
			Encoding:          getEnv("LOG_ENCODING", ""),
			DisableCaller:     getEnvBool("LOG_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOG_DISABLE_STACKTRACE", false),
		},
		Accounts: AccountsConfig{
			DefaultUserPassword:  getEnv("DEFAULT_USER_PASSWORD", "changeme"),
			DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", "admin123"),
		},
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		cfg.warnf("invalid HTTP_PORT value %q, defaulting to 8080", cfg.HTTPPort)
		cfg.HTTPPort = "8080"
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil || ttl <= 0 {
		cfg.warnf("invalid TOKEN_TTL value %q, defaulting to 24h", os.Getenv("TOKEN_TTL"))
		ttl = 24 * time.Hour
	}
	cfg.TokenTTL = ttl

	if _, err := limiter.NewRateFromFormatted(cfg.LoginRate); err != nil {
		cfg.warnf("invalid LOGIN_RATE value %q, defaulting to 20-M", cfg.LoginRate)
		cfg.LoginRate = "20-M"
	}

	switch cfg.Database.Driver {
	case DriverSQLite:
		if cfg.Database.DSN == "" {
			cfg.Database.DSN = "pharmacy.db"
		}
		cfg.Database.MaxOpenConns = 1
		cfg.Database.MaxIdleConns = 1
	case DriverPostgres:
		if cfg.Database.DSN == "" {
			cfg.Database.DSN = postgresDSN()
		}
		cfg.Database.MaxOpenConns = getEnvInt("DATABASE_MAX_OPEN_CONNS", 10)
		cfg.Database.MaxIdleConns = getEnvInt("DATABASE_MAX_IDLE_CONNS", 5)
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	default:
		cfg.warnf("unsupported DATABASE_DRIVER %q, defaulting to sqlite", cfg.Database.Driver)
		cfg.Database = DatabaseConfig{Driver: DriverSQLite, DSN: "pharmacy.db", MaxOpenConns: 1, MaxIdleConns: 1}
	}

	admins, err := ParseAdminAccounts(getEnv("BOOTSTRAP_ADMINS", "admin:Super Admin"))
	if err != nil {
		cfg.warnf("invalid BOOTSTRAP_ADMINS: %v, defaulting to admin:Super Admin", err)
		admins = []AdminAccount{{Username: "admin", Role: domain.RoleSuperAdmin}}
	}
	cfg.Accounts.BootstrapAdmins = admins

	return cfg
}

// ParseAdminAccounts parses a comma separated list of username:Role[:email] entries.
func ParseAdminAccounts(raw string) ([]AdminAccount, error) {
	var accounts []AdminAccount
	for _, entry := range splitList(raw) {
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("entry %q must look like username:Role[:email]", entry)
		}
		account := AdminAccount{
			Username: strings.TrimSpace(parts[0]),
			Role:     domain.Role(strings.TrimSpace(parts[1])),
		}
		if len(parts) == 3 {
			account.Email = strings.TrimSpace(parts[2])
		}
		if account.Username == "" {
			return nil, fmt.Errorf("entry %q has an empty username", entry)
		}
		if !account.Role.Valid() {
			return nil, fmt.Errorf("entry %q has unknown role %q", entry, account.Role)
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func postgresDSN() string {
	host := getEnv("DB_HOST", "localhost")
	user := getEnv("DB_USER", "postgres")
	port := getEnv("DB_PORT", "5432")
	name := getEnv("DB_NAME", "pharmacy")
	password := os.Getenv("DB_PASSWORD")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
