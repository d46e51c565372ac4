// Package config loads the application configuration from the environment.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into structured Go config.
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide defaults for everything that has a sensible one.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads a `.env` file into the process environment,
	// if one exists, before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read with the prefix BUILDSEARCH_, lowercased, and nested on
	"." (or "__" for shells that reject dots):

		BUILDSEARCH_DATABASE.DRIVER=postgres   -> database.driver
		BUILDSEARCH_FETCHER__TIMEOUT=10s       -> fetcher.timeout
*/

// EnvPrefix is the prefix every configuration variable carries.
const EnvPrefix = "BUILDSEARCH_"

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the root configuration object for the application.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Fetcher       FetcherConfig        `koanf:"fetcher" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server. Timeouts are seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
}

// DatabaseConfig selects the store backend and carries its connection
// parameters. Path is used by sqlite, the remaining fields by postgres.
type DatabaseConfig struct {
	Driver   string `koanf:"driver" validate:"required,oneof=sqlite postgres"`
	Path     string `koanf:"path" validate:"required_if=Driver sqlite"`
	Host     string `koanf:"host" validate:"required_if=Driver postgres"`
	Port     int    `koanf:"port" validate:"required_if=Driver postgres"`
	User     string `koanf:"user" validate:"required_if=Driver postgres"`
	Password string `koanf:"password"`
	Name     string `koanf:"name" validate:"required_if=Driver postgres"`
	SSLMode  string `koanf:"ssl_mode" validate:"required_if=Driver postgres"`
}

// PostgresDSN builds a postgres:// URL from the connection fields.
func (d DatabaseConfig) PostgresDSN() string {
	hostPort := net.JoinHostPort(d.Host, strconv.Itoa(d.Port))

	// The password may contain URL delimiters.
	encodedPassword := url.QueryEscape(d.Password)

	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		d.User,
		encodedPassword,
		hostPort,
		d.Name,
		d.SSLMode,
	)
}

// FetcherConfig configures the upstream builds endpoint.
type FetcherConfig struct {
	Endpoint     string        `koanf:"endpoint" validate:"required,url"`
	DefaultQuery string        `koanf:"default_query"`
	Timeout      time.Duration `koanf:"timeout" validate:"min=1s"`
}

// Default returns the configuration used for every key the environment does
// not set.
func Default() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:               "8080",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Driver:  DriverSQLite,
			Path:    "epicseven_builds.db",
			Port:    5432,
			SSLMode: "disable",
		},
		Fetcher: FetcherConfig{
			Endpoint:     "https://krivpfvxi0.execute-api.us-west-2.amazonaws.com/dev/getBuilds",
			DefaultQuery: "Apocalypse Ravi",
			Timeout:      30 * time.Second,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// LoadConfig reads the environment over the defaults, validates the result,
// and returns it.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := Default()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment are not user-configurable; telemetry must
	// agree with Primary.Env.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
