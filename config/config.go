package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

/* Config reads an optional .env (TOML) file plus environment variables.
 * Every key has a default so env-only deployments unmarshal too.
 */

const (
	DriverMongo    = "mongo"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port         string `mapstructure:"PORT"`
	RoutesPrefix string `mapstructure:"ROUTES_PREFIX"`
	StoreDriver  string `mapstructure:"STORE_DRIVER"`

	MongoURI        string `mapstructure:"MONGO_URI"`
	MongoDatabase   string `mapstructure:"MONGO_DATABASE"`
	MongoCollection string `mapstructure:"MONGO_COLLECTION"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     string `mapstructure:"POSTGRES_PORT"`
	PostgresUser     string `mapstructure:"POSTGRES_USER"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB       string `mapstructure:"POSTGRES_DB"`
	PostgresSSLMode  string `mapstructure:"POSTGRES_SSLMODE"`

	// Connection pool
	PostgresMaxOpenConns       int `mapstructure:"POSTGRES_MAX_OPEN_CONNS"`
	PostgresMaxIdleConns       int `mapstructure:"POSTGRES_MAX_IDLE_CONNS"`
	PostgresConnMaxLifeMinutes int `mapstructure:"POSTGRES_CONN_MAX_LIFE_MINUTES"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogJSON  bool   `mapstructure:"LOG_JSON"`
}

var defaults = map[string]any{
	"PORT":                           "3000",
	"ROUTES_PREFIX":                  "/books",
	"STORE_DRIVER":                   DriverMongo,
	"MONGO_URI":                      "mongodb://localhost:27017",
	"MONGO_DATABASE":                 "library",
	"MONGO_COLLECTION":               "books",
	"REDIS_ADDR":                     "localhost:6379",
	"REDIS_PASSWORD":                 "",
	"REDIS_DB":                       0,
	"POSTGRES_HOST":                  "localhost",
	"POSTGRES_PORT":                  "5432",
	"POSTGRES_USER":                  "postgres",
	"POSTGRES_PASSWORD":              "",
	"POSTGRES_DB":                    "library",
	"POSTGRES_SSLMODE":               "disable",
	"POSTGRES_MAX_OPEN_CONNS":        25,
	"POSTGRES_MAX_IDLE_CONNS":        5,
	"POSTGRES_CONN_MAX_LIFE_MINUTES": 5,
	"LOG_LEVEL":                      "info",
	"LOG_JSON":                       false,
}

func GetConfig() (*Config, error) {
	return load(viper.New(), ".")
}

func load(v *viper.Viper, path string) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(path)
	v.AutomaticEnv()
	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	var config Config
	err = v.Unmarshal(&config)
	if err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	if len(config.RoutesPrefix) > 1 {
		config.RoutesPrefix = strings.TrimRight(config.RoutesPrefix, "/")
		if config.RoutesPrefix == "" {
			config.RoutesPrefix = "/"
		}
	}
	return &config, nil
}

// Validate checks the settings the selected driver needs
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	if !strings.HasPrefix(c.RoutesPrefix, "/") {
		return fmt.Errorf("ROUTES_PREFIX must start with /: %q", c.RoutesPrefix)
	}
	if c.RoutesPrefix == "/" {
		return errors.New("ROUTES_PREFIX cannot be the root path")
	}
	if strings.HasSuffix(c.RoutesPrefix, "/") {
		return fmt.Errorf("ROUTES_PREFIX must not end with /: %q", c.RoutesPrefix)
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo driver")
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis driver")
		}
	case DriverPostgres:
		if c.PostgresHost == "" || c.PostgresDB == "" {
			return errors.New("POSTGRES_HOST and POSTGRES_DB are required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// PostgresConnectionString builds a postgres:// URL so credentials are escaped
func (c *Config) PostgresConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     net.JoinHostPort(c.PostgresHost, c.PostgresPort),
		Path:     "/" + c.PostgresDB,
		RawQuery: url.Values{"sslmode": {c.PostgresSSLMode}}.Encode(),
	}
	return u.String()
}
