package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "TASKS"

const (
	VerifierHeader = "header"
	VerifierStore  = "store"
)

type Config struct {
	ServerAddr     string
	StoreDriver    string
	StoreRegion    string
	StoreEndpoint  string
	DatabaseDSN    string
	Tables         database.TableNames
	Verifier       string
	BasePath       string
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
	AdminEnabled   bool
	AdminToken     string
	LogLevel       string
	LogFormat      string
}

// flag name -> config key
var flagKeys = map[string]string{
	"addr":            "server.addr",
	"store":           "store.driver",
	"region":          "store.region",
	"endpoint":        "store.endpoint",
	"dsn":             "database.dsn",
	"verifier":        "auth.verifier",
	"base-path":       "http.base_path",
	"allowed-origins": "http.allowed_origins",
	"rate-limit":      "http.rate_limit",
	"rate-burst":      "http.rate_burst",
	"admin":           "admin.enabled",
	"admin-token":     "admin.token",
	"log-level":       "log.level",
	"log-format":      "log.format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "localhost:8000")
	v.SetDefault("store.driver", database.DriverDynamo)
	v.SetDefault("store.region", "eu-central-1")
	v.SetDefault("tables.users", database.DefaultTableNames.Users)
	v.SetDefault("tables.conversations", database.DefaultTableNames.Conversations)
	v.SetDefault("tables.groups", database.DefaultTableNames.Groups)
	v.SetDefault("auth.verifier", VerifierStore)
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("http.rate_limit", 10.0)
	v.SetDefault("http.rate_burst", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("rsschool-tasks", pflag.ContinueOnError)
	fs.String("config", "", "path to a yaml config file")
	fs.String("addr", "localhost:8000", "server address")
	fs.String("store", database.DriverDynamo, "store driver: dynamodb, postgres or memory")
	fs.String("region", "eu-central-1", "AWS region of the DynamoDB tables")
	fs.String("endpoint", "", "DynamoDB endpoint override")
	fs.String("dsn", "", "postgres connection string")
	fs.String("verifier", VerifierStore, "default credential check: store or header")
	fs.String("base-path", "", "path prefix for every route")
	fs.StringSlice("allowed-origins", []string{"*"}, "comma-separated list of allowed origins for CORS")
	fs.Float64("rate-limit", 10, "requests per second, 0 disables")
	fs.Int("rate-burst", 20, "rate limiter burst")
	fs.Bool("admin", false, "mount the admin routes")
	fs.String("admin-token", "", "value expected in the X-Admin-Token header")
	fs.String("log-level", "info", "log level")
	fs.String("log-format", "text", "log format: text or json")
	return fs
}

// Load reads configuration from defaults, an optional yaml file, TASKS_*
// environment variables and command line flags, later sources winning.
func Load(args []string) (*Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return NewConfig(v)
}

func NewConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ServerAddr:    v.GetString("server.addr"),
		StoreDriver:   v.GetString("store.driver"),
		StoreRegion:   v.GetString("store.region"),
		StoreEndpoint: v.GetString("store.endpoint"),
		DatabaseDSN:   v.GetString("database.dsn"),
		Tables: database.TableNames{
			Users:         v.GetString("tables.users"),
			Conversations: v.GetString("tables.conversations"),
			Groups:        v.GetString("tables.groups"),
		},
		Verifier:       v.GetString("auth.verifier"),
		BasePath:       strings.TrimSuffix(v.GetString("http.base_path"), "/"),
		AllowedOrigins: v.GetStringSlice("http.allowed_origins"),
		RateLimit:      v.GetFloat64("http.rate_limit"),
		RateBurst:      v.GetInt("http.rate_burst"),
		AdminEnabled:   v.GetBool("admin.enabled"),
		AdminToken:     v.GetString("admin.token"),
		LogLevel:       v.GetString("log.level"),
		LogFormat:      v.GetString("log.format"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var result *multierror.Error

	if c.ServerAddr == "" {
		result = multierror.Append(result, errors.New("server address cannot be empty"))
	}

	switch c.StoreDriver {
	case database.DriverDynamo:
		if c.StoreRegion == "" {
			result = multierror.Append(result, errors.New("store region cannot be empty"))
		}
	case database.DriverPostgres:
		if c.DatabaseDSN == "" {
			result = multierror.Append(result, errors.New("database DSN cannot be empty"))
		}
	case database.DriverMemory:
	default:
		result = multierror.Append(result, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}

	if c.Tables.Users == "" || c.Tables.Conversations == "" || c.Tables.Groups == "" {
		result = multierror.Append(result, errors.New("table names cannot be empty"))
	}

	if c.Verifier != VerifierHeader && c.Verifier != VerifierStore {
		result = multierror.Append(result, fmt.Errorf("unknown verifier %q", c.Verifier))
	}

	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		result = multierror.Append(result, fmt.Errorf("base path %q must start with /", c.BasePath))
	}

	if c.RateLimit < 0 {
		result = multierror.Append(result, errors.New("rate limit cannot be negative"))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		result = multierror.Append(result, errors.New("rate burst must be at least 1"))
	}

	if c.AdminEnabled && c.AdminToken == "" {
		result = multierror.Append(result, errors.New("admin token cannot be empty when admin routes are enabled"))
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		result = multierror.Append(result, fmt.Errorf("unknown log format %q", c.LogFormat))
	}

	return result.ErrorOrNil()
}

// NewLogger builds the process logger described by the config.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

func (c *Config) StoreOptions() database.Options {
	return database.Options{
		Driver:   c.StoreDriver,
		Region:   c.StoreRegion,
		Endpoint: c.StoreEndpoint,
		DSN:      c.DatabaseDSN,
		Tables:   c.Tables,
	}
}
