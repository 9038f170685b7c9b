// Package config loads settings from defaults, an optional config file, a
// .env file and POCKETLEDGER_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/govalues/money"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Storage  StorageConfig
	Database DatabaseConfig
	HTTP     HTTPConfig
	Log      LogConfig
	Ledger   LedgerConfig
}

// StorageConfig selects the backend. Dir is used by the file backend.
type StorageConfig struct {
	Backend string
	Dir     string
}

type DatabaseConfig struct {
	URL string
	// Migrate applies the embedded migrations on startup.
	Migrate bool
}

type HTTPConfig struct {
	Addr string
}

type LogConfig struct {
	Level  string
	Format string
}

// LedgerConfig holds behaviour switches for the ledger core.
type LedgerConfig struct {
	// Currency labels report totals; no conversion happens.
	Currency       string
	AllowOverdraft bool `mapstructure:"allow_overdraft"`
}

const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Load reads configuration. A .env file in the working directory is loaded
// first when present; POCKETLEDGER_CONFIG names an explicit config file,
// otherwise ./pocketledger.{toml,yaml,json} is used if it exists.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	// default values
	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.dir", "./data")
	v.SetDefault("database.url", "")
	v.SetDefault("database.migrate", true)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("ledger.currency", "USD")
	v.SetDefault("ledger.allow_overdraft", false)

	if cfgPath := os.Getenv("POCKETLEDGER_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("pocketledger")
	}

	v.SetEnvPrefix("POCKETLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) { return Config{}, fmt.Errorf("read config: %w", err) }
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.Ledger.Currency = strings.ToUpper(strings.TrimSpace(c.Ledger.Currency))
	return c, c.Validate()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var problems []error
	switch c.Storage.Backend {
	case BackendFile:
		if strings.TrimSpace(c.Storage.Dir) == "" { problems = append(problems, errors.New("storage.dir is required for the file backend")) }
	case BackendMemory:
	case BackendPostgres:
		if strings.TrimSpace(c.Database.URL) == "" { problems = append(problems, errors.New("database.url is required for the postgres backend")) }
	default:
		problems = append(problems, fmt.Errorf("storage.backend %q is not one of file, memory, postgres", c.Storage.Backend))
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" { problems = append(problems, errors.New("http.addr is required")) }
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		problems = append(problems, fmt.Errorf("log.format %q is not json or text", c.Log.Format))
	}
	if _, err := money.ParseCurr(c.Ledger.Currency); err != nil {
		problems = append(problems, fmt.Errorf("ledger.currency %q is not an ISO 4217 code", c.Ledger.Currency))
	}
	return errors.Join(problems...)
}
