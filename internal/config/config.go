package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"shopledger/internal/log"
	"shopledger/internal/storage"
)

// Environment variables are LEDGER_<KEY>, e.g. LEDGER_SQLITE_DB_PATH.
const EnvPrefix = "LEDGER"

// Config keys, shared by the YAML file and the environment.
const (
	KeyDataBackend   = "data_backend"
	KeySQLiteDBPath  = "sqlite_db_path"
	KeyShops         = "shops"
	KeyAllShopsLabel = "all_shops_label"
	KeyStrictDates   = "strict_dates"
	KeyLogLevel      = "log_level"
	KeyLogFormat     = "log_format"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// DefaultConfigYAML is written by `ledger init`.
const DefaultConfigYAML = `# Shop ledger configuration
# Every key can be overridden with LEDGER_<KEY>, e.g. LEDGER_LOG_LEVEL=debug.

# sqlite or memory
data_backend: sqlite
sqlite_db_path: ./data/ledger.db

# One sales table per shop.
shops:
  - М1
  - М2

# Shop filter value meaning "every shop".
all_shops_label: All

# Reject unparsable dates instead of using today.
strict_dates: false

log_level: info
log_format: text
`

type Config struct {
	// Backend selection
	DataBackend  string
	SQLiteDBPath string

	// Shops
	Shops         []string
	AllShopsLabel string

	// Parsing
	StrictDates bool

	// Logging
	LogLevel  string
	LogFormat string

	// File the values were read from, empty when none was found.
	File string
}

// Load reads configuration from the environment and, when present, a YAML
// file. An explicit configFile must exist; otherwise ledger.yaml is looked
// up in the working directory and its absence is not an error.
func Load(configFile string) (*Config, error) {
	v := newViper()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ledger")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDataBackend, BackendSQLite)
	v.SetDefault(KeySQLiteDBPath, "./data/ledger.db")
	v.SetDefault(KeyShops, []string{"М1", "М2"})
	v.SetDefault(KeyAllShopsLabel, "All")
	v.SetDefault(KeyStrictDates, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, log.FormatText)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		DataBackend:   strings.TrimSpace(v.GetString(KeyDataBackend)),
		SQLiteDBPath:  strings.TrimSpace(v.GetString(KeySQLiteDBPath)),
		Shops:         splitList(v.Get(KeyShops)),
		AllShopsLabel: strings.TrimSpace(v.GetString(KeyAllShopsLabel)),
		StrictDates:   v.GetBool(KeyStrictDates),
		LogLevel:      v.GetString(KeyLogLevel),
		LogFormat:     strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
		File:          v.ConfigFileUsed(),
	}
}

// splitList accepts a YAML list or a comma separated string, as set in the
// environment.
func splitList(raw any) []string {
	var parts []string
	switch t := raw.(type) {
	case string:
		parts = strings.Split(t, ",")
	case []string:
		parts = t
	case []any:
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate data backend
	validBackends := []string{BackendMemory, BackendSQLite}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate shops: two shops must not share a sales table
	if len(c.Shops) == 0 {
		errors = append(errors, "at least one shop must be configured")
	}
	seen := make(map[string]string, len(c.Shops))
	for _, shop := range c.Shops {
		key := storage.ShopKey(shop)
		if prev, ok := seen[key]; ok {
			errors = append(errors, fmt.Sprintf("shops '%s' and '%s' map to the same table '%s'", prev, shop, storage.SalesTable(shop)))
			continue
		}
		seen[key] = shop
		if shop == c.AllShopsLabel {
			errors = append(errors, fmt.Sprintf("shop '%s' collides with the all-shops label", shop))
		}
	}
	if c.AllShopsLabel == "" {
		errors = append(errors, "all-shops label cannot be empty")
	}

	// Validate logging
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != log.FormatText && c.LogFormat != log.FormatJSON {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
