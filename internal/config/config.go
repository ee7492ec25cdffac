// /internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, read once at startup from the
// environment (optionally seeded from a .env file).
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required,notEmpty"`
	GuildID      string `env:"GUILD_ID,required,notEmpty"`
	ChannelID    string `env:"CHANNEL_ID,required,notEmpty"`
	LogChannelID string `env:"LOG_CHANNEL_ID"`

	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	SkipBots      bool          `env:"SWEEP_SKIP_BOTS" envDefault:"false"`

	WarningChannelID string        `env:"WARNING_CHANNEL_ID"`
	WarningDelay     time.Duration `env:"WARNING_DELAY" envDefault:"30s"`
	WarningOnly      bool          `env:"WARNING_ONLY" envDefault:"false"`

	StoragePath string `env:"STORAGE_PATH" envDefault:"datastore.json"`
	StatusAddr  string `env:"STATUS_ADDR"`
	DeveloperID string `env:"DEVELOPER_ID"`
}

// MissingError lists required variables that were absent or empty.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Names, ", ")
}

// New loads .env if present, parses the environment and validates it.
// A *MissingError is returned when any required variable is unset.
func New() (*Config, error) {
	loadDotEnv(".env")
	return Parse()
}

// Parse reads the configuration from the current environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		if names, ok := missingVars(err); ok {
			return nil, &MissingError{Names: names}
		}
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// missingVars reports the unset or empty variables behind an env parse
// error. ok is false when the error has any other cause.
func missingVars(err error) (names []string, ok bool) {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return nil, false
	}
	for _, e := range agg.Errors {
		var unset env.VarIsNotSetError
		var empty env.EmptyVarError
		switch {
		case errors.As(e, &unset):
			names = append(names, unset.Key)
		case errors.As(e, &empty):
			names = append(names, empty.Key)
		default:
			return nil, false
		}
	}
	return names, len(names) > 0
}

// Missing returns the names of required variables that are blank, in
// declaration order. Parse already rejects unset and empty ones; this also
// catches whitespace-only values.
func (c *Config) Missing() []string {
	required := []struct {
		name  string
		value string
	}{
		{"DISCORD_TOKEN", c.DiscordToken},
		{"GUILD_ID", c.GuildID},
		{"CHANNEL_ID", c.ChannelID},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	return missing
}

// Validate checks required values and sanity of the optional ones.
func (c *Config) Validate() error {
	if missing := c.Missing(); len(missing) > 0 {
		return &MissingError{Names: missing}
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %v", c.SweepInterval)
	}
	if c.WarningDelay < 0 {
		return fmt.Errorf("WARNING_DELAY must not be negative, got %v", c.WarningDelay)
	}
	if c.WarningOnly && c.WarningChannelID == "" {
		return errors.New("WARNING_ONLY requires WARNING_CHANNEL_ID")
	}
	return nil
}

// IsDeveloper reports whether a user ID matches the configured developer.
func IsDeveloper(cfg *Config, userID string) bool {
	return cfg != nil && cfg.DeveloperID != "" && cfg.DeveloperID == userID
}

func loadDotEnv(path string) {
	err := godotenv.Load(path)
	switch {
	case err == nil:
		log.Printf("[INFO] Loaded environment from %s", path)
	case errors.Is(err, fs.ErrNotExist):
		log.Println("[INFO] No .env file found, falling back to system environment variables")
	default:
		log.Printf("[WARN] Failed to load %s: %v", path, err)
	}
}
