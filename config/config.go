package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the bot needs to start.
type Config struct {
	Token           string         `yaml:"token"`
	Prefix          string         `yaml:"prefix"`
	CollectibleName string         `yaml:"collectible_name"`
	OwnerID         string         `yaml:"owner_id"`
	CoOwners        []string       `yaml:"co_owners"`
	LogChannelID    string         `yaml:"log_channel_id"`
	LogLevel        string         `yaml:"log_level"`
	MetricsAddress  string         `yaml:"metrics_address"`
	Database        DatabaseConfig `yaml:"database"`
	Store           StoreConfig    `yaml:"store"`
	Assets          AssetsConfig   `yaml:"assets"`
	Spawn           SpawnConfig    `yaml:"spawn"`
}

// DatabaseConfig selects the persistence backend. If ConnectionString is empty
// the JSON file at JSONPath is used instead of Postgres.
type DatabaseConfig struct {
	ConnectionString string `yaml:"connection_string"`
	JSONPath         string `yaml:"json_path"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

// AssetsConfig points at the artwork referenced by collectibles and at the
// card templates and fonts.
type AssetsConfig struct {
	Root    string `yaml:"root"`
	CardDir string `yaml:"card_dir"`
}

type SpawnConfig struct {
	ClaimTimeout time.Duration `yaml:"claim_timeout"`
	Cooldown     time.Duration `yaml:"cooldown"`
	Threshold    int           `yaml:"threshold"`
	// Channels maps a guild ID to the channel automatic spawns go to.
	Channels map[string]string `yaml:"channels"`
}

var ErrMissingToken = errors.New("discord token is not set")

// Load reads the YAML config at path. A .env file next to the working
// directory is loaded first, and environment variables override the file.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	return cfg, nil
}

// Default returns a config with every optional field set.
func Default() *Config {
	return &Config{
		Prefix:          "d.",
		CollectibleName: "countryball",
		Database:        DatabaseConfig{JSONPath: "./data.json"},
		Store:           StoreConfig{Path: "./data"},
		Assets:          AssetsConfig{Root: ".", CardDir: "./assets/card"},
		Spawn: SpawnConfig{
			ClaimTimeout: 5 * time.Minute,
			Cooldown:     10 * time.Minute,
			Threshold:    25,
			Channels:     map[string]string{},
		},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.ConnectionString = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		c.MetricsAddress = v
	}
	if v := os.Getenv("OWNER_ID"); v != "" {
		c.OwnerID = v
	}
	if v := os.Getenv("CO_OWNERS"); v != "" {
		c.CoOwners = strings.Split(v, ",")
	}
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.Prefix == "" {
		c.Prefix = d.Prefix
	}
	if c.CollectibleName == "" {
		c.CollectibleName = d.CollectibleName
	}
	if c.Store.Path == "" {
		c.Store.Path = d.Store.Path
	}
	if c.Spawn.ClaimTimeout <= 0 {
		c.Spawn.ClaimTimeout = d.Spawn.ClaimTimeout
	}
	if c.Spawn.Channels == nil {
		c.Spawn.Channels = map[string]string{}
	}
	for i, id := range c.CoOwners {
		c.CoOwners[i] = strings.TrimSpace(id)
	}
}

// Validate reports settings that make the bot unable to run.
func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if c.OwnerID == "" && len(c.CoOwners) == 0 {
		return errors.New("no owner or co-owner configured")
	}
	return nil
}

// IsOwner reports whether id is the owner or a co-owner.
func (c *Config) IsOwner(id string) bool {
	if id == "" {
		return false
	}
	if id == c.OwnerID {
		return true
	}
	for _, co := range c.CoOwners {
		if co == id {
			return true
		}
	}
	return false
}
