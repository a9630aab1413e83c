// Package config loads bpctl and bp-tui settings from a YAML file, with
// BP_* variables from the environment or a .env file layered on top.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultVIPPrice is the VIP unlock cost in diamonds.
	DefaultVIPPrice = 1250
	// DefaultLocale controls number grouping in rendered output.
	DefaultLocale = "uk-UA"

	defaultSyncInterval  = 3 * time.Second
	defaultWatchInterval = time.Second

	// StoreFile is the profile file name inside DataDir.
	StoreFile = "profile.json"
)

// Environment overrides.
const (
	EnvDataDir = "BP_DATA_DIR"
	EnvLocale  = "BP_LOCALE"
	EnvCatalog = "BP_CATALOG"
)

var envKeys = []string{EnvDataDir, EnvLocale, EnvCatalog}

type Config struct {
	DataDir       string        `yaml:"data_dir"`
	Catalog       string        `yaml:"catalog"` // YAML or HTML path; empty uses the built-in tiers
	Locale        string        `yaml:"locale"`
	VIPPrice      int           `yaml:"vip_price"`
	SyncInterval  time.Duration `yaml:"sync_interval"`
	WatchInterval time.Duration `yaml:"watch_interval"`
}

func defaultConfig() *Config {
	return &Config{
		DataDir:       defaultDataDir(),
		Locale:        DefaultLocale,
		VIPPrice:      DefaultVIPPrice,
		SyncInterval:  defaultSyncInterval,
		WatchInterval: defaultWatchInterval,
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "cardastika")
	}
	return ".cardastika"
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.fill()
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return defaultConfig(), nil
	}
	return cfg, err
}

// fill restores defaults for values the file zeroed out.
func (c *Config) fill() {
	def := defaultConfig()
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.Locale == "" {
		c.Locale = def.Locale
	}
	if c.VIPPrice <= 0 {
		c.VIPPrice = def.VIPPrice
	}
	if c.SyncInterval <= 0 {
		c.SyncInterval = def.SyncInterval
	}
	if c.WatchInterval <= 0 {
		c.WatchInterval = def.WatchInterval
	}
}

// Environ collects the BP_* overrides. Values already set in the process
// environment win over those in the dotenv file; a missing file is fine.
func Environ(dotenv string) map[string]string {
	env, err := godotenv.Read(dotenv)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("[config] ignoring %s: %v", dotenv, err)
		}
		env = make(map[string]string)
	}
	for _, k := range envKeys {
		if v, ok := os.LookupEnv(k); ok {
			env[k] = v
		}
	}
	return env
}

// ApplyEnv overrides fields from env. Unknown and empty entries are ignored.
func (c *Config) ApplyEnv(env map[string]string) {
	if v := env[EnvDataDir]; v != "" {
		c.DataDir = v
	}
	if v := env[EnvLocale]; v != "" {
		c.Locale = v
	}
	if v := env[EnvCatalog]; v != "" {
		c.Catalog = v
	}
}

// StorePath is the key/value profile file.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, StoreFile)
}
