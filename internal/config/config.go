// Package config handles the configuration directory, file paths and
// environment settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	// AppName is the application directory name.
	AppName = "tasker"

	// TokenFile is the stored session token filename.
	TokenFile = "token.json"

	// EnvFile is the optional dotenv file read from the config directory.
	EnvFile = ".env"

	// DefaultAPIURL is used when TASKER_API_URL is not set.
	DefaultAPIURL = "http://localhost:8080/api"
)

// Env holds settings read from the process environment.
type Env struct {
	// APIURL is the base URL of the task API, including the /api prefix.
	APIURL string `env:"TASKER_API_URL" env-default:"http://localhost:8080/api"`

	// HTTPTimeout bounds each request. Zero means the HTTP client default (none).
	HTTPTimeout time.Duration `env:"TASKER_HTTP_TIMEOUT" env-default:"0s"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Env holds environment-derived settings.
	Env Env

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/tasker or $HOME/.config/tasker.
// A .env file in the directory is loaded before the environment is read;
// variables already set in the process win.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}

	if err := godotenv.Load(cfg.EnvPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := cleanenv.ReadEnv(&cfg.Env); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if strings.TrimSpace(cfg.Env.APIURL) == "" {
		cfg.Env.APIURL = DefaultAPIURL
	}
	cfg.Env.APIURL = strings.TrimRight(cfg.Env.APIURL, "/")
	if cfg.Env.HTTPTimeout < 0 {
		return nil, fmt.Errorf("config error: TASKER_HTTP_TIMEOUT must not be negative")
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// TokenPath returns the path to the stored session token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnvPath returns the path to the optional dotenv file.
func (c *Config) EnvPath() string {
	return filepath.Join(c.Dir, EnvFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}
