package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds all configurable reflecto settings.
type Config struct {
	// APIBase overrides the host-derived backend base URL entirely.
	APIBase string `json:"api_base"`
	// Host feeds base resolution when APIBase is unset (dev vs. container).
	Host   string `json:"host"`
	UserID string `json:"user_id"`
	Avatar string `json:"avatar"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		Host:   "localhost",
		UserID: "demo",
		Avatar: "reflecto",
	}
}

// LoadGlobal reads ~/.config/reflecto/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(home, ".config", "reflecto", "config.json")
	return loadFile(path, true)
}

// LoadProject reads .reflectorc in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".reflectorc", false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()

	apply := func(c *Config) {
		if c == nil {
			return
		}
		if c.APIBase != "" {
			result.APIBase = c.APIBase
		}
		if c.Host != "" {
			result.Host = c.Host
		}
		if c.UserID != "" {
			result.UserID = c.UserID
		}
		if c.Avatar != "" {
			result.Avatar = c.Avatar
		}
	}

	apply(global)
	apply(project)
	return result
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
