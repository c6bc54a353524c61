// Package config provides configuration loading and management using koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPath is the config file consulted when none is given.
const DefaultConfigPath = "configs/quoted.yaml"

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `koanf:"server"   validate:"required"`
	Database DatabaseConfig `koanf:"database" validate:"required"`
	Log      LogConfig      `koanf:"log"      validate:"required"`
	Auth     AuthConfig     `koanf:"auth"     validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host" validate:"required"`
	Port int    `koanf:"port" validate:"required,min=1,max=65535"`
}

// DatabaseConfig contains sqlite storage settings.
type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// AuthConfig contains token service settings. Secrets are referenced by
// file path and read once at startup; they never live in the config file
// itself.
type AuthConfig struct {
	SecretFile    string        `koanf:"secret_file"     validate:"required"`
	RegSecretFile string        `koanf:"reg_secret_file" validate:"required"`
	Issuer        string        `koanf:"issuer"          validate:"required"`
	TokenTTL      time.Duration `koanf:"token_ttl"       validate:"required"`
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"server.host": "0.0.0.0",
		"server.port": 8080,

		"database.path": "db/quotes.db",

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/quoted.log",
		"log.file.max_size":    100,
		"log.file.max_backups": 3,
		"log.file.max_age":     28,
		"log.file.compress":    true,

		"auth.secret_file":     "./credentials.txt",
		"auth.reg_secret_file": "./registration.txt",
		"auth.issuer":          "quoted.localhost",
		"auth.token_ttl":       "24h",
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and environment variables with the QUOTED_ prefix, in that order of
// precedence (later wins). An empty path falls back to
// DefaultConfigPath; a missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		path = DefaultConfigPath
	}
	if err := loadFileIfExists(k, path); err != nil {
		return nil, fmt.Errorf("loading config file %q: %w", path, err)
	}

	err := k.Load(env.Provider("QUOTED_", ".", envKeyFunc), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKeys maps the environment-variable form of every known config key
// (QUOTED_ prefix stripped) back to its dotted path. A plain
// underscore-to-dot rewrite would mangle keys whose last segment
// contains an underscore: QUOTED_AUTH_SECRET_FILE must resolve to
// auth.secret_file, not auth.secret.file.
var envKeys = func() map[string]string {
	keys := make(map[string]string)
	for key := range defaults() {
		keys[strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = key
	}
	return keys
}()

// envKeyFunc translates a QUOTED_-prefixed environment variable name to
// a config key path, consulting the known key set first.
func envKeyFunc(s string) string {
	name := strings.TrimPrefix(s, "QUOTED_")
	if key, ok := envKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(strings.ToLower(name), "_", ".")
}

// loadFileIfExists loads a YAML config file if it exists.
// Returns nil if the file doesn't exist, error only for parse/read failures.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return k.Load(file.Provider(path), yaml.Parser())
}

// ReadSecret reads a secret from the given file, trimming surrounding
// whitespace. An empty secret is rejected.
func ReadSecret(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading secret file %q: %w", path, err)
	}
	secret := strings.TrimSpace(string(raw))
	if secret == "" {
		return "", fmt.Errorf("secret file %q is empty", path)
	}
	return secret, nil
}
