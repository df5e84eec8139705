// Package config loads goepp settings from flags, the environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/rsclarke/goepp/internal/channel"
	"github.com/rsclarke/goepp/internal/epp"
)

// EnvPrefix prefixes every environment override, e.g. GOEPP_HOST.
const EnvPrefix = "GOEPP"

var (
	ErrHostRequired     = errors.New("config: host is required")
	ErrCertRequired     = errors.New("config: client_cert and client_key are required")
	ErrUserRequired     = errors.New("config: user is required")
	ErrPasswordRequired = errors.New("config: password is required")
	ErrInvalidPort      = errors.New("config: port must be between 1 and 65535")
	ErrInvalidTimeout   = errors.New("config: timeout must be positive")
	ErrInvalidRateLimit = errors.New("config: rate_limit and rate_burst must not be negative")
	ErrConfigExists     = errors.New("config: file already exists")
)

// Config holds the settings for one registry account.
type Config struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	CertFile    string        `mapstructure:"client_cert"`
	KeyFile     string        `mapstructure:"client_key"`
	CAFile      string        `mapstructure:"ca_file"`
	ServerName  string        `mapstructure:"server_name"`
	User        string        `mapstructure:"user"`
	Password    string        `mapstructure:"password"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Language    string        `mapstructure:"language"`
	ObjectURIs  []string      `mapstructure:"object_uris"`
	Extensions  []string      `mapstructure:"extensions"`
	RateLimit   float64       `mapstructure:"rate_limit"`
	RateBurst   int           `mapstructure:"rate_burst"`
	JournalPath string        `mapstructure:"journal"`
	MetricsFile string        `mapstructure:"metrics_file"`
}

// fileConfig is the on-disk layout written by WriteTemplate.
type fileConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CertFile    string   `toml:"client_cert"`
	KeyFile     string   `toml:"client_key"`
	CAFile      string   `toml:"ca_file"`
	ServerName  string   `toml:"server_name"`
	User        string   `toml:"user"`
	Password    string   `toml:"password"`
	Timeout     string   `toml:"timeout"`
	Language    string   `toml:"language"`
	ObjectURIs  []string `toml:"object_uris"`
	Extensions  []string `toml:"extensions"`
	RateLimit   float64  `toml:"rate_limit"`
	RateBurst   int      `toml:"rate_burst"`
	JournalPath string   `toml:"journal"`
	MetricsFile string   `toml:"metrics_file"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:       channel.DefaultPort,
		Timeout:    channel.DefaultTimeout,
		Language:   "en",
		ObjectURIs: append([]string(nil), epp.DefaultObjectURIs...),
		Extensions: append([]string(nil), epp.DefaultExtensionURIs...),
		RateBurst:  1,
	}
}

// SetDefaults registers every key with v so environment overrides apply
// even when no file sets them.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("host", d.Host)
	v.SetDefault("port", d.Port)
	v.SetDefault("client_cert", d.CertFile)
	v.SetDefault("client_key", d.KeyFile)
	v.SetDefault("ca_file", d.CAFile)
	v.SetDefault("server_name", d.ServerName)
	v.SetDefault("user", d.User)
	v.SetDefault("password", d.Password)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("language", d.Language)
	v.SetDefault("object_uris", d.ObjectURIs)
	v.SetDefault("extensions", d.Extensions)
	v.SetDefault("rate_limit", d.RateLimit)
	v.SetDefault("rate_burst", d.RateBurst)
	v.SetDefault("journal", d.JournalPath)
	v.SetDefault("metrics_file", d.MetricsFile)
}

// DefaultDir returns ~/.goepp.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".goepp"), nil
}

// DefaultPath returns ~/.goepp/config.toml.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads settings into v and decodes them. An explicit path must
// exist; without one, config.toml or config.yaml in ~/.goepp is read if
// present.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		if dir, err := DefaultDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. It does not require connection settings,
// so offline commands work without them.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return ErrInvalidRateLimit
	}
	return nil
}

// RequireSession checks the settings needed to connect and log in.
func (c *Config) RequireSession() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Host) == "" {
		return ErrHostRequired
	}
	if strings.TrimSpace(c.CertFile) == "" || strings.TrimSpace(c.KeyFile) == "" {
		return ErrCertRequired
	}
	if c.User == "" {
		return ErrUserRequired
	}
	if c.Password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// Channel returns the connection settings.
func (c *Config) Channel() channel.Config {
	return channel.Config{
		Host:       c.Host,
		Port:       c.Port,
		CertFile:   c.CertFile,
		KeyFile:    c.KeyFile,
		CAFile:     c.CAFile,
		ServerName: c.ServerName,
		Timeout:    c.Timeout,
	}
}

// WriteTemplate writes the default settings as TOML to path, creating its
// directory. The file may hold a password, so it is private to the owner.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	d := Default()
	tmpl := fileConfig{
		Host:       "epp.registry.example",
		Port:       d.Port,
		CertFile:   "client.crt",
		KeyFile:    "client.key",
		Timeout:    d.Timeout.String(),
		Language:   d.Language,
		ObjectURIs: d.ObjectURIs,
		Extensions: d.Extensions,
		RateBurst:  d.RateBurst,
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(tmpl); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}
