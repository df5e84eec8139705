// Package logging provides structured logging configuration.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration options.
type Config struct {
	Level  string // debug|info|warn|error
	Format string // json|console
}

// New creates a new configured zap logger.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
			return nil, err
		}
	}

	format := strings.ToLower(cfg.Format)
	if format == "" {
		format = "console"
	}

	var zcfg zap.Config
	if format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.LevelKey = "level"
	zcfg.EncoderConfig.MessageKey = "msg"
	zcfg.EncoderConfig.CallerKey = "caller"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build(zap.AddCaller())
	if err != nil {
		return nil, err
	}

	return logger.With(zap.String("service", "goepp")), nil
}

// Sync flushes any buffered log entries.
func Sync(logger *zap.Logger) {
	_ = logger.Sync()
}

// FromEnv creates a Config from environment variables.
func FromEnv() Config {
	return Config{
		Level:  getenv("GOEPP_LOG_LEVEL", "warn"),
		Format: getenv("GOEPP_LOG_FORMAT", "console"),
	}
}

func getenv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// Component returns a zap field for the component name.
func Component(name string) zap.Field { return zap.String("component", name) }

// Host returns a zap field for a registry host name.
func Host(host string) zap.Field { return zap.String("host", host) }

// Port returns a zap field for the port number.
func Port(port int) zap.Field { return zap.Int("port", port) }

// Addr returns a zap field for an address.
func Addr(addr string) zap.Field { return zap.String("addr", addr) }

// Command returns a zap field for an EPP command name such as "domain:check".
func Command(name string) zap.Field { return zap.String("command", name) }

// Code returns a zap field for an EPP result code.
func Code(code int) zap.Field { return zap.Int("code", code) }

// ClTRID returns a zap field for a client transaction ID.
func ClTRID(id string) zap.Field { return zap.String("cltrid", id) }

// SvTRID returns a zap field for a server transaction ID.
func SvTRID(id string) zap.Field { return zap.String("svtrid", id) }

// User returns a zap field for the registrar login.
func User(user string) zap.Field { return zap.String("user", user) }

// State returns a zap field for a session state.
func State(state string) zap.Field { return zap.String("state", state) }

// Bytes returns a zap field for a payload size.
func Bytes(n int) zap.Field { return zap.Int("bytes", n) }

// Domain returns a zap field for a domain name.
func Domain(domain string) zap.Field { return zap.String("domain", domain) }
