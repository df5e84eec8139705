package logging

import (
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"json debug", Config{Level: "debug", Format: "json"}, false},
		{"console upper", Config{Level: "WARN", Format: "CONSOLE"}, false},
		{"bad level", Config{Level: "loud"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && logger == nil {
				t.Fatal("expected logger")
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("GOEPP_LOG_LEVEL", "debug")
	t.Setenv("GOEPP_LOG_FORMAT", "json")

	cfg := FromEnv()
	if cfg.Level != "debug" || cfg.Format != "json" {
		t.Errorf("FromEnv() = %+v", cfg)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("GOEPP_LOG_LEVEL", "")
	t.Setenv("GOEPP_LOG_FORMAT", "")

	cfg := FromEnv()
	if cfg.Level != "warn" || cfg.Format != "console" {
		t.Errorf("FromEnv() = %+v", cfg)
	}
}
