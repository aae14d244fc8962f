package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.applyEnv(lookupFrom(map[string]string{
		"PORT":          "4000",
		"LOG_LEVEL":     "debug",
		"MAP_SIZE":      "6000",
		"AI_TICK_HZ":    "20",
		"POWERUP_FLOOR": "10",
		"ADMIN_EMAILS":  " a@x.io, ,b@x.io ",
		"ADMIN_SECRET":  "s",
	}))
	if err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if cfg.Addr != ":4000" || cfg.LogLevel != "debug" || cfg.MapSize != 6000 || cfg.AITickHz != 20 || cfg.PowerupFloor != 10 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.AdminEmails) != 2 || cfg.AdminEmails[1] != "b@x.io" || cfg.AdminSecret != "s" {
		t.Fatalf("admin = %v %q", cfg.AdminEmails, cfg.AdminSecret)
	}
}

func TestApplyEnvCollectsErrors(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.applyEnv(lookupFrom(map[string]string{
		"MAP_SIZE":   "huge",
		"AI_TICK_HZ": "fast",
	}))
	if n := len(multierr.Errors(err)); n != 2 {
		t.Fatalf("got %d errors (%v), want 2", n, err)
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg := DefaultConfig()
	cfg.AITickHz = 60
	cfg.OmegaChance = 2
	cfg.PowerupFloor = -1
	err := cfg.Validate()
	if n := len(multierr.Errors(err)); n != 3 {
		t.Fatalf("got %d errors (%v), want 3", n, err)
	}
	if !strings.Contains(err.Error(), "ai tick rate") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadConfigReadsDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("POWERUP_FLOOR=7\nSKYFIGHT_TEST_ONLY=1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("POWERUP_FLOOR")
		os.Unsetenv("SKYFIGHT_TEST_ONLY")
	})
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PowerupFloor != 7 {
		t.Fatalf("floor = %d", cfg.PowerupFloor)
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file: %v", err)
	}
}
