package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestReadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := ReadConfig(path)
	if !errors.Is(err, ErrConfigCreated) {
		t.Fatalf("expected ErrConfigCreated, got %v", err)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("expected config file to be written: %v", statErr)
	}
	if cfg.Server.Port != 12345 || cfg.Server.FailureLimit != 3 {
		t.Errorf("unexpected defaults %+v", cfg.Server)
	}
	if !slices.Equal(cfg.Board.ShipSizes, []int{4, 3, 3, 2, 2, 2, 1, 1, 1, 1}) {
		t.Errorf("unexpected default fleet %v", cfg.Board.ShipSizes)
	}

	again, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if again.Server.Port != cfg.Server.Port {
		t.Errorf("expected written defaults to round trip, got port %d", again.Server.Port)
	}
}

func TestReadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"server":{"port":4000,"failure_limit":5},"board":{"ship_sizes":[3,2]},"debug_mode":true}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BATTLESHIPS_PORT", "4100")
	t.Setenv("BATTLESHIPS_SHIP_SIZES", "2,2,1")

	cfg, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.Server.Port != 4100 {
		t.Errorf("expected env to override port, got %d", cfg.Server.Port)
	}
	if cfg.Server.FailureLimit != 5 {
		t.Errorf("expected failure limit from file, got %d", cfg.Server.FailureLimit)
	}
	if cfg.Server.OutboxSize != 64 {
		t.Errorf("expected missing keys to keep defaults, got outbox %d", cfg.Server.OutboxSize)
	}
	if !slices.Equal(cfg.Board.ShipSizes, []int{2, 2, 1}) {
		t.Errorf("expected env fleet, got %v", cfg.Board.ShipSizes)
	}
	if !cfg.DebugMode {
		t.Error("expected debug mode from file")
	}

	got, err := GetConfig()
	if err != nil || got.Server.Port != 4100 {
		t.Errorf("GetConfig should return the loaded config, got %d err=%v", got.Server.Port, err)
	}
}

func TestReadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{"server":`},
		{"bad failure limit", `{"server":{"failure_limit":0}}`},
		{"too many columns", `{"board":{"cols":27}}`},
		{"empty fleet", `{"board":{"ship_sizes":[]}}`},
		{"negative ship", `{"board":{"ship_sizes":[2,-1]}}`},
		{"unknown backend", `{"archive":{"backend":"redis"}}`},
	}
	for _, tt := range tests {
		path := filepath.Join(dir, tt.name+".json")
		if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadConfig(path); err == nil || errors.Is(err, ErrConfigCreated) {
			t.Errorf("%s: expected an error, got %v", tt.name, err)
		}
	}
}

func TestFlagsOverrideOnlyWhenSet(t *testing.T) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	f, err := ParseFlags(fs, []string{"-port", "9001", "-config", "other.json"})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if f.Path != "other.json" {
		t.Errorf("expected config path override, got %q", f.Path)
	}

	cfg := Default()
	cfg.Server.AdminPort = 7000
	f.Apply(&cfg)
	if cfg.Server.Port != 9001 {
		t.Errorf("expected port 9001, got %d", cfg.Server.Port)
	}
	if cfg.Server.AdminPort != 7000 {
		t.Errorf("unset flag must not override admin port, got %d", cfg.Server.AdminPort)
	}
	if cfg.DebugMode {
		t.Error("unset flag must not override debug mode")
	}
}
