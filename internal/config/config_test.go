package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/knowlearn/kldash/internal/simulation"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	in, err := cfg.Simulation.Input()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(simulation.Defaults(), in); diff != "" {
		t.Errorf("simulation defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Company.Name = ""
	cfg.Simulation.RequiredMM = 0
	cfg.Display.ColorScheme = "neon"
	cfg.Server.ReadTimeout = "soon"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	msg := err.Error()
	for _, want := range []string{"company", "simulation", "display", "server"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to mention %q, got: %s", want, msg)
		}
	}
	if !errors.Is(err, simulation.ErrInvalidInput) {
		t.Error("expected joined error to wrap ErrInvalidInput")
	}
}

func TestSimulationConfig_UnknownStrategy(t *testing.T) {
	s := Default().Simulation
	s.Strategy = "Reckless"

	if err := s.Validate(); !errors.Is(err, simulation.ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestServerConfig_Timeouts(t *testing.T) {
	s := ServerConfig{Addr: ":9000", ReadTimeout: "2s", WriteTimeout: "750ms"}
	read, write, err := s.Timeouts()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if read.Seconds() != 2 {
		t.Errorf("expected 2s read timeout, got %v", read)
	}
	if write.Milliseconds() != 750 {
		t.Errorf("expected 750ms write timeout, got %v", write)
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")

	content := `
[company]
name = "ACME"

[simulation]
required_mm = 200
strategy = "Aggressive"

[display]
page_size = 10
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, loadedFrom, err := Load(path, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loadedFrom != path {
		t.Errorf("expected path %s, got %s", path, loadedFrom)
	}
	if cfg.Company.Name != "ACME" {
		t.Errorf("expected company ACME, got %s", cfg.Company.Name)
	}
	if cfg.Simulation.RequiredMM != 200 {
		t.Errorf("expected required 200, got %v", cfg.Simulation.RequiredMM)
	}
	if cfg.Simulation.UnitCostInternal != 800 {
		t.Errorf("expected default internal cost 800 to survive, got %v", cfg.Simulation.UnitCostInternal)
	}
	if cfg.Display.PageSize != 10 {
		t.Errorf("expected page size 10, got %d", cfg.Display.PageSize)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("[simulation]\nrequired_mm = -1\n"), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	_, _, err := Load(path, false)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected *LoadError, got %v", err)
	}
	if loadErr.Path != path {
		t.Errorf("expected path %s, got %s", path, loadErr.Path)
	}
}

func TestLoad_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Chdir(t.TempDir())

	cfg, path, err := Load("", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(dir, AppDirName, DefaultConfigFileName)
	if path != want {
		t.Errorf("expected default written to %s, got %s", want, path)
	}
	if cfg.Company.Name != "KNOWLEARN" {
		t.Errorf("expected default company, got %s", cfg.Company.Name)
	}

	// Round trip through the written file.
	reloaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("reloading written default: %v", err)
	}
	if diff := cmp.Diff(cfg, reloaded); diff != "" {
		t.Errorf("reloaded config mismatch (-want +got):\n%s", diff)
	}
}

func TestEnsureDataDir(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	cfg := Default()
	path, err := EnsureDataDir(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(dataHome, AppDirName, "kldash.db"); path != want {
		t.Errorf("expected %s, got %s", want, path)
	}

	cfg.Database.Path = MemoryPath
	path, err = EnsureDataDir(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != MemoryPath {
		t.Errorf("expected %s, got %s", MemoryPath, path)
	}
}
