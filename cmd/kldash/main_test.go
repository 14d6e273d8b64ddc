package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/knowlearn/kldash/internal/config"
	"github.com/knowlearn/kldash/internal/simulation"
)

// writeTestConfig writes a config that keeps the database in memory and
// logs to stderr.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	return writeConfig(t, func(cfg *config.Config, dir string) {
		cfg.Database.Path = config.MemoryPath
	})
}

// writeFileConfig writes a config whose database lives in a temp file, so
// several commands can share it.
func writeFileConfig(t *testing.T) (cfgPath, backupDir string) {
	t.Helper()
	cfgPath = writeConfig(t, func(cfg *config.Config, dir string) {
		cfg.Database.Path = filepath.Join(dir, "kldash.db")
		backupDir = cfg.Database.BackupDir
	})
	return cfgPath, backupDir
}

func writeConfig(t *testing.T, modify func(cfg *config.Config, dir string)) string {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.BackupDir = filepath.Join(dir, "backups")
	cfg.Logging.File = ""
	cfg.Logging.Level = config.LogLevelError
	cfg.Data.People = 20
	cfg.Data.Projects = 5
	cfg.Data.Partners = 4
	modify(cfg, dir)

	path := filepath.Join(dir, "kldash.toml")
	if err := config.Save(cfg, path); err != nil {
		t.Fatalf("saving config: %v", err)
	}
	return path
}

// runCLI runs the root command against a fresh in-memory database and
// returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWith(t, writeTestConfig(t), args...)
}

func executeWith(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root, c := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))

	err := execute(context.Background(), root, c)
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "kldash version dev") {
		t.Errorf("expected version line, got %q", out)
	}
}

func TestSimulate_JSONDefaults(t *testing.T) {
	out, err := runCLI(t, "simulate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc simulation.Export
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if doc.Schema != simulation.SchemaURL {
		t.Errorf("Expected schema %s, got %s", simulation.SchemaURL, doc.Schema)
	}
	if doc.Configuration.Strategy != "Neutral" {
		t.Errorf("Expected Neutral, got %s", doc.Configuration.Strategy)
	}
	if doc.Results.Metrics.FulfillmentPercent != 100 {
		t.Errorf("Expected fulfillment 100, got %d", doc.Results.Metrics.FulfillmentPercent)
	}
	if !strings.HasPrefix(doc.SimulationID, "SIM-") {
		t.Errorf("Expected SIM- id, got %s", doc.SimulationID)
	}
}

func TestSimulate_TextOverrides(t *testing.T) {
	out, err := runCLI(t, "simulate", "--format", "text", "--strategy", "Conservative", "--available", "100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Secure_Internal_v1", "100 MM internal, 30 MM external", "87% of 150 MM", "Senior Developer (Java)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestSimulate_LimitWarning(t *testing.T) {
	out, err := runCLI(t, "simulate", "--format", "text", "--available", "50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "exceeds the 20% outsourcing limit") {
		t.Errorf("expected limit warning in output:\n%s", out)
	}
}

func TestSimulate_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad format", []string{"--format", "yaml"}, "unknown format"},
		{"bad strategy", []string{"--strategy", "Reckless"}, "unknown strategy"},
		{"zero required", []string{"--required", "0"}, "invalid simulation input"},
		{"missing project", []string{"--project", "PRJ999"}, "loading project"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, append([]string{"simulate"}, tt.args...)...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestSimulate_FromProject(t *testing.T) {
	out, err := runCLI(t, "simulate", "--project", "PRJ1", "--format", "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Simulation") || !strings.Contains(out, "Fulfillment") {
		t.Errorf("expected run summary, got:\n%s", out)
	}
}

func TestSeed(t *testing.T) {
	out, err := runCLI(t, "seed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Seeded 20 people, 5 projects, 4 partners.") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestMigrateStatus(t *testing.T) {
	out, err := runCLI(t, "migrate", "status")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"VERSION", "001", "people", "pending"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestMigrateUp(t *testing.T) {
	out, err := runCLI(t, "migrate", "up")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Applied 3 migration(s); schema at version 3.") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestMigrateDown(t *testing.T) {
	cfgPath, _ := writeFileConfig(t)

	if _, err := executeWith(t, cfgPath, "migrate", "down"); err == nil {
		t.Error("expected error rolling back an empty schema")
	}

	if _, err := executeWith(t, cfgPath, "migrate", "up"); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	out, err := executeWith(t, cfgPath, "migrate", "down")
	if err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	if !strings.Contains(out, "Rolled back migration 003; schema at version 2.") {
		t.Errorf("unexpected output %q", out)
	}

	out, err = executeWith(t, cfgPath, "migrate", "status")
	if err != nil {
		t.Fatalf("migrate status: %v", err)
	}
	for _, want := range []string{"partners", "pending", "Rows (people)", "Journal"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Rows (partners)") {
		t.Errorf("rolled back table should not be counted:\n%s", out)
	}
}

func TestSeed_ForceBacksUp(t *testing.T) {
	cfgPath, backupDir := writeFileConfig(t)

	if _, err := executeWith(t, cfgPath, "seed"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	out, err := executeWith(t, cfgPath, "seed")
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if !strings.Contains(out, "already seeded") {
		t.Errorf("expected existing data to be kept, got %q", out)
	}

	out, err = executeWith(t, cfgPath, "seed", "--force")
	if err != nil {
		t.Fatalf("seed --force: %v", err)
	}
	if !strings.Contains(out, "Backed up existing data to") {
		t.Errorf("expected backup line, got %q", out)
	}
	if !strings.Contains(out, "Seeded 20 people, 5 projects, 4 partners.") {
		t.Errorf("expected reseed, got %q", out)
	}

	backups, err := filepath.Glob(filepath.Join(backupDir, "kldash-*.db"))
	if err != nil {
		t.Fatalf("listing backups: %v", err)
	}
	if len(backups) != 1 {
		t.Errorf("expected 1 backup, got %v", backups)
	}
}

func TestExecute_ClosesLogOnError(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var logPath string
	cfgPath := writeConfig(t, func(cfg *config.Config, dir string) {
		cfg.Database.Path = config.MemoryPath
		cfg.Logging.File = filepath.Join(dir, "logs", "kldash.log")
		cfg.Logging.Level = config.LogLevelInfo
		logPath = cfg.Logging.File
	})

	root, c := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath, "simulate", "--format", "yaml"})

	if err := execute(context.Background(), root, c); err == nil {
		t.Fatal("expected error")
	}
	if c.logFile != nil {
		t.Error("expected log file to be closed after a failing command")
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "kldash starting") {
		t.Errorf("expected startup entry in log, got %q", data)
	}
}
