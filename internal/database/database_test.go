package database

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newMigratedDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("creating database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}

func TestMigrate_AppliesAll(t *testing.T) {
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("creating database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	m, err := NewMigrator(db)
	if err != nil {
		t.Fatalf("creating migrator: %v", err)
	}

	result, err := m.MigrateUp(ctx)
	if err != nil {
		t.Fatalf("migrating: %v", err)
	}
	if len(result.Applied) != 3 {
		t.Errorf("expected 3 migrations applied, got %d", len(result.Applied))
	}
	if result.TargetVersion != 3 {
		t.Errorf("expected target version 3, got %d", result.TargetVersion)
	}

	// Second run is a no-op.
	again, err := m.MigrateUp(ctx)
	if err != nil {
		t.Fatalf("re-running migrations: %v", err)
	}
	if len(again.Applied) != 0 {
		t.Errorf("expected no migrations on second run, got %d", len(again.Applied))
	}

	status, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, mig := range status {
		if !mig.Applied {
			t.Errorf("migration %d not marked applied", mig.Version)
		}
	}
}

func TestMigrateDown(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	m, err := NewMigrator(db)
	if err != nil {
		t.Fatalf("creating migrator: %v", err)
	}

	result, err := m.MigrateDown(ctx)
	if err != nil {
		t.Fatalf("rolling back: %v", err)
	}
	if result.TargetVersion != 2 {
		t.Errorf("expected version 2 after rollback, got %d", result.TargetVersion)
	}

	var name string
	err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='partners'").Scan(&name)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected partners table dropped, got %v", err)
	}

	pending, err := m.PendingMigrations(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Version != 3 {
		t.Errorf("expected migration 3 pending, got %+v", pending)
	}
}

func TestParseMigration(t *testing.T) {
	content := `-- +migrate Up
CREATE TABLE a (id TEXT);
-- +migrate Down
DROP TABLE a;`

	up, down := parseMigration(content)
	if up != "CREATE TABLE a (id TEXT);" {
		t.Errorf("unexpected up SQL: %q", up)
	}
	if down != "DROP TABLE a;" {
		t.Errorf("unexpected down SQL: %q", down)
	}

	up, down = parseMigration("CREATE TABLE b (id TEXT);")
	if up != "CREATE TABLE b (id TEXT);" || down != "" {
		t.Errorf("unmarked content should be all up, got %q / %q", up, down)
	}
}

func TestSplitStatements(t *testing.T) {
	script := `CREATE TABLE t (v TEXT DEFAULT 'a;b');
INSERT INTO t VALUES ("x;y");

SELECT 1`

	got := splitStatements(script)
	want := []string{
		`CREATE TABLE t (v TEXT DEFAULT 'a;b')`,
		`INSERT INTO t VALUES ("x;y")`,
		`SELECT 1`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("statements mismatch (-want +got):\n%s", diff)
	}
}

func TestWithTransaction_Rollback(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO projects (id, name, status) VALUES ('PRJ1', 'Project Alpha 1', 'Active')`,
		); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&count); err != nil {
		t.Fatalf("counting: %v", err)
	}
	if count != 0 {
		t.Errorf("expected rollback to leave 0 rows, got %d", count)
	}
}

func TestHealthCheckAndClose(t *testing.T) {
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("creating database: %v", err)
	}
	ctx := context.Background()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("unexpected health check error: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if err := db.HealthCheck(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := db.BeginTx(ctx, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from BeginTx, got %v", err)
	}
}

func TestGetStats(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx,
		`INSERT INTO partners (id, name, contract_status) VALUES ('PTN1', 'Partner Corp 1', 'Active')`,
	); err != nil {
		t.Fatalf("inserting: %v", err)
	}

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := map[string]int64{"people": 0, "projects": 0, "partners": 1}
	if diff := cmp.Diff(want, stats.RowCounts); diff != "" {
		t.Errorf("row counts mismatch (-want +got):\n%s", diff)
	}
	if stats.PageSize == 0 {
		t.Error("expected page size to be reported")
	}
}

func TestGetStats_Unmigrated(t *testing.T) {
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("creating database: %v", err)
	}
	defer db.Close()

	stats, err := db.GetStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats.RowCounts) != 0 {
		t.Errorf("expected no row counts before migration, got %v", stats.RowCounts)
	}
}

func TestBackupAndRecover(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "kldash.db")
	backupDir := filepath.Join(dir, "backups")
	ctx := context.Background()

	db, err := Open(dbPath, backupDir)
	if err != nil {
		t.Fatalf("opening: %v", err)
	}
	if _, err := Migrate(ctx, db); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO projects (id, name, status) VALUES ('PRJ1', 'Project Alpha 1', 'Planning')`,
	); err != nil {
		t.Fatalf("inserting: %v", err)
	}

	backupPath, err := db.Backup(ctx)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if _, err := os.Stat(backupPath); err != nil {
		t.Fatalf("backup file missing: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}

	// Healthy file is left alone.
	report, err := Recover(ctx, dbPath, backupDir)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if report.Outcome != RecoveryHealthy {
		t.Errorf("expected healthy, got %s", report.Outcome)
	}

	// Damage the file and recover from the backup.
	if err := os.WriteFile(dbPath, bytes.Repeat([]byte("not a database "), 600), 0640); err != nil {
		t.Fatalf("corrupting: %v", err)
	}
	report, err = Recover(ctx, dbPath, backupDir)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if report.Outcome != RecoveryRestored {
		t.Fatalf("expected restored, got %s (%s)", report.Outcome, report.Problem)
	}
	if report.BackupUsed != backupPath {
		t.Errorf("expected backup %s, got %s", backupPath, report.BackupUsed)
	}

	restored, err := Open(dbPath, backupDir)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer restored.Close()

	var name string
	if err := restored.QueryRowContext(ctx, "SELECT name FROM projects WHERE id = 'PRJ1'").Scan(&name); err != nil {
		t.Fatalf("reading restored row: %v", err)
	}
	if name != "Project Alpha 1" {
		t.Errorf("expected restored project, got %q", name)
	}
}

func TestRecover_NoBackupResets(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "kldash.db")
	if err := os.WriteFile(dbPath, bytes.Repeat([]byte("garbage "), 1200), 0640); err != nil {
		t.Fatalf("writing: %v", err)
	}

	report, err := Recover(context.Background(), dbPath, filepath.Join(dir, "none"))
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if !report.NeedsReseed() {
		t.Errorf("expected reset outcome, got %s", report.Outcome)
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Errorf("expected damaged file moved away, stat err = %v", err)
	}
	if _, err := os.Stat(report.MovedTo); err != nil {
		t.Errorf("expected damaged file at %s: %v", report.MovedTo, err)
	}
}
