package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// RecoveryOutcome indicates what Recover did to the database file.
type RecoveryOutcome int

const (
	// RecoveryHealthy means the file was missing or passed the integrity check.
	RecoveryHealthy RecoveryOutcome = iota
	// RecoveryRestored means the newest backup replaced a damaged file.
	RecoveryRestored
	// RecoveryReset means the damaged file was moved aside and the
	// fixtures must be regenerated.
	RecoveryReset
)

func (r RecoveryOutcome) String() string {
	switch r {
	case RecoveryHealthy:
		return "healthy"
	case RecoveryRestored:
		return "restored_from_backup"
	case RecoveryReset:
		return "reset"
	default:
		return "unknown"
	}
}

// RecoveryReport describes a Recover run.
type RecoveryReport struct {
	Outcome      RecoveryOutcome
	DatabasePath string
	BackupUsed   string
	MovedTo      string
	Problem      string
}

// NeedsReseed reports whether the caller must regenerate fixture data.
func (r *RecoveryReport) NeedsReseed() bool {
	return r.Outcome == RecoveryReset
}

// Recover checks a database file before it is opened. A damaged file is
// replaced by the newest backup when one exists, otherwise it is moved
// aside so a fresh database can be created and reseeded.
func Recover(ctx context.Context, dbPath, backupDir string) (*RecoveryReport, error) {
	report := &RecoveryReport{DatabasePath: dbPath, Outcome: RecoveryHealthy}

	if dbPath == ":memory:" {
		return report, nil
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return report, nil
	}

	problem := integrityProblem(ctx, dbPath)
	if problem == "" {
		return report, nil
	}
	report.Problem = problem
	slog.Warn("database failed integrity check", "path", dbPath, "problem", problem)

	stamp := time.Now().Format("20060102-150405")
	corruptPath := fmt.Sprintf("%s.corrupt-%s", dbPath, stamp)
	if err := os.Rename(dbPath, corruptPath); err != nil {
		return report, fmt.Errorf("moving damaged database aside: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		os.Remove(dbPath + suffix)
	}
	report.MovedTo = corruptPath

	backup, err := latestBackup(backupDir)
	if err != nil {
		slog.Warn("no usable backup", "dir", backupDir, "error", err)
	}
	if backup != "" && integrityProblem(ctx, backup) == "" {
		if err := copyFile(backup, dbPath); err != nil {
			return report, fmt.Errorf("restoring backup %s: %w", backup, err)
		}
		report.Outcome = RecoveryRestored
		report.BackupUsed = backup
		slog.Info("database restored from backup", "backup", backup)
		return report, nil
	}

	report.Outcome = RecoveryReset
	slog.Info("damaged database moved aside; fixtures will be regenerated", "moved_to", corruptPath)
	return report, nil
}

// integrityProblem returns an empty string for a healthy file.
func integrityProblem(ctx context.Context, dbPath string) string {
	db, err := sql.Open("sqlite", "file:"+dbPath)
	if err != nil {
		return err.Error()
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "PRAGMA integrity_check")
	if err != nil {
		return err.Error()
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return err.Error()
		}
		results = append(results, line)
	}
	if err := rows.Err(); err != nil {
		return err.Error()
	}

	if len(results) == 1 && results[0] == "ok" {
		return ""
	}
	return strings.Join(results, "; ")
}

// latestBackup returns the newest kldash-*.db file in dir.
func latestBackup(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "kldash-*.db"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}

	// Backup names embed a sortable timestamp.
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
