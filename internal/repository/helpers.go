// Package repository provides the data access layer for people, projects
// and partners.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// inTx runs fn inside tx, or inside a transaction of its own when tx is nil.
func inTx(ctx context.Context, db *sql.DB, tx *sql.Tx, fn func(tx *sql.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}

	own, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer own.Rollback()

	if err := fn(own); err != nil {
		return err
	}
	return own.Commit()
}

// insertList writes an ordered string list into a (owner, value, position) table.
func insertList(ctx context.Context, ex execer, table, ownerCol, valueCol, ownerID string, values []string) error {
	query := fmt.Sprintf("INSERT OR IGNORE INTO %s (%s, %s, position) VALUES (?, ?, ?)", table, ownerCol, valueCol)
	for i, v := range values {
		if _, err := ex.ExecContext(ctx, query, ownerID, v, i); err != nil {
			return fmt.Errorf("inserting into %s: %w", table, err)
		}
	}
	return nil
}

// loadLists reads ordered string lists for many owners at once.
func loadLists(ctx context.Context, db *sql.DB, table, ownerCol, valueCol string, ownerIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(
		"SELECT %s, %s FROM %s WHERE %s IN (%s) ORDER BY %s, position",
		ownerCol, valueCol, table, ownerCol, placeholders(len(ownerIDs)), ownerCol,
	)
	args := make([]any, len(ownerIDs))
	for i, id := range ownerIDs {
		args[i] = id
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner, value string
		if err := rows.Scan(&owner, &value); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		result[owner] = append(result[owner], value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", table, err)
	}

	return result, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// likePattern builds a case-insensitive substring pattern for use with
// LOWER(col) LIKE ? ESCAPE '\'.
func likePattern(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conditions, " AND ")
}

// Helper functions for nullable values
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullableDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.DateOnly), Valid: true}
}

func parseDate(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s.String, err)
	}
	return t, nil
}

// naturalOrder sorts prefixed sequential IDs such as P2 before P10.
const naturalOrder = "ORDER BY length(id), id"
