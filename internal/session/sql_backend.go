package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/aidtrace/internal/persistence"
)

// SQLBackend stores session values in the session_kv table.
type SQLBackend struct {
	db      *sql.DB
	dialect persistence.Dialect
}

// NewSQLBackend returns a backend over db. The schema comes from persistence.RunMigrations.
func NewSQLBackend(db *sql.DB, dialect persistence.Dialect) *SQLBackend {
	return &SQLBackend{db: db, dialect: dialect}
}

func (b *SQLBackend) Get(ctx context.Context, key string) (string, error) {
	query := "SELECT value FROM session_kv WHERE key = " + b.dialect.Placeholder(1)
	var value string
	if err := b.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get session key %s: %w", key, err)
	}
	return value, nil
}

func (b *SQLBackend) Set(ctx context.Context, key, value string) error {
	query := "INSERT INTO session_kv (key, value, updated_at) VALUES (" +
		b.dialect.Placeholder(1) + ", " + b.dialect.Placeholder(2) + ", " + b.dialect.Placeholder(3) + ")" +
		b.dialect.Upsert("key", "value", "updated_at")
	if _, err := b.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("set session key %s: %w", key, err)
	}
	return nil
}

func (b *SQLBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	marks := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		marks[i] = b.dialect.Placeholder(i + 1)
		args[i] = k
	}
	query := "DELETE FROM session_kv WHERE key IN (" + strings.Join(marks, ", ") + ")"
	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete session keys: %w", err)
	}
	return nil
}
