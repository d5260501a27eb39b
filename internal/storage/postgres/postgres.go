// Package postgres implements storage.Repository on a pgx v5 pool, loading
// batches through the COPY protocol.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ghtdump/internal/storage"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg.DSN, cfg.Table)
	}, CreateTableSQL)
}

// Repository COPYs rows into one table.
type Repository struct {
	pool  *pgxpool.Pool
	table pgx.Identifier
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository creates a pool for dsn and verifies it with a ping.
func NewRepository(ctx context.Context, dsn, table string) (*Repository, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repository{pool: pool, table: splitFQN(table)}, nil
}

// CopyFrom streams rows with COPY FROM STDIN.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx, r.table, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("postgres: copy into %s: %w", r.table.Sanitize(), err)
	}
	return n, nil
}

// Exec runs sql on a pooled connection.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

// Close closes the pool.
func (r *Repository) Close() { r.pool.Close() }

// pgTypes maps column types to SQL types.
var pgTypes = map[string]string{
	storage.TypeText:      "TEXT",
	storage.TypeInt:       "BIGINT",
	storage.TypeBool:      "BOOLEAN",
	storage.TypeTimestamp: "TIMESTAMP",
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS.
func CreateTableSQL(table string, columns []storage.Column) (string, error) {
	return storage.BuildCreateTable("CREATE TABLE IF NOT EXISTS", table, columns, pgTypes, pgIdent)
}

// pgIdent quotes a single identifier.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// splitFQN turns "public.users" into a pgx.Identifier{"public", "users"}.
func splitFQN(name string) pgx.Identifier {
	return pgx.Identifier(strings.Split(name, "."))
}
