// Package mssql implements storage.Repository for SQL Server using the
// driver's bulk copy (mssql.CopyIn).
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"ghtdump/internal/storage"
)

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg.DSN, cfg.Table)
	}, CreateTableSQL)
}

// Repository bulk-copies rows into one table.
type Repository struct {
	db    *sql.DB
	table string
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository validates dsn with msdsn before opening it.
func NewRepository(ctx context.Context, dsn, table string) (*Repository, error) {
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, fmt.Errorf("mssql: parse dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}
	return &Repository{db: db, table: table}, nil
}

// CopyFrom sends rows through one bulk-copy statement inside a transaction.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mssql: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(r.table, mssql.BulkOptions{}, columns...))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("mssql: prepare bulk: %w", err)
	}
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			stmt.Close()
			_ = tx.Rollback()
			return 0, fmt.Errorf("mssql: bulk row: %w", err)
		}
	}
	// A final argument-less Exec flushes the bulk batch.
	res, err := stmt.ExecContext(ctx)
	if err != nil {
		stmt.Close()
		_ = tx.Rollback()
		return 0, fmt.Errorf("mssql: bulk flush: %w", err)
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mssql: commit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return int64(len(rows)), nil
	}
	return n, nil
}

// Exec runs sql.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("mssql: exec: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (r *Repository) Close() { r.db.Close() }

// msTypes maps column types to SQL types.
var msTypes = map[string]string{
	storage.TypeText:      "NVARCHAR(MAX)",
	storage.TypeInt:       "BIGINT",
	storage.TypeBool:      "BIT",
	storage.TypeTimestamp: "DATETIME2",
}

// CreateTableSQL renders a CREATE TABLE guarded by OBJECT_ID.
// SQL Server has no CREATE TABLE IF NOT EXISTS.
func CreateTableSQL(table string, columns []storage.Column) (string, error) {
	create, err := storage.BuildCreateTable("CREATE TABLE", table, columns, msTypes, msIdent)
	if err != nil {
		return "", err
	}
	lit := strings.ReplaceAll(storage.QuoteFQN(table, msIdent), "'", "''")
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\n%s", lit, create), nil
}

// msIdent quotes an identifier with brackets.
func msIdent(id string) string { return "[" + strings.ReplaceAll(id, "]", "]]") + "]" }
