// Package storage defines the backend-agnostic contract for bulk loading
// parsed dump rows into a database, and a registry of backends. Backends
// register themselves from init; import storage/all to enable all of them.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Repository bulk-loads rows into one table.
type Repository interface {
	// CopyFrom inserts rows aligned to columns and reports how many were
	// inserted.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs a statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	Close()
}

// Config selects a backend and its destination.
type Config struct {
	Kind    string // sqlite, postgres, mssql, mysql
	DSN     string
	Table   string // optionally schema-qualified, e.g. "public.users"
	Columns []string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

// Column types shared by every backend's DDL.
const (
	TypeText      = "text"
	TypeInt       = "int"
	TypeBool      = "bool"
	TypeTimestamp = "timestamp"
)

// Column is one destination column. An empty Type means TypeText.
type Column struct {
	Name string
	Type string
}

// TextColumns returns names as text columns.
func TextColumns(names []string) []Column {
	out := make([]Column, len(names))
	for i, n := range names {
		out[i] = Column{Name: n, Type: TypeText}
	}
	return out
}

// DDLFunc renders a CREATE TABLE statement for table.
type DDLFunc func(table string, columns []Column) (string, error)

type backend struct {
	open Factory
	ddl  DDLFunc
}

var (
	mu       sync.RWMutex
	backends = map[string]backend{}
)

// Register makes a backend available under kind. It panics on duplicate
// registration, like database/sql.Register.
func Register(kind string, open Factory, ddl DDLFunc) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := backends[kind]; dup {
		panic("storage: Register called twice for " + kind)
	}
	backends[kind] = backend{open: open, ddl: ddl}
}

// Kinds lists the registered backends, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(backends))
	for k := range backends {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func lookup(kind string) (backend, error) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := backends[kind]
	if !ok {
		return backend{}, fmt.Errorf("storage: unknown kind %q (registered: %s)", kind, strings.Join(kindsLocked(), ", "))
	}
	return b, nil
}

func kindsLocked() []string {
	out := make([]string, 0, len(backends))
	for k := range backends {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Repository with the backend registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	b, err := lookup(cfg.Kind)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, fmt.Errorf("storage: table must not be empty")
	}
	return b.open(ctx, cfg)
}

// CreateTableSQL renders the backend's CREATE TABLE statement.
func CreateTableSQL(kind, table string, columns []Column) (string, error) {
	b, err := lookup(kind)
	if err != nil {
		return "", err
	}
	return b.ddl(table, columns)
}

// EnsureTable creates table on repo unless it already exists.
func EnsureTable(ctx context.Context, kind string, repo Repository, table string, columns []Column) error {
	stmt, err := CreateTableSQL(kind, table, columns)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// BuildCreateTable is the shared DDL renderer. Every column is nullable and
// typed through types (keyed by the Type constants); identifiers are quoted
// with quote, per dot-separated segment for the table. prefix is the
// statement head, e.g. "CREATE TABLE IF NOT EXISTS".
func BuildCreateTable(prefix, table string, columns []Column, types map[string]string, quote func(string) string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("ddl: table must not be empty")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}
	seen := make(map[string]bool, len(columns))
	defs := make([]string, len(columns))
	for i, c := range columns {
		if strings.TrimSpace(c.Name) == "" {
			return "", fmt.Errorf("ddl: column %d has an empty name", i+1)
		}
		if seen[c.Name] {
			return "", fmt.Errorf("ddl: duplicate column %q", c.Name)
		}
		seen[c.Name] = true
		typ := c.Type
		if typ == "" {
			typ = TypeText
		}
		sqlType, ok := types[typ]
		if !ok {
			return "", fmt.Errorf("ddl: column %q has unsupported type %q", c.Name, c.Type)
		}
		defs[i] = "  " + quote(c.Name) + " " + sqlType + " NULL"
	}
	return fmt.Sprintf("%s %s (\n%s\n)", prefix, QuoteFQN(table, quote), strings.Join(defs, ",\n")), nil
}

// QuoteFQN quotes each dot-separated segment of name.
func QuoteFQN(name string, quote func(string) string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = quote(p)
	}
	return strings.Join(parts, ".")
}

// QuoteColumns quotes every column name.
func QuoteColumns(cols []string, quote func(string) string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quote(c)
	}
	return out
}
