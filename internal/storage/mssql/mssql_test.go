package mssql

import (
	"context"
	"strings"
	"testing"

	"ghtdump/internal/storage"
)

func TestMsIdent(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"users":  "[users]",
		"we]ird": "[we]]ird]",
		"a b":    "[a b]",
	} {
		if got := msIdent(in); got != want {
			t.Errorf("msIdent(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := CreateTableSQL("dbo.users", []storage.Column{{Name: "id", Type: storage.TypeBool}, {Name: "login"}})
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	if !strings.HasPrefix(got, "IF OBJECT_ID(N'[dbo].[users]', N'U') IS NULL\nCREATE TABLE [dbo].[users] (") {
		t.Fatalf("unexpected head:\n%s", got)
	}
	if !strings.Contains(got, "[id] BIT NULL") || !strings.Contains(got, "[login] NVARCHAR(MAX) NULL") {
		t.Fatalf("missing column def:\n%s", got)
	}
}

func TestNewRepository_BadDSN(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository(context.Background(), "sqlserver://%zz", "t"); err == nil {
		t.Fatal("want dsn error")
	}
}
