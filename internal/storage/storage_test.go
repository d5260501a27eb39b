package storage

import (
	"context"
	"strings"
	"testing"
)

func quoteDouble(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }

var testTypes = map[string]string{TypeText: "TEXT", TypeInt: "BIGINT"}

type fakeRepo struct {
	execs []string
}

func (f *fakeRepo) CopyFrom(context.Context, []string, [][]any) (int64, error) { return 0, nil }
func (f *fakeRepo) Exec(_ context.Context, sql string) error {
	f.execs = append(f.execs, sql)
	return nil
}
func (f *fakeRepo) Close() {}

func init() {
	Register("fake", func(context.Context, Config) (Repository, error) {
		return &fakeRepo{}, nil
	}, func(table string, columns []Column) (string, error) {
		return BuildCreateTable("CREATE TABLE IF NOT EXISTS", table, columns, testTypes, quoteDouble)
	})
}

func TestBuildCreateTable(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateTable("CREATE TABLE", "main.users", []Column{{Name: "id", Type: TypeInt}, {Name: `we"ird`}}, testTypes, quoteDouble)
	if err != nil {
		t.Fatalf("BuildCreateTable: %v", err)
	}
	want := "CREATE TABLE \"main\".\"users\" (\n  \"id\" BIGINT NULL,\n  \"we\"\"ird\" TEXT NULL\n)"
	if got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}

	bad := [][]Column{
		nil,
		TextColumns([]string{"a", ""}),
		TextColumns([]string{"a", "a"}),
		{{Name: "a", Type: TypeBool}},
	}
	for _, cols := range bad {
		if _, err := BuildCreateTable("CREATE TABLE", "t", cols, testTypes, quoteDouble); err == nil {
			t.Errorf("columns %v: want error", cols)
		}
	}
	if _, err := BuildCreateTable("CREATE TABLE", " ", TextColumns([]string{"a"}), testTypes, quoteDouble); err == nil {
		t.Error("empty table: want error")
	}
}

func TestNewAndEnsureTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if _, err := New(ctx, Config{Kind: "nope", Table: "t"}); err == nil || !strings.Contains(err.Error(), "fake") {
		t.Fatalf("unknown kind err = %v, want list of registered kinds", err)
	}
	if _, err := New(ctx, Config{Kind: "fake"}); err == nil {
		t.Fatal("empty table: want error")
	}

	repo, err := New(ctx, Config{Kind: "fake", Table: "t"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := EnsureTable(ctx, "fake", repo, "t", TextColumns([]string{"a"})); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if f := repo.(*fakeRepo); len(f.execs) != 1 || !strings.HasPrefix(f.execs[0], "CREATE TABLE IF NOT EXISTS") {
		t.Fatalf("execs = %q", f.execs)
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Register("fake", nil, nil)
}
