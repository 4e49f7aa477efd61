package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"gitea.jw6.us/james/calplanner/internal/migrations"
)

func TestApplyMigrationsEmptyDatabase(t *testing.T) {
	tx1 := &mockTx{execs: []execExpectation{
		{expect: regexp.MustCompile("-- Initial schema for calplanner")},
		{expect: regexp.MustCompile("INSERT INTO schema_migrations"), args: []any{"001_init.sql"}},
	}}

	pool := &mockPool{
		t: t,
		execs: []execExpectation{
			{expect: regexp.MustCompile("CREATE TABLE IF NOT EXISTS schema_migrations")},
		},
		queries: []queryExpectation{
			{expect: regexp.MustCompile("schema_migrations WHERE version=\\$1"), args: []any{"001_init.sql"}, value: false},
		},
		txs: []*mockTx{tx1},
	}

	if err := ApplyMigrations(context.Background(), pool); err != nil {
		t.Fatalf("expected migrations to apply, got error: %v", err)
	}
	pool.assertDone()
	tx1.assertDone(t)
	if !tx1.committed {
		t.Fatal("expected migration transaction to commit")
	}
}

func TestApplyMigrationsAllAlreadyApplied(t *testing.T) {
	pool := &mockPool{
		t: t,
		execs: []execExpectation{
			{expect: regexp.MustCompile("CREATE TABLE IF NOT EXISTS schema_migrations")},
		},
		queries: []queryExpectation{
			{expect: regexp.MustCompile("schema_migrations WHERE version=\\$1"), args: []any{"001_init.sql"}, value: true},
		},
	}

	if err := ApplyMigrations(context.Background(), pool); err != nil {
		t.Fatalf("expected no-op migrations, got error: %v", err)
	}
	pool.assertDone()
}

func TestApplyMigrationsRollsBackOnFailure(t *testing.T) {
	tx1 := &mockTx{execs: []execExpectation{
		{expect: regexp.MustCompile("-- Initial schema for calplanner"), err: errors.New("syntax error")},
	}}

	pool := &mockPool{
		t: t,
		execs: []execExpectation{
			{expect: regexp.MustCompile("CREATE TABLE IF NOT EXISTS schema_migrations")},
		},
		queries: []queryExpectation{
			{expect: regexp.MustCompile("schema_migrations WHERE version=\\$1"), args: []any{"001_init.sql"}, value: false},
		},
		txs: []*mockTx{tx1},
	}

	err := ApplyMigrations(context.Background(), pool)
	if err == nil || !strings.Contains(err.Error(), "apply migration 001_init.sql") {
		t.Fatalf("expected apply error, got %v", err)
	}
	if !tx1.rolled || tx1.committed {
		t.Fatalf("expected rollback without commit (rolled=%v committed=%v)", tx1.rolled, tx1.committed)
	}
}

func TestListMigrationFilesSorted(t *testing.T) {
	names, err := listMigrationFiles(migrations.Files)
	if err != nil {
		t.Fatalf("listMigrationFiles() error: %v", err)
	}
	if len(names) == 0 || names[0] != "001_init.sql" {
		t.Fatalf("unexpected migration list: %v", names)
	}
}
