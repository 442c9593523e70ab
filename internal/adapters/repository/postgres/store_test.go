package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/okian/estatecamp/internal/adapters/repository"
	"github.com/okian/estatecamp/internal/adapters/repository/repositorytest"
)

// Set ESTATECAMP_TEST_DATABASE_URL to a disposable database to run these.
const testDatabaseEnv = "ESTATECAMP_TEST_DATABASE_URL"

func newTestStore(t *testing.T) repository.Store {
	t.Helper()
	url := os.Getenv(testDatabaseEnv)
	if url == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}
	ctx := context.Background()
	pool, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := Migrate(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE campaigns CASCADE`); err != nil {
		pool.Close()
		t.Fatalf("truncate: %v", err)
	}
	s := New(pool)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresStoreContract(t *testing.T) {
	if os.Getenv(testDatabaseEnv) == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}
	repositorytest.Run(t, newTestStore)
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no migrations embedded")
	}
}
