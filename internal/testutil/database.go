package testutil

import (
	"database/sql"
	"testing"

	"folio/internal/database"
	"folio/internal/folio"
)

// newTestDatabase creates a new in-memory SQLite database with schema applied.
// The database is automatically closed when the test completes.
func newTestDatabase(t *testing.T) (*database.SQLiteDatabase, *sql.DB) {
	t.Helper()

	sqlDB, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if _, err := sqlDB.Exec(database.Schema); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	db := database.NewSQLiteDatabaseFromDB(sqlDB, FixedClock())

	t.Cleanup(func() {
		db.Close()
	})

	return db, sqlDB
}

// Env bundles a Service with the stubs it was built from so tests can
// inspect collaborator calls and control time and ids.
type Env struct {
	DB        *database.SQLiteDatabase
	SQL       *sql.DB // raw handle for corrupting rows in tests
	Service   *folio.Service
	Clock     *StubClock
	IDs       *StubIDGenerator
	Notifier  *RecordingNotifier
	Paginator *StubPaginator
	Renderer  *StubRenderer
}

// NewTestEnv creates a Service over a fresh in-memory database with
// deterministic clock and ids, a one-page paginator, a succeeding renderer
// and a recording notifier.
func NewTestEnv(t *testing.T) *Env {
	t.Helper()

	db, sqlDB := newTestDatabase(t)
	env := &Env{
		DB:        db,
		SQL:       sqlDB,
		Clock:     FixedClock(),
		IDs:       NewStubIDGenerator(),
		Notifier:  NewRecordingNotifier(),
		Paginator: NewStubPaginator(1),
		Renderer:  NewStubRenderer(),
	}
	env.Service = folio.NewService(env.DB, env.Paginator, env.Renderer, env.Notifier, folio.NewNopLogger(), env.Clock, env.IDs)
	return env
}
