package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"folio/internal/database/migrations"
	"folio/internal/folio"
	"folio/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the folio.Database interface using SQLite.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *Queries
	clock   folio.Clock
	path    string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
// If clock is nil, the real clock is used for operation timestamps.
func NewSQLiteDatabase(path string, clock folio.Clock) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	s := NewSQLiteDatabaseFromDB(db, clock)
	s.path = path
	return s, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB, clock folio.Clock) *SQLiteDatabase {
	if clock == nil {
		clock = folio.RealClock{}
	}
	return &SQLiteDatabase{
		db:      db,
		queries: NewQueries(db),
		clock:   clock,
	}
}

// OpenConnection opens and configures a SQLite database connection.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&_foreign_keys=on"
	} else {
		dsn += "?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database, and a single
	// writer never needs more than one connection anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Project operations

func (s *SQLiteDatabase) FindProjectByID(id model.ProjectID) (*model.Project, error) {
	p, err := s.queries.GetProjectByID(context.Background(), id)
	return notFound(p, err, "project by id")
}

func (s *SQLiteDatabase) FindProjectByName(name string) (*model.Project, error) {
	p, err := s.queries.GetProjectByName(context.Background(), name)
	return notFound(p, err, "project by name")
}

func (s *SQLiteDatabase) CreateProject(project *model.Project) error {
	if err := s.queries.InsertProject(context.Background(), project); err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) UpdateProject(project *model.Project) error {
	n, err := s.queries.UpdateProject(context.Background(), project)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("updating project %s: %w", project.ID, folio.ErrProjectNotFound)
	}
	return nil
}

func (s *SQLiteDatabase) ListProjects() ([]*model.Project, error) {
	projects, err := s.queries.ListProjects(context.Background())
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// Document operations

func (s *SQLiteDatabase) FindDocumentByID(id model.DocumentID) (*model.Document, error) {
	d, err := s.queries.GetDocumentByID(context.Background(), id)
	return notFound(d, err, "document by id")
}

func (s *SQLiteDatabase) ListDocuments(projectID model.ProjectID) ([]*model.Document, error) {
	docs, err := s.queries.ListDocumentsByProject(context.Background(), projectID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs, nil
}

func (s *SQLiteDatabase) CreateDocument(doc *model.Document) error {
	if err := s.queries.InsertDocument(context.Background(), doc); err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) UpdateDocument(doc *model.Document) error {
	n, err := s.queries.UpdateDocument(context.Background(), doc)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("updating document %s: %w", doc.ID, folio.ErrDocumentNotFound)
	}
	return nil
}

// Branch operations

func (s *SQLiteDatabase) FindBranchByID(id model.BranchID) (*model.Branch, error) {
	b, err := s.queries.GetBranchByID(context.Background(), id)
	return notFound(b, err, "branch by id")
}

func (s *SQLiteDatabase) ListBranches(projectID model.ProjectID) ([]*model.Branch, error) {
	branches, err := s.queries.ListBranchesByProject(context.Background(), projectID)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	return branches, nil
}

func (s *SQLiteDatabase) CreateBranch(branch *model.Branch) error {
	if err := s.queries.InsertBranch(context.Background(), branch); err != nil {
		return fmt.Errorf("inserting branch: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) UpdateBranchHead(id model.BranchID, head model.SnapshotID) error {
	n, err := s.queries.UpdateBranchHead(context.Background(), id, head)
	if err != nil {
		return fmt.Errorf("updating branch head: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("updating branch %s: %w", id, folio.ErrBranchNotFound)
	}
	return nil
}

// Snapshot operations

func (s *SQLiteDatabase) FindSnapshotByID(id model.SnapshotID) (*model.Snapshot, error) {
	ctx := context.Background()

	snap, err := s.queries.GetSnapshotByID(ctx, id)
	snap, err = notFound(snap, err, "snapshot by id")
	if snap == nil || err != nil {
		return nil, err
	}

	docs, err := s.queries.ListSnapshotDocuments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot documents: %w", err)
	}
	snap.Documents = docs
	return snap, nil
}

func (s *SQLiteDatabase) ListSnapshots(projectID model.ProjectID) ([]*model.Snapshot, error) {
	snapshots, err := s.queries.ListSnapshotsByProject(context.Background(), projectID)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	return snapshots, nil
}

// CommitSnapshot inserts the snapshot and its records, moves the branch head
// and bumps the project's updatedAt in a single transaction.
func (s *SQLiteDatabase) CommitSnapshot(snapshot *model.Snapshot, branchID model.BranchID, updatedAt time.Time) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	if err := qtx.InsertSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}

	for i, rec := range snapshot.Documents {
		if err := qtx.InsertSnapshotDocument(ctx, rec, i); err != nil {
			return fmt.Errorf("inserting snapshot document %s: %w", rec.DocumentID, err)
		}
	}

	n, err := qtx.UpdateBranchHead(ctx, branchID, snapshot.ID)
	if err != nil {
		return fmt.Errorf("updating branch head: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("updating branch %s: %w", branchID, folio.ErrBranchNotFound)
	}

	if err := qtx.TouchProject(ctx, snapshot.ProjectID, updatedAt); err != nil {
		return fmt.Errorf("updating project: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Operation log

func (s *SQLiteDatabase) CreateOperation(operation string, parameters string) (*model.Operation, error) {
	op, err := s.queries.InsertOperation(context.Background(), operation, parameters, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	return op, nil
}

func (s *SQLiteDatabase) FinishOperation(id int64, status string) error {
	if err := s.queries.FinishOperation(context.Background(), id, status, s.clock.Now()); err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(limit int) ([]*model.Operation, error) {
	ops, err := s.queries.ListOperations(context.Background(), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// MaxOperationID returns the highest operation id, or 0 when none exist.
func (s *SQLiteDatabase) MaxOperationID() (int64, error) {
	id, err := s.queries.GetMaxOperationID(context.Background())
	if err != nil {
		return 0, fmt.Errorf("getting max operation id: %w", err)
	}
	return id, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Migrate applies pending migrations.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements folio.Database interface
var _ folio.Database = (*SQLiteDatabase)(nil)
