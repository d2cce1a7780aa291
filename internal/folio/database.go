package folio

import (
	"time"

	"folio/internal/model"
)

// Database is the persistence context for projects, documents, branches and
// snapshots. Find* methods return (nil, nil) when no row matches.
// Inserts are visible to subsequent queries immediately.
type Database interface {
	// Project operations

	// FindProjectByID returns the project with the given id.
	FindProjectByID(id model.ProjectID) (*model.Project, error)

	// FindProjectByName returns the oldest project with an exact name match.
	FindProjectByName(name string) (*model.Project, error)

	// CreateProject inserts a new project.
	CreateProject(project *model.Project) error

	// UpdateProject writes the mutable fields of a project (name, description,
	// active branch and updatedAt).
	UpdateProject(project *model.Project) error

	// ListProjects returns all projects ordered by name.
	ListProjects() ([]*model.Project, error)

	// Document operations

	// FindDocumentByID returns the live document with the given id.
	FindDocumentByID(id model.DocumentID) (*model.Document, error)

	// ListDocuments returns the documents of a project in creation order.
	ListDocuments(projectID model.ProjectID) ([]*model.Document, error)

	// CreateDocument inserts a new live document.
	CreateDocument(doc *model.Document) error

	// UpdateDocument overwrites every field of a live document.
	UpdateDocument(doc *model.Document) error

	// Branch operations

	// FindBranchByID returns the branch with the given id.
	FindBranchByID(id model.BranchID) (*model.Branch, error)

	// ListBranches returns the branches of a project in creation order.
	ListBranches(projectID model.ProjectID) ([]*model.Branch, error)

	// CreateBranch inserts a new branch.
	CreateBranch(branch *model.Branch) error

	// UpdateBranchHead moves a branch's head pointer.
	UpdateBranchHead(id model.BranchID, head model.SnapshotID) error

	// Snapshot operations

	// FindSnapshotByID returns a snapshot with its document records loaded.
	FindSnapshotByID(id model.SnapshotID) (*model.Snapshot, error)

	// ListSnapshots returns the snapshots of a project without their records,
	// oldest first.
	ListSnapshots(projectID model.ProjectID) ([]*model.Snapshot, error)

	// CommitSnapshot atomically inserts the snapshot and its records, moves
	// the branch head to it and sets the project's updatedAt.
	CommitSnapshot(snapshot *model.Snapshot, branchID model.BranchID, updatedAt time.Time) error

	// Operation log

	// CreateOperation records the start of a mutating command.
	CreateOperation(operation string, parameters string) (*model.Operation, error)

	// FinishOperation records the outcome of a mutating command.
	FinishOperation(id int64, status string) error

	// ListOperations returns the most recent operations, newest first.
	ListOperations(limit int) ([]*model.Operation, error)

	// Close closes the database connection.
	Close() error
}
