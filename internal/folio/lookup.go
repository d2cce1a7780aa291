package folio

import (
	"fmt"
	"sort"
	"strings"

	"folio/internal/model"
)

// Project returns the project with the given name.
func (s *Service) Project(name string) (*model.Project, error) {
	project, err := s.database.FindProjectByName(name)
	if err != nil {
		return nil, fmt.Errorf("finding project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}
	return project, nil
}

// ProjectByID returns the project with the given id.
func (s *Service) ProjectByID(id model.ProjectID) (*model.Project, error) {
	project, err := s.database.FindProjectByID(id)
	if err != nil {
		return nil, fmt.Errorf("finding project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return project, nil
}

// Projects returns every project ordered by name.
func (s *Service) Projects() ([]*model.Project, error) {
	projects, err := s.database.ListProjects()
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// Document returns the live document with the given id.
func (s *Service) Document(id model.DocumentID) (*model.Document, error) {
	doc, err := s.database.FindDocumentByID(id)
	if err != nil {
		return nil, fmt.Errorf("finding document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return doc, nil
}

// Documents returns the live documents of a project.
func (s *Service) Documents(project *model.Project) ([]*model.Document, error) {
	docs, err := s.database.ListDocuments(project.ID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs, nil
}

// Snapshot returns the snapshot with the given id, records included.
func (s *Service) Snapshot(id model.SnapshotID) (*model.Snapshot, error) {
	snapshot, err := s.database.FindSnapshotByID(id)
	if err != nil {
		return nil, fmt.Errorf("finding snapshot: %w", err)
	}
	if snapshot == nil {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return snapshot, nil
}

// SnapshotIndex returns every snapshot of a project keyed by id, without
// records. It is the lookup table history traversal resolves parent ids in.
func (s *Service) SnapshotIndex(project *model.Project) (map[model.SnapshotID]*model.Snapshot, error) {
	snapshots, err := s.database.ListSnapshots(project.ID)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	index := make(map[model.SnapshotID]*model.Snapshot, len(snapshots))
	for _, snap := range snapshots {
		index[snap.ID] = snap
	}
	return index, nil
}

// Branches returns the branches of a project ordered by name, ignoring case.
func (s *Service) Branches(project *model.Project) ([]*model.Branch, error) {
	branches, err := s.database.ListBranches(project.ID)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	sort.SliceStable(branches, func(i, j int) bool {
		return strings.ToLower(branches[i].Name) < strings.ToLower(branches[j].Name)
	})
	return branches, nil
}

// Branch returns the project's branch with the given name.
func (s *Service) Branch(project *model.Project, name string) (*model.Branch, error) {
	branches, err := s.database.ListBranches(project.ID)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	for _, b := range branches {
		if b.Name == name {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrBranchNotFound, name)
}

// Operations returns the most recent recorded operations, newest first.
func (s *Service) Operations(limit int) ([]*model.Operation, error) {
	ops, err := s.database.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}
