package folio

import (
	"fmt"
	"strings"

	"folio/internal/model"
)

const (
	// WorkspaceProjectName is the project documents join when versioning is
	// first used on them without an explicit project.
	WorkspaceProjectName = "Personal Workspace"

	// DefaultBranchName is the name of the branch created for a project that
	// has none.
	DefaultBranchName = "Main"

	workspaceDescription = "Auto-created for version control"
)

// CreateProject creates a new, empty project.
func (s *Service) CreateProject(name, description string) (*model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("project name must not be empty")
	}

	now := s.clock.Now()
	project := &model.Project{
		ID:          model.ProjectID(s.idgen.New()),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.database.CreateProject(project); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created", "project", project.ID, "name", name)
	return project, nil
}

// FindOrCreateProject returns the project with the given name, creating it
// when none exists. A failed lookup is treated as "not found".
func (s *Service) FindOrCreateProject(name, description string) (*model.Project, error) {
	existing, err := s.database.FindProjectByName(name)
	if err != nil {
		s.logger.Warn("project lookup failed, creating a new one", "name", name, "error", err)
		existing = nil
	}
	if existing != nil {
		return existing, nil
	}
	return s.CreateProject(name, description)
}

// EnsureProject returns the project the document belongs to. A document with
// no project joins the shared workspace project, which is created on first
// use. The document's project reference is persisted.
func (s *Service) EnsureProject(doc *model.Document) (*model.Project, error) {
	if !doc.ProjectID.IsZero() {
		project, err := s.database.FindProjectByID(doc.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("finding document project: %w", err)
		}
		if project != nil {
			return project, nil
		}
		s.logger.Warn("document references a missing project", "document", doc.ID, "project", doc.ProjectID)
	}

	project, err := s.FindOrCreateProject(WorkspaceProjectName, workspaceDescription)
	if err != nil {
		return nil, err
	}

	doc.ProjectID = project.ID
	if err := s.database.UpdateDocument(doc); err != nil {
		return nil, fmt.Errorf("attaching document to project: %w", err)
	}

	s.logger.Debug("document attached to project", "document", doc.ID, "project", project.ID)
	return project, nil
}

// EnsureDefaultBranch returns the project's active branch. When none is
// active it adopts, in order, the first default branch, the first branch,
// or a newly created default branch, and records it as active.
func (s *Service) EnsureDefaultBranch(project *model.Project) (*model.Branch, error) {
	branches, err := s.database.ListBranches(project.ID)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}

	if !project.ActiveBranchID.IsZero() {
		for _, b := range branches {
			if b.ID == project.ActiveBranchID {
				return b, nil
			}
		}
	}

	for _, b := range branches {
		if b.IsDefault {
			return s.activate(project, b)
		}
	}

	if len(branches) > 0 {
		return s.activate(project, branches[0])
	}

	branch := &model.Branch{
		ID:        model.BranchID(s.idgen.New()),
		ProjectID: project.ID,
		Name:      DefaultBranchName,
		CreatedAt: s.clock.Now(),
		IsDefault: true,
	}
	if err := s.database.CreateBranch(branch); err != nil {
		return nil, fmt.Errorf("creating default branch: %w", err)
	}
	s.logger.Info("default branch created", "project", project.ID, "branch", branch.ID)

	return s.activate(project, branch)
}

// activate records branch as the project's active branch and returns it.
func (s *Service) activate(project *model.Project, branch *model.Branch) (*model.Branch, error) {
	project.ActiveBranchID = branch.ID
	if err := s.database.UpdateProject(project); err != nil {
		return nil, fmt.Errorf("activating branch: %w", err)
	}
	return branch, nil
}
