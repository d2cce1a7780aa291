package folio

import (
	"fmt"
	"strings"

	"folio/internal/model"
)

// CreateBranch creates a non-default branch headed at the given snapshot and
// makes it the project's active branch. No snapshot is copied or moved.
func (s *Service) CreateBranch(from *model.Snapshot, name string, project *model.Project) (*model.Branch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidBranchName
	}
	if from.ProjectID != project.ID {
		return nil, ErrSnapshotProjectMismatch
	}

	branch := &model.Branch{
		ID:             model.BranchID(s.idgen.New()),
		ProjectID:      project.ID,
		Name:           name,
		CreatedAt:      s.clock.Now(),
		IsDefault:      false,
		HeadSnapshotID: from.ID,
	}
	if err := s.database.CreateBranch(branch); err != nil {
		return nil, fmt.Errorf("creating branch: %w", err)
	}

	if _, err := s.activate(project, branch); err != nil {
		return nil, err
	}

	s.logger.Info("branch created", "project", project.ID, "branch", name, "head", from.ID)
	return branch, nil
}

// CheckoutBranch makes branch the project's active branch and restores its
// head snapshot into the live documents. It returns the restored snapshot,
// or nil when the branch has no head and there is nothing to restore.
func (s *Service) CheckoutBranch(branch *model.Branch, project *model.Project) (*model.Snapshot, error) {
	if branch.ProjectID != project.ID {
		return nil, ErrBranchProjectMismatch
	}

	if _, err := s.activate(project, branch); err != nil {
		return nil, err
	}

	if branch.HeadSnapshotID.IsZero() {
		s.logger.Info("branch checked out without a head", "project", project.ID, "branch", branch.Name)
		return nil, nil
	}

	head, err := s.database.FindSnapshotByID(branch.HeadSnapshotID)
	if err != nil {
		return nil, fmt.Errorf("finding head snapshot: %w", err)
	}
	if head == nil || head.ProjectID != project.ID {
		s.logger.Warn("branch head not found in project", "branch", branch.ID, "head", branch.HeadSnapshotID)
		return nil, nil
	}

	if _, err := s.Restore(head, project); err != nil {
		return nil, fmt.Errorf("restoring branch head: %w", err)
	}

	s.logger.Info("branch checked out", "project", project.ID, "branch", branch.Name, "head", head.ID)
	return head, nil
}

// MoveBranchHead points branch at the given snapshot of the same project.
func (s *Service) MoveBranchHead(branch *model.Branch, snapshot *model.Snapshot) error {
	if snapshot.ProjectID != branch.ProjectID {
		return ErrSnapshotProjectMismatch
	}
	if err := s.database.UpdateBranchHead(branch.ID, snapshot.ID); err != nil {
		return fmt.Errorf("moving branch head: %w", err)
	}
	branch.HeadSnapshotID = snapshot.ID
	s.logger.Debug("branch head moved", "branch", branch.ID, "head", snapshot.ID)
	return nil
}
