package history

import (
	"fmt"

	"folio/internal/folio"
	"folio/internal/model"
)

// Orchestrator holds the history view of one project: its branches, the
// active branch, the active branch's linear history and the selected
// snapshot. It is not safe for concurrent use.
type Orchestrator struct {
	service *folio.Service
	logger  folio.Logger

	branches     []*model.Branch
	activeBranch *model.Branch
	snapshots    []*model.Snapshot
	selected     *model.Snapshot
}

// NewOrchestrator creates an empty Orchestrator. Call Load before reading it.
func NewOrchestrator(service *folio.Service, logger folio.Logger) *Orchestrator {
	if logger == nil {
		logger = folio.NewNopLogger()
	}
	return &Orchestrator{service: service, logger: logger}
}

// Branches returns the project's branches ordered by name, ignoring case.
func (o *Orchestrator) Branches() []*model.Branch { return o.branches }

// ActiveBranch returns the branch whose history is shown.
func (o *Orchestrator) ActiveBranch() *model.Branch { return o.activeBranch }

// Snapshots returns the active branch's history, most recent first.
func (o *Orchestrator) Snapshots() []*model.Snapshot { return o.snapshots }

// Selected returns the selected snapshot, or nil.
func (o *Orchestrator) Selected() *model.Snapshot { return o.selected }

// Load resolves the project's active branch, creating the default branch if
// the project has none, and rebuilds the view. The selection is kept when
// set; otherwise the most recent snapshot is selected.
func (o *Orchestrator) Load(project *model.Project) error {
	active, err := o.service.EnsureDefaultBranch(project)
	if err != nil {
		return err
	}
	o.activeBranch = active

	if err := o.refreshBranches(project); err != nil {
		return err
	}
	if err := o.refreshSnapshots(project); err != nil {
		return err
	}

	if o.selected == nil && len(o.snapshots) > 0 {
		o.selected = o.snapshots[0]
	}
	return nil
}

// Select marks the snapshot with the given id as selected. It reports false
// when the id is not part of the visible history.
func (o *Orchestrator) Select(id model.SnapshotID) bool {
	for _, snap := range o.snapshots {
		if snap.ID == id {
			o.selected = snap
			return true
		}
	}
	return false
}

// HeadSnapshotID returns the head of the active branch, or an empty id.
func (o *Orchestrator) HeadSnapshotID() model.SnapshotID {
	if o.activeBranch == nil {
		return ""
	}
	return o.activeBranch.HeadSnapshotID
}

// CreateManualSnapshot captures the project with the "snapshot" trigger and
// selects the result.
func (o *Orchestrator) CreateManualSnapshot(project *model.Project, previewSource *model.Document) (*model.Snapshot, error) {
	snapshot, err := o.service.CreateSnapshot(project, previewSource, folio.TriggerSnapshot)
	if err != nil {
		return nil, err
	}
	if err := o.Load(project); err != nil {
		return nil, err
	}
	o.Select(snapshot.ID)
	return snapshot, nil
}

// Restore restores the snapshot into the project's documents and moves the
// active branch head to it, so the history shown starts at the restored
// snapshot.
func (o *Orchestrator) Restore(snapshot *model.Snapshot, project *model.Project) error {
	if _, err := o.service.Restore(snapshot, project); err != nil {
		return err
	}

	if o.activeBranch == nil {
		active, err := o.service.EnsureDefaultBranch(project)
		if err != nil {
			return err
		}
		o.activeBranch = active
	}
	if err := o.service.MoveBranchHead(o.activeBranch, snapshot); err != nil {
		return err
	}

	if err := o.refreshSnapshots(project); err != nil {
		return err
	}
	o.Select(snapshot.ID)
	return nil
}

// CreateBranch branches from the snapshot, activates the new branch and
// reloads the view.
func (o *Orchestrator) CreateBranch(from *model.Snapshot, name string, project *model.Project) (*model.Branch, error) {
	branch, err := o.service.CreateBranch(from, name, project)
	if err != nil {
		return nil, err
	}
	if err := o.Load(project); err != nil {
		return nil, err
	}
	return branch, nil
}

// CheckoutBranch activates branch, restores its head and selects the most
// recent snapshot of its history. It returns the restored snapshot or nil
// when the branch has no head.
func (o *Orchestrator) CheckoutBranch(branch *model.Branch, project *model.Project) (*model.Snapshot, error) {
	restored, err := o.service.CheckoutBranch(branch, project)
	if err != nil {
		return nil, err
	}
	o.activeBranch = branch

	if err := o.refreshSnapshots(project); err != nil {
		return nil, err
	}
	o.selected = nil
	if len(o.snapshots) > 0 {
		o.selected = o.snapshots[0]
	}
	return restored, nil
}

func (o *Orchestrator) refreshBranches(project *model.Project) error {
	branches, err := o.service.Branches(project)
	if err != nil {
		return err
	}
	o.branches = branches
	return nil
}

// refreshSnapshots rebuilds the active branch's history from the project's
// snapshot index.
func (o *Orchestrator) refreshSnapshots(project *model.Project) error {
	if o.activeBranch == nil {
		o.snapshots = nil
		return nil
	}

	index, err := o.service.SnapshotIndex(project)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	chain, cycle := Walk(o.activeBranch.HeadSnapshotID, index)
	if cycle {
		o.logger.Warn("snapshot history contains a cycle", "branch", o.activeBranch.ID, "length", len(chain))
	}
	o.snapshots = chain
	return nil
}
