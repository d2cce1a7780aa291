package folio

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"folio/internal/model"
)

// Trigger types recorded on snapshots.
const (
	TriggerSnapshot = "snapshot"
	TriggerAIAction = "ai_action"
)

// labelTimeLayout renders timestamps like "Oct 17, 2026 at 3:04 PM".
const labelTimeLayout = "Jan 2, 2006 at 3:04 PM"

// CreateSnapshot captures every document of the project as a new snapshot on
// the active branch and moves the branch head to it.
//
// previewSource selects the document rendered as the snapshot preview; when
// nil, the project's first document is used. Preview rendering is best
// effort: a failure leaves the snapshot without a preview path.
func (s *Service) CreateSnapshot(project *model.Project, previewSource *model.Document, triggerType string) (*model.Snapshot, error) {
	branch, err := s.EnsureDefaultBranch(project)
	if err != nil {
		return nil, err
	}

	docs, err := s.database.ListDocuments(project.ID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	wordCount, pageCount := 0, 0
	for _, doc := range docs {
		wordCount += doc.WordCount
		pageCount += s.paginator.EstimatePages(doc)
	}

	now := s.clock.Now()
	snapshot := &model.Snapshot{
		ID:               model.SnapshotID(s.idgen.New()),
		ProjectID:        project.ID,
		Label:            BuildLabel(triggerType, now),
		CreatedAt:        now,
		TriggerType:      triggerType,
		WordCount:        wordCount,
		PageCount:        max(1, pageCount),
		ParentSnapshotID: branch.HeadSnapshotID,
		Documents:        make([]*model.SnapshotDocument, 0, len(docs)),
	}

	for _, doc := range docs {
		snapshot.Documents = append(snapshot.Documents, &model.SnapshotDocument{
			ID:         s.idgen.New(),
			SnapshotID: snapshot.ID,
			DocumentID: doc.ID,
			Content:    doc.Content.Clone(),
		})
	}

	previewDoc := previewSource
	if previewDoc == nil && len(docs) > 0 {
		previewDoc = docs[0]
	}
	if previewDoc != nil && s.renderer != nil {
		path, err := s.renderer.RenderPreview(snapshot.ID, previewDoc)
		if err != nil {
			s.logger.Warn("preview rendering failed", "snapshot", snapshot.ID, "document", previewDoc.ID, "error", err)
		} else {
			snapshot.PreviewImagePath = path
		}
	}

	if err := s.database.CommitSnapshot(snapshot, branch.ID, now); err != nil {
		if snapshot.PreviewImagePath != "" {
			if derr := s.renderer.DiscardPreview(snapshot.PreviewImagePath); derr != nil {
				s.logger.Warn("orphaned preview left in vault", "snapshot", snapshot.ID, "path", snapshot.PreviewImagePath, "error", derr)
			}
		}
		return nil, fmt.Errorf("recording snapshot: %w", err)
	}
	branch.HeadSnapshotID = snapshot.ID
	project.UpdatedAt = now

	s.logger.Info("snapshot created",
		"project", project.ID,
		"branch", branch.Name,
		"snapshot", snapshot.ID,
		"documents", len(snapshot.Documents),
		"trigger", triggerType,
	)
	return snapshot, nil
}

// BuildLabel returns the display label of a snapshot: the capitalized trigger
// and a human-readable timestamp, e.g. "Snapshot — Oct 17, 2026 at 3:04 PM".
func BuildLabel(triggerType string, at time.Time) string {
	caser := cases.Title(language.Und)
	return fmt.Sprintf("%s — %s", caser.String(triggerType), at.Format(labelTimeLayout))
}

// onePagePaginator counts every document as a single page.
type onePagePaginator struct{}

func (onePagePaginator) EstimatePages(*model.Document) int { return 1 }
