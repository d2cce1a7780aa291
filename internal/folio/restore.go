package folio

import (
	"fmt"
	"time"

	"folio/internal/model"
)

// Restore rewrites the project's live documents from the snapshot's records
// and returns the ids of the documents it touched.
//
// Documents with a matching record are overwritten field by field. Records
// without a live document are materialized under the record's document id.
// Live documents the snapshot does not know about are left as they are:
// restore reconciles one way and never deletes.
//
// Documents are written one at a time. If a write fails, documents already
// written stay restored and the error is returned with the ids touched so far.
// A notification is published for every touched document once all writes
// have succeeded.
func (s *Service) Restore(snapshot *model.Snapshot, project *model.Project) ([]model.DocumentID, error) {
	if snapshot.ProjectID != project.ID {
		return nil, ErrSnapshotProjectMismatch
	}

	records, err := s.records(snapshot)
	if err != nil {
		return nil, err
	}

	byDocument := make(map[model.DocumentID]*model.SnapshotDocument, len(records))
	for _, rec := range records {
		byDocument[rec.DocumentID] = rec
	}

	live, err := s.database.ListDocuments(project.ID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	now := s.clock.Now()
	var touched []model.DocumentID
	restored := make(map[model.DocumentID]bool, len(records))

	for _, doc := range live {
		rec, ok := byDocument[doc.ID]
		if !ok {
			continue
		}
		applyRecord(rec, doc)
		doc.UpdatedAt = now
		if err := s.database.UpdateDocument(doc); err != nil {
			return touched, fmt.Errorf("restoring document %s: %w", doc.ID, err)
		}
		restored[doc.ID] = true
		touched = append(touched, doc.ID)
	}

	for _, rec := range records {
		if restored[rec.DocumentID] {
			continue
		}
		if err := s.materialize(rec, project, now); err != nil {
			return touched, err
		}
		restored[rec.DocumentID] = true
		touched = append(touched, rec.DocumentID)
	}

	project.UpdatedAt = now
	if err := s.database.UpdateProject(project); err != nil {
		return touched, fmt.Errorf("updating project: %w", err)
	}

	for _, id := range touched {
		s.notifier.DocumentRestored(id)
	}

	s.logger.Info("snapshot restored", "project", project.ID, "snapshot", snapshot.ID, "documents", len(touched))
	return touched, nil
}

// materialize recreates the live document a record was captured from.
// If a document with that id still exists outside the project it is moved
// back into the project; otherwise a new document is created.
func (s *Service) materialize(rec *model.SnapshotDocument, project *model.Project, now time.Time) error {
	existing, err := s.database.FindDocumentByID(rec.DocumentID)
	if err != nil {
		return fmt.Errorf("finding document %s: %w", rec.DocumentID, err)
	}

	if existing != nil {
		applyRecord(rec, existing)
		existing.ProjectID = project.ID
		existing.UpdatedAt = now
		if err := s.database.UpdateDocument(existing); err != nil {
			return fmt.Errorf("restoring document %s: %w", existing.ID, err)
		}
		return nil
	}

	doc := &model.Document{
		ID:        rec.DocumentID,
		ProjectID: project.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyRecord(rec, doc)
	if err := s.database.CreateDocument(doc); err != nil {
		return fmt.Errorf("recreating document %s: %w", doc.ID, err)
	}
	return nil
}

// records returns the snapshot's document records, loading them when the
// snapshot came from a listing that does not include them.
func (s *Service) records(snapshot *model.Snapshot) ([]*model.SnapshotDocument, error) {
	if snapshot.Documents != nil {
		return snapshot.Documents, nil
	}
	full, err := s.database.FindSnapshotByID(snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot records: %w", err)
	}
	if full == nil {
		return nil, ErrSnapshotNotFound
	}
	snapshot.Documents = full.Documents
	return full.Documents, nil
}

// applyRecord overwrites every captured field of doc with the record's values.
func applyRecord(rec *model.SnapshotDocument, doc *model.Document) {
	doc.Content = rec.Content.Clone()
}
