package folio

import "folio/internal/model"

// Paginator estimates how many pages a document occupies once laid out.
type Paginator interface {
	// EstimatePages returns the page count for doc. The result is at least 1.
	EstimatePages(doc *model.Document) int
}

// PreviewRenderer renders and stores a preview image of a document for a
// snapshot.
type PreviewRenderer interface {
	// RenderPreview renders doc, persists the image and returns its storage path.
	RenderPreview(snapshotID model.SnapshotID, doc *model.Document) (string, error)

	// DiscardPreview removes an image stored by RenderPreview.
	DiscardPreview(path string) error
}

// Notifier broadcasts that a live document was rewritten by a restore.
// Publishing is fire-and-forget.
type Notifier interface {
	DocumentRestored(id model.DocumentID)
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) DocumentRestored(model.DocumentID) {}
