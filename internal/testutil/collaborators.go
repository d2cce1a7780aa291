package testutil

import (
	"errors"
	"fmt"
	"sync"

	"folio/internal/folio"
	"folio/internal/model"
)

// RecordingNotifier records every restore notification in order.
type RecordingNotifier struct {
	mu  sync.Mutex
	ids []model.DocumentID
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) DocumentRestored(id model.DocumentID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, id)
}

// Restored returns a copy of the notified ids.
func (n *RecordingNotifier) Restored() []model.DocumentID {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.DocumentID(nil), n.ids...)
}

// Reset forgets recorded notifications.
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = nil
}

// StubPaginator returns a fixed page count, overridable per document.
type StubPaginator struct {
	Pages    int
	PerTitle map[string]int
}

func NewStubPaginator(pages int) *StubPaginator {
	return &StubPaginator{Pages: pages, PerTitle: make(map[string]int)}
}

func (p *StubPaginator) EstimatePages(doc *model.Document) int {
	if n, ok := p.PerTitle[doc.Title]; ok {
		return n
	}
	return p.Pages
}

// ErrRenderFailed is returned by a StubRenderer set to fail.
var ErrRenderFailed = errors.New("render failed")

// StubRenderer records preview requests and returns "previews/<id>.png".
type StubRenderer struct {
	Fail      bool
	Calls     []RenderCall
	Discarded []string
}

// RenderCall is one recorded RenderPreview invocation.
type RenderCall struct {
	SnapshotID model.SnapshotID
	DocumentID model.DocumentID
}

func NewStubRenderer() *StubRenderer {
	return &StubRenderer{}
}

func (r *StubRenderer) RenderPreview(snapshotID model.SnapshotID, doc *model.Document) (string, error) {
	r.Calls = append(r.Calls, RenderCall{SnapshotID: snapshotID, DocumentID: doc.ID})
	if r.Fail {
		return "", ErrRenderFailed
	}
	return fmt.Sprintf("previews/%s.png", snapshotID), nil
}

func (r *StubRenderer) DiscardPreview(path string) error {
	r.Discarded = append(r.Discarded, path)
	return nil
}

var (
	_ folio.Notifier        = (*RecordingNotifier)(nil)
	_ folio.Paginator       = (*StubPaginator)(nil)
	_ folio.PreviewRenderer = (*StubRenderer)(nil)
)
