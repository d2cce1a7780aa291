package folio_test

import (
	"errors"
	"testing"
	"time"

	"folio/internal/folio"
	"folio/internal/model"
	"folio/internal/testutil"
)

func TestService_Restore_RoundTrip(t *testing.T) {
	env := testutil.NewTestEnv(t)
	p := mustProject(t, env, "Novel")
	doc := mustDocument(t, env, p, "Ch1", "the original text")
	captured := reload(t, env, doc.ID).Content

	snap := mustSnapshot(t, env, p)

	// Mutate every kind of field.
	doc.Title = "Renamed"
	doc.PaperSize = model.PaperA5
	doc.MarginLeft = 10
	doc.HyphenationEnabled = true
	doc.BodyFontName = "Helvetica"
	if err := env.Service.EditDocument(doc, "rewritten entirely"); err != nil {
		t.Fatalf("EditDocument() error = %v", err)
	}

	touched, err := env.Service.Restore(snap, p)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	got := reload(t, env, doc.ID)
	assertContentEqual(t, got.Content, captured)
	if len(touched) != 1 || touched[0] != doc.ID {
		t.Errorf("Restore() touched = %v, want [%s]", touched, doc.ID)
	}
	if restored := env.Notifier.Restored(); len(restored) != 1 || restored[0] != doc.ID {
		t.Errorf("notifications = %v, want [%s]", restored, doc.ID)
	}
}

func TestService_Restore_DraftScenario(t *testing.T) {
	env := testutil.NewTestEnv(t)
	p := mustProject(t, env, "Novel")
	doc := mustDocument(t, env, p, "Draft", words(500))
	if doc.WordCount != 500 {
		t.Fatalf("WordCount = %d, want 500", doc.WordCount)
	}

	snap := mustSnapshot(t, env, p)
	if snap.TriggerType != folio.TriggerSnapshot {
		t.Errorf("TriggerType = %q", snap.TriggerType)
	}

	if err := env.Service.EditDocument(doc, ""); err != nil {
		t.Fatalf("EditDocument() error = %v", err)
	}
	if got := reload(t, env, doc.ID).WordCount; got != 0 {
		t.Fatalf("WordCount after edit = %d, want 0", got)
	}

	if _, err := env.Service.Restore(snap, p); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if got := reload(t, env, doc.ID).WordCount; got != 500 {
		t.Errorf("WordCount after restore = %d, want 500", got)
	}
}

func TestService_Restore_KeepsDocumentsMissingFromSnapshot(t *testing.T) {
	env := testutil.NewTestEnv(t)
	p := mustProject(t, env, "Novel")
	mustDocument(t, env, p, "Ch1", "one")
	snap := mustSnapshot(t, env, p)

	extra := mustDocument(t, env, p, "Ch2", "added after the snapshot")

	touched, err := env.Service.Restore(snap, p)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	docs, _ := env.Service.Documents(p)
	if len(docs) != 2 {
		t.Fatalf("len(Documents()) = %d, want 2", len(docs))
	}
	got := reload(t, env, extra.ID)
	if got.PlainText != "added after the snapshot" {
		t.Errorf("extra document changed: %q", got.PlainText)
	}
	for _, id := range touched {
		if id == extra.ID {
			t.Error("extra document reported as touched")
		}
	}
}

func TestService_Restore_MaterializesMissingDocument(t *testing.T) {
	t.Run("reattaches a document moved to another project", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		p := mustProject(t, env, "Novel")
		other := mustProject(t, env, "Other")
		doc := mustDocument(t, env, p, "Ch1", "one")
		snap := mustSnapshot(t, env, p)

		doc.ProjectID = other.ID
		doc.PlainText = "moved"
		if err := env.DB.UpdateDocument(doc); err != nil {
			t.Fatalf("UpdateDocument() error = %v", err)
		}

		touched, err := env.Service.Restore(snap, p)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		got := reload(t, env, doc.ID)
		if got.ProjectID != p.ID || got.PlainText != "one" {
			t.Errorf("document = project %s text %q, want project %s text %q", got.ProjectID, got.PlainText, p.ID, "one")
		}
		if len(touched) != 1 {
			t.Errorf("touched = %v, want one id", touched)
		}
	})

	t.Run("recreates a document that no longer exists", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		p := mustProject(t, env, "Novel")
		branch, _ := env.Service.EnsureDefaultBranch(p)

		content := model.Content{Title: "Ghost", DocumentType: model.TypeArticle, PlainText: "boo", WordCount: 1, Layout: model.DefaultLayout()}
		snap := &model.Snapshot{
			ID:          "snap-ghost",
			ProjectID:   p.ID,
			Label:       "Snapshot",
			CreatedAt:   env.Clock.Now(),
			TriggerType: folio.TriggerSnapshot,
			PageCount:   1,
			Documents: []*model.SnapshotDocument{
				{ID: "rec-ghost", SnapshotID: "snap-ghost", DocumentID: "doc-ghost", Content: content},
			},
		}
		if err := env.DB.CommitSnapshot(snap, branch.ID, env.Clock.Now()); err != nil {
			t.Fatalf("CommitSnapshot() error = %v", err)
		}

		env.Clock.Advance(time.Hour)
		if _, err := env.Service.Restore(snap, p); err != nil {
			t.Fatalf("Restore() error = %v", err)
		}

		got := reload(t, env, "doc-ghost")
		if got.ProjectID != p.ID {
			t.Errorf("ProjectID = %q, want %q", got.ProjectID, p.ID)
		}
		assertContentEqual(t, got.Content, content)
		if !got.CreatedAt.Equal(env.Clock.Now()) {
			t.Errorf("CreatedAt = %v, want restore time %v", got.CreatedAt, env.Clock.Now())
		}
	})
}

func TestService_Restore_LoadsRecordsForListedSnapshots(t *testing.T) {
	env := testutil.NewTestEnv(t)
	p := mustProject(t, env, "Novel")
	doc := mustDocument(t, env, p, "Ch1", "one")
	snap := mustSnapshot(t, env, p)
	if err := env.Service.EditDocument(doc, "two"); err != nil {
		t.Fatalf("EditDocument() error = %v", err)
	}

	index, err := env.Service.SnapshotIndex(p)
	if err != nil {
		t.Fatalf("SnapshotIndex() error = %v", err)
	}
	listed := index[snap.ID]
	if listed.Documents != nil {
		t.Fatal("listed snapshot unexpectedly carries records")
	}

	if _, err := env.Service.Restore(listed, p); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if got := reload(t, env, doc.ID).PlainText; got != "one" {
		t.Errorf("PlainText = %q, want %q", got, "one")
	}
}

func TestService_Restore_RejectsForeignSnapshot(t *testing.T) {
	env := testutil.NewTestEnv(t)
	a := mustProject(t, env, "A")
	b := mustProject(t, env, "B")
	mustDocument(t, env, a, "Ch1", "one")
	snap := mustSnapshot(t, env, a)

	_, err := env.Service.Restore(snap, b)
	if !errors.Is(err, folio.ErrSnapshotProjectMismatch) {
		t.Errorf("Restore() error = %v, want ErrSnapshotProjectMismatch", err)
	}
	if n := len(env.Notifier.Restored()); n != 0 {
		t.Errorf("notifications = %d, want 0", n)
	}
}

func TestService_Restore_StopsAtFirstWriteError(t *testing.T) {
	env := testutil.NewTestEnv(t)
	p := mustProject(t, env, "Novel")
	a := mustDocument(t, env, p, "Ch1", words(3))
	b := mustDocument(t, env, p, "Ch2", words(4))
	snap := mustSnapshot(t, env, p)

	for _, doc := range []*model.Document{a, b} {
		if err := env.Service.EditDocument(doc, "changed"); err != nil {
			t.Fatalf("EditDocument() error = %v", err)
		}
	}

	svc := serviceOver(env, &faultyDatabase{Database: env.DB, failUpdateOn: 2}, folio.NewNopLogger())
	touched, err := svc.Restore(snap, p)
	if !errors.Is(err, errInjected) {
		t.Fatalf("Restore() error = %v, want injected failure", err)
	}
	if len(touched) != 1 || touched[0] != a.ID {
		t.Fatalf("touched = %v, want [%s]", touched, a.ID)
	}

	if got := reload(t, env, a.ID); got.PlainText != words(3) || got.WordCount != 3 {
		t.Errorf("first document = %q (%d words), want restored", got.PlainText, got.WordCount)
	}
	if got := reload(t, env, b.ID); got.PlainText != "changed" {
		t.Errorf("second document = %q, want unchanged %q", got.PlainText, "changed")
	}
	if restored := env.Notifier.Restored(); len(restored) != 0 {
		t.Errorf("notifications = %v, want none", restored)
	}
}
