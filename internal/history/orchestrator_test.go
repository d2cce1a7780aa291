package history_test

import (
	"errors"
	"testing"
	"time"

	"folio/internal/folio"
	"folio/internal/history"
	"folio/internal/model"
	"folio/internal/testutil"
)

// recordingLogger keeps warn messages so tests can assert on them.
type recordingLogger struct {
	folio.NopLogger
	warnings []string
}

func (l *recordingLogger) Warn(msg string, args ...any) {
	l.warnings = append(l.warnings, msg)
}

func setup(t *testing.T) (*testutil.Env, *model.Project, *model.Document) {
	t.Helper()
	env := testutil.NewTestEnv(t)
	p, err := env.Service.CreateProject("Novel", "")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	doc, err := env.Service.CreateDocument(p, model.Content{Title: "Ch1", PlainText: "v1"})
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	return env, p, doc
}

func TestOrchestrator_LoadEmptyProject(t *testing.T) {
	env, p, _ := setup(t)
	o := history.NewOrchestrator(env.Service, nil)

	if err := o.Load(p); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if o.ActiveBranch() == nil || o.ActiveBranch().Name != folio.DefaultBranchName {
		t.Fatalf("ActiveBranch() = %v, want %s", o.ActiveBranch(), folio.DefaultBranchName)
	}
	if len(o.Branches()) != 1 {
		t.Errorf("len(Branches()) = %d, want 1", len(o.Branches()))
	}
	if len(o.Snapshots()) != 0 || o.Selected() != nil {
		t.Errorf("history = %d snapshots, selected %v; want empty", len(o.Snapshots()), o.Selected())
	}
	if !o.HeadSnapshotID().IsZero() {
		t.Errorf("HeadSnapshotID() = %q, want empty", o.HeadSnapshotID())
	}
}

func TestOrchestrator_History(t *testing.T) {
	env, p, _ := setup(t)
	o := history.NewOrchestrator(env.Service, nil)

	var created []*model.Snapshot
	for i := 0; i < 3; i++ {
		s, err := o.CreateManualSnapshot(p, nil)
		if err != nil {
			t.Fatalf("CreateManualSnapshot() error = %v", err)
		}
		created = append(created, s)
		env.Clock.Advance(time.Minute)
	}

	got := ids(o.Snapshots())
	want := []model.SnapshotID{created[2].ID, created[1].ID, created[0].ID}
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Errorf("Snapshots() = %v, want %v", got, want)
	}
	if o.Selected().ID != created[2].ID {
		t.Errorf("Selected() = %s, want newest %s", o.Selected().ID, created[2].ID)
	}
	if o.HeadSnapshotID() != created[2].ID {
		t.Errorf("HeadSnapshotID() = %s, want %s", o.HeadSnapshotID(), created[2].ID)
	}
	if created[0].TriggerType != folio.TriggerSnapshot {
		t.Errorf("TriggerType = %q, want %q", created[0].TriggerType, folio.TriggerSnapshot)
	}

	if !o.Select(created[0].ID) || o.Selected().ID != created[0].ID {
		t.Error("Select() did not select the oldest snapshot")
	}
	if o.Select("not-in-history") {
		t.Error("Select() accepted an unknown id")
	}
	if o.Selected().ID != created[0].ID {
		t.Error("failed Select() changed the selection")
	}
}

func TestOrchestrator_LoadWithCycle(t *testing.T) {
	env, p, _ := setup(t)
	logger := &recordingLogger{}
	o := history.NewOrchestrator(env.Service, logger)

	s1, _ := o.CreateManualSnapshot(p, nil)
	env.Clock.Advance(time.Minute)
	o.CreateManualSnapshot(p, nil)
	env.Clock.Advance(time.Minute)
	s3, _ := o.CreateManualSnapshot(p, nil)

	// Corrupt S1's parent to point at S3.
	if _, err := env.SQL.Exec(`UPDATE snapshots SET parent_snapshot_id = ? WHERE id = ?`, string(s3.ID), string(s1.ID)); err != nil {
		t.Fatalf("corrupting parent: %v", err)
	}

	if err := o.Load(p); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(o.Snapshots()) != 3 {
		t.Errorf("len(Snapshots()) = %d, want 3", len(o.Snapshots()))
	}
	if len(logger.warnings) != 1 {
		t.Errorf("warnings = %v, want one cycle warning", logger.warnings)
	}
}

func TestOrchestrator_Restore(t *testing.T) {
	env, p, doc := setup(t)
	o := history.NewOrchestrator(env.Service, nil)

	s1, _ := o.CreateManualSnapshot(p, nil)
	if err := env.Service.EditDocument(doc, "v2"); err != nil {
		t.Fatalf("EditDocument() error = %v", err)
	}
	env.Clock.Advance(time.Minute)
	o.CreateManualSnapshot(p, nil)

	if err := o.Restore(s1, p); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	live, _ := env.Service.Document(doc.ID)
	if live.PlainText != "v1" {
		t.Errorf("PlainText = %q, want %q", live.PlainText, "v1")
	}
	if o.HeadSnapshotID() != s1.ID {
		t.Errorf("HeadSnapshotID() = %s, want %s", o.HeadSnapshotID(), s1.ID)
	}
	if len(o.Snapshots()) != 1 || o.Selected().ID != s1.ID {
		t.Errorf("history = %v, selected %s; want [S1] with S1 selected", ids(o.Snapshots()), o.Selected().ID)
	}
	branch, _ := env.Service.Branch(p, folio.DefaultBranchName)
	if branch.HeadSnapshotID != s1.ID {
		t.Errorf("persisted head = %s, want %s", branch.HeadSnapshotID, s1.ID)
	}
}

func TestOrchestrator_BranchAndCheckout(t *testing.T) {
	env, p, doc := setup(t)
	o := history.NewOrchestrator(env.Service, nil)

	s1, _ := o.CreateManualSnapshot(p, nil)
	env.Service.EditDocument(doc, "v2")
	env.Clock.Advance(time.Minute)
	s2, _ := o.CreateManualSnapshot(p, nil)
	main := o.ActiveBranch()

	alt, err := o.CreateBranch(s1, "alt", p)
	if err != nil {
		t.Fatalf("CreateBranch() error = %v", err)
	}
	if o.ActiveBranch().ID != alt.ID {
		t.Errorf("ActiveBranch() = %s, want %s", o.ActiveBranch().ID, alt.ID)
	}
	if len(o.Branches()) != 2 {
		t.Errorf("len(Branches()) = %d, want 2", len(o.Branches()))
	}
	if got := ids(o.Snapshots()); len(got) != 1 || got[0] != s1.ID {
		t.Errorf("alt history = %v, want [S1]", got)
	}

	restored, err := o.CheckoutBranch(main, p)
	if err != nil {
		t.Fatalf("CheckoutBranch() error = %v", err)
	}
	if restored == nil || restored.ID != s2.ID {
		t.Fatalf("CheckoutBranch() = %v, want %s", restored, s2.ID)
	}
	if o.Selected().ID != s2.ID {
		t.Errorf("Selected() = %s, want %s", o.Selected().ID, s2.ID)
	}
	if got := ids(o.Snapshots()); len(got) != 2 {
		t.Errorf("main history = %v, want [S2 S1]", got)
	}
	live, _ := env.Service.Document(doc.ID)
	if live.PlainText != "v2" {
		t.Errorf("PlainText = %q, want %q", live.PlainText, "v2")
	}
}

func TestOrchestrator_CheckoutHeadlessBranch(t *testing.T) {
	env, p, doc := setup(t)
	o := history.NewOrchestrator(env.Service, nil)
	if err := o.Load(p); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	restored, err := o.CheckoutBranch(o.ActiveBranch(), p)
	if err != nil {
		t.Fatalf("CheckoutBranch() error = %v", err)
	}
	if restored != nil {
		t.Errorf("CheckoutBranch() = %v, want nil", restored)
	}
	if o.Selected() != nil {
		t.Errorf("Selected() = %v, want nil", o.Selected())
	}
	live, _ := env.Service.Document(doc.ID)
	if live.PlainText != "v1" {
		t.Errorf("PlainText = %q, want unchanged", live.PlainText)
	}
	if n := len(env.Notifier.Restored()); n != 0 {
		t.Errorf("notifications = %d, want 0", n)
	}
}

func TestOrchestrator_CheckoutForeignBranchKeepsState(t *testing.T) {
	env, p, _ := setup(t)
	o := history.NewOrchestrator(env.Service, nil)
	s1, err := o.CreateManualSnapshot(p, nil)
	if err != nil {
		t.Fatalf("CreateManualSnapshot() error = %v", err)
	}
	active := o.ActiveBranch()

	other, err := env.Service.CreateProject("Essays", "")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	foreign, err := env.Service.EnsureDefaultBranch(other)
	if err != nil {
		t.Fatalf("EnsureDefaultBranch() error = %v", err)
	}

	if _, err := o.CheckoutBranch(foreign, p); !errors.Is(err, folio.ErrBranchProjectMismatch) {
		t.Fatalf("CheckoutBranch() error = %v, want ErrBranchProjectMismatch", err)
	}
	if o.ActiveBranch().ID != active.ID {
		t.Errorf("ActiveBranch() = %s, want %s", o.ActiveBranch().ID, active.ID)
	}
	if got := ids(o.Snapshots()); len(got) != 1 || got[0] != s1.ID {
		t.Errorf("history = %v, want [S1]", got)
	}
	if o.Selected() == nil || o.Selected().ID != s1.ID {
		t.Errorf("Selected() = %v, want %s", o.Selected(), s1.ID)
	}
}
