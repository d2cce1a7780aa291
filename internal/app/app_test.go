package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"folio/internal/config"
	"folio/internal/vault"
)

const testHost = "laptop"

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig(testHost, t.TempDir())
	cfg.Encryption.Type = "none"
	return cfg
}

func openApp(t *testing.T, cfg *config.Config, operation string) *FolioApp {
	t.Helper()
	a, err := NewFolioApp(cfg, operation)
	if err != nil {
		t.Fatalf("NewFolioApp(%s) error = %v", operation, err)
	}
	return a
}

func closeApp(t *testing.T, a *FolioApp) {
	t.Helper()
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func remoteVersion(t *testing.T, cfg *config.Config) int64 {
	t.Helper()
	v, err := vault.NewFileSystemVault("check", cfg.Vaults[0].FSVaultRoot)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}
	version, err := v.GetMetadataVersion(testHost, dbMetadataName)
	if err != nil {
		t.Fatalf("GetMetadataVersion() error = %v", err)
	}
	return version
}

func TestFolioApp_SnapshotRestoreFlow(t *testing.T) {
	cfg := newTestConfig(t)

	a := openApp(t, cfg, "CreateProject")
	if _, err := a.CreateProject("Novel", "first draft"); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	closeApp(t, a)
	if got := remoteVersion(t, cfg); got != 1 {
		t.Errorf("remote version after first operation = %d, want 1", got)
	}

	a = openApp(t, cfg, "NewDocument")
	doc, err := a.NewDocument("Novel", "Chapter 1", "It was a dark and stormy night.")
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}
	closeApp(t, a)

	a = openApp(t, cfg, "CreateSnapshot")
	snap, err := a.CreateSnapshot("Novel", "")
	if err != nil {
		t.Fatalf("CreateSnapshot() error = %v", err)
	}
	closeApp(t, a)
	if snap.WordCount != 7 {
		t.Errorf("WordCount = %d, want 7", snap.WordCount)
	}
	if want := "previews/" + string(snap.ID) + ".png"; snap.PreviewImagePath != want {
		t.Errorf("PreviewImagePath = %q, want %q", snap.PreviewImagePath, want)
	}

	a = openApp(t, cfg, "EditDocument")
	if _, err := a.EditDocument(string(doc.ID), "Rewritten."); err != nil {
		t.Fatalf("EditDocument() error = %v", err)
	}
	closeApp(t, a)

	a = openApp(t, cfg, "RestoreSnapshot")
	restoredSnap, restored, err := a.Restore(string(snap.ID))
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	closeApp(t, a)
	if restoredSnap.ID != snap.ID {
		t.Errorf("Restore() snapshot = %s, want %s", restoredSnap.ID, snap.ID)
	}
	if len(restored) != 1 || restored[0] != doc.ID {
		t.Errorf("restored documents = %v, want [%s]", restored, doc.ID)
	}
	if got := remoteVersion(t, cfg); got != 5 {
		t.Errorf("remote version = %d, want 5", got)
	}

	a = openApp(t, cfg, "ListDocuments")
	defer closeApp(t, a)

	docs, err := a.Documents("Novel")
	if err != nil {
		t.Fatalf("Documents() error = %v", err)
	}
	if len(docs) != 1 || docs[0].PlainText != "It was a dark and stormy night." {
		t.Errorf("Documents() after restore = %+v", docs)
	}

	var png bytes.Buffer
	if err := a.FetchPreview(string(snap.ID), &png); err != nil {
		t.Fatalf("FetchPreview() error = %v", err)
	}
	if !bytes.HasPrefix(png.Bytes(), []byte("\x89PNG")) {
		t.Error("FetchPreview() did not return a PNG")
	}

	var manifest bytes.Buffer
	if err := a.ExportSnapshot(string(snap.ID), &manifest, "json"); err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}
	if !strings.Contains(manifest.String(), "Chapter 1") {
		t.Errorf("manifest missing document title: %s", manifest.String())
	}

	ops, err := a.Operations(10)
	if err != nil {
		t.Fatalf("Operations() error = %v", err)
	}
	if len(ops) != 5 {
		t.Fatalf("Operations() = %d entries, want 5", len(ops))
	}
	if ops[0].Operation != "RestoreSnapshot" {
		t.Errorf("newest operation = %q, want RestoreSnapshot", ops[0].Operation)
	}
	for _, op := range ops {
		if op.Status != StatusSuccess || op.FinishedAt == nil {
			t.Errorf("operation %d: status %q finished %v", op.ID, op.Status, op.FinishedAt)
		}
	}
}

func TestFolioApp_ReadOnlyCommandDoesNotUpload(t *testing.T) {
	cfg := newTestConfig(t)

	a := openApp(t, cfg, "CreateProject")
	if _, err := a.CreateProject("Novel", ""); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	closeApp(t, a)

	a = openApp(t, cfg, "ListProjects")
	projects, err := a.Projects()
	if err != nil {
		t.Fatalf("Projects() error = %v", err)
	}
	closeApp(t, a)

	if len(projects) != 1 || projects[0].Name != "Novel" {
		t.Errorf("Projects() = %+v", projects)
	}
	if got := remoteVersion(t, cfg); got != 1 {
		t.Errorf("remote version = %d, want 1", got)
	}
}

func TestFolioApp_FailedOperationIsRecorded(t *testing.T) {
	cfg := newTestConfig(t)

	a := openApp(t, cfg, "CreateProject")
	if _, err := a.CreateProject("  ", ""); err == nil {
		t.Fatal("CreateProject() expected error for blank name")
	}
	closeApp(t, a)

	a = openApp(t, cfg, "ListOperations")
	defer closeApp(t, a)
	ops, err := a.Operations(1)
	if err != nil {
		t.Fatalf("Operations() error = %v", err)
	}
	if len(ops) != 1 || ops[0].Status != StatusError {
		t.Errorf("Operations() = %+v, want one failed operation", ops)
	}
}

func TestFolioApp_BranchAndCheckout(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Preview.Enabled = false

	a := openApp(t, cfg, "Setup")
	defer closeApp(t, a)

	if _, err := a.CreateProject("Essay", ""); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if _, err := a.CreateBranch("Essay", "draft-b", ""); err == nil {
		t.Error("CreateBranch() expected error without snapshots")
	}

	doc, err := a.NewDocument("Essay", "Intro", "one two")
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}
	base, err := a.CreateSnapshot("Essay", "")
	if err != nil {
		t.Fatalf("CreateSnapshot() error = %v", err)
	}
	if base.PreviewImagePath != "" {
		t.Errorf("PreviewImagePath = %q with previews disabled", base.PreviewImagePath)
	}

	branch, err := a.CreateBranch("Essay", "draft-b", "")
	if err != nil {
		t.Fatalf("CreateBranch() error = %v", err)
	}
	if branch.HeadSnapshotID != base.ID {
		t.Errorf("branch head = %s, want %s", branch.HeadSnapshotID, base.ID)
	}

	if _, err := a.EditDocument(string(doc.ID), "three four five"); err != nil {
		t.Fatalf("EditDocument() error = %v", err)
	}
	if _, err := a.CreateSnapshot("Essay", ""); err != nil {
		t.Fatalf("CreateSnapshot() error = %v", err)
	}

	head, err := a.CheckoutBranch("Essay", "Main")
	if err != nil {
		t.Fatalf("CheckoutBranch() error = %v", err)
	}
	if head == nil || head.ID != base.ID {
		t.Fatalf("CheckoutBranch() head = %v, want %s", head, base.ID)
	}

	docs, err := a.Documents("Essay")
	if err != nil {
		t.Fatalf("Documents() error = %v", err)
	}
	if docs[0].PlainText != "one two" {
		t.Errorf("PlainText after checkout = %q, want %q", docs[0].PlainText, "one two")
	}

	view, err := a.History("Essay")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if view.ActiveBranch().Name != "Main" {
		t.Errorf("active branch = %q, want Main", view.ActiveBranch().Name)
	}
	if got := len(view.Snapshots()); got != 1 {
		t.Errorf("Main history has %d snapshots, want 1", got)
	}
	if got := len(view.Branches()); got != 2 {
		t.Errorf("Branches() = %d, want 2", got)
	}
}

func TestFolioApp_ImportDocuments(t *testing.T) {
	cfg := newTestConfig(t)
	src := t.TempDir()
	writeTestFile(t, filepath.Join(src, "one.md"), "# Opening\nFirst lines.")
	writeTestFile(t, filepath.Join(src, "two.txt"), "Second file.")
	writeTestFile(t, filepath.Join(src, "skip.png"), "not text")

	a := openApp(t, cfg, "ImportDocuments")
	defer closeApp(t, a)

	if _, err := a.CreateProject("Notes", ""); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	docs, err := a.ImportDocuments("Notes", src, false)
	if err != nil {
		t.Fatalf("ImportDocuments() error = %v", err)
	}

	var titles []string
	for _, d := range docs {
		titles = append(titles, d.Title)
	}
	if strings.Join(titles, ",") != "Opening,two" {
		t.Errorf("imported titles = %v, want [Opening two]", titles)
	}
}

func TestNewFolioApp_LocalBehindRemote(t *testing.T) {
	cfg := newTestConfig(t)

	a := openApp(t, cfg, "CreateProject")
	if _, err := a.CreateProject("Novel", ""); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	closeApp(t, a)

	fresh := *cfg
	fresh.Database.DataDir = t.TempDir()

	_, err := NewFolioApp(&fresh, "ListProjects")
	if err == nil || !strings.Contains(err.Error(), "behind remote") {
		t.Fatalf("NewFolioApp() error = %v, want behind remote", err)
	}
}

func TestPullDatabase(t *testing.T) {
	cfg := newTestConfig(t)

	t.Run("no backup in vault", func(t *testing.T) {
		if _, err := PullDatabase(cfg, "", false); err == nil {
			t.Error("PullDatabase() expected error with an empty vault")
		}
	})

	a := openApp(t, cfg, "CreateProject")
	if _, err := a.CreateProject("Novel", ""); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	closeApp(t, a)

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		if _, err := PullDatabase(cfg, "", false); err == nil {
			t.Error("PullDatabase() expected error for existing local database")
		}
	})

	t.Run("installs backup on a new machine", func(t *testing.T) {
		fresh := *cfg
		fresh.Database.DataDir = t.TempDir()

		version, err := PullDatabase(&fresh, "", false)
		if err != nil {
			t.Fatalf("PullDatabase() error = %v", err)
		}
		if version != 1 {
			t.Errorf("version = %d, want 1", version)
		}

		a := openApp(t, &fresh, "ListProjects")
		defer closeApp(t, a)
		projects, err := a.Projects()
		if err != nil {
			t.Fatalf("Projects() error = %v", err)
		}
		if len(projects) != 1 || projects[0].Name != "Novel" {
			t.Errorf("Projects() = %+v", projects)
		}
	})

	t.Run("force replaces local database", func(t *testing.T) {
		if _, err := PullDatabase(cfg, "", true); err != nil {
			t.Fatalf("PullDatabase(force) error = %v", err)
		}
	})
}

func TestInitDatabase(t *testing.T) {
	cfg := newTestConfig(t)

	for i := 0; i < 2; i++ {
		if err := InitDatabase(cfg); err != nil {
			t.Fatalf("InitDatabase() run %d error = %v", i+1, err)
		}
	}

	a := openApp(t, cfg, "ListProjects")
	defer closeApp(t, a)
	projects, err := a.Projects()
	if err != nil {
		t.Fatalf("Projects() error = %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("Projects() = %d, want 0", len(projects))
	}
}

func TestSetupKeys(t *testing.T) {
	cfg := config.NewConfig(testHost, t.TempDir())

	pub, err := SetupKeys(cfg, "correct horse")
	if err != nil {
		t.Fatalf("SetupKeys() error = %v", err)
	}
	if !strings.HasPrefix(pub, "age1") {
		t.Errorf("SetupKeys() public key = %q, want age1 prefix", pub)
	}
	if _, err := SetupKeys(cfg, "correct horse"); err == nil {
		t.Error("SetupKeys() expected error when keys exist")
	}
}
