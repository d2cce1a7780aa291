package folio_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"folio/internal/folio"
	"folio/internal/model"
	"folio/internal/testutil"
)

func mustProject(t *testing.T, env *testutil.Env, name string) *model.Project {
	t.Helper()
	p, err := env.Service.CreateProject(name, "")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	return p
}

func mustDocument(t *testing.T, env *testutil.Env, project *model.Project, title, text string) *model.Document {
	t.Helper()
	content := model.Content{
		Title:     title,
		RichText:  []byte("{rich:" + title + "}"),
		PlainText: text,
		Layout:    model.DefaultLayout(),
	}
	doc, err := env.Service.CreateDocument(project, content)
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	return doc
}

func mustSnapshot(t *testing.T, env *testutil.Env, project *model.Project) *model.Snapshot {
	t.Helper()
	s, err := env.Service.CreateSnapshot(project, nil, "snapshot")
	if err != nil {
		t.Fatalf("CreateSnapshot() error = %v", err)
	}
	return s
}

func reload(t *testing.T, env *testutil.Env, id model.DocumentID) *model.Document {
	t.Helper()
	doc, err := env.Service.Document(id)
	if err != nil {
		t.Fatalf("Document(%s) error = %v", id, err)
	}
	return doc
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func assertContentEqual(t *testing.T, got, want model.Content) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("content mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func contentWithTitle(title string) model.Content {
	return model.Content{Title: title, PlainText: title + " text"}
}

var errInjected = errors.New("injected failure")

// faultyDatabase wraps a working database and fails selected calls.
type faultyDatabase struct {
	folio.Database
	failProjectLookup bool
	failCommit        bool
	failUpdateOn      int // 1-based UpdateDocument call that fails; 0 never fails
	updates           int
}

func (d *faultyDatabase) FindProjectByName(name string) (*model.Project, error) {
	if d.failProjectLookup {
		return nil, errInjected
	}
	return d.Database.FindProjectByName(name)
}

func (d *faultyDatabase) UpdateDocument(doc *model.Document) error {
	d.updates++
	if d.updates == d.failUpdateOn {
		return errInjected
	}
	return d.Database.UpdateDocument(doc)
}

func (d *faultyDatabase) CommitSnapshot(snapshot *model.Snapshot, branchID model.BranchID, updatedAt time.Time) error {
	if d.failCommit {
		return errInjected
	}
	return d.Database.CommitSnapshot(snapshot, branchID, updatedAt)
}

// warnLogger records warning messages.
type warnLogger struct {
	folio.NopLogger
	warnings []string
}

func (l *warnLogger) Warn(msg string, args ...any) {
	l.warnings = append(l.warnings, msg)
}

// serviceOver builds a Service sharing env's collaborators but reading and
// writing through db.
func serviceOver(env *testutil.Env, db folio.Database, logger folio.Logger) *folio.Service {
	return folio.NewService(db, env.Paginator, env.Renderer, env.Notifier, logger, env.Clock, env.IDs)
}
