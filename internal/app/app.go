package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"folio/internal/config"
	"folio/internal/database"
	"folio/internal/database/migrations"
	"folio/internal/encryption"
	"folio/internal/export"
	"folio/internal/folio"
	"folio/internal/fs"
	"folio/internal/history"
	"folio/internal/layout"
	"folio/internal/model"
	"folio/internal/notify"
	"folio/internal/preview"
	"folio/internal/vault"
)

// dbMetadataName is the vault metadata item holding the encrypted database backup.
const dbMetadataName = "db"

// restoreBuffer sizes the notification channel used to collect restored documents.
const restoreBuffer = 256

// FolioApp is the application layer between the CLI and the folio Service.
// It constructs all dependencies from config, exposes high-level operations
// that accept names and raw ids, and manages the DB lifecycle on Close.
type FolioApp struct {
	cfg       *config.Config
	db        *database.SQLiteDatabase
	vault     folio.Vault
	fsmgr     folio.FilesystemManager
	encryptor folio.Encryptor
	bus       *notify.Bus
	service   *folio.Service
	history   *history.Orchestrator
	logger    folio.Logger
	op        *Operation
	logFile   *os.File
}

// NewFolioApp creates a fully wired FolioApp from the given config.
// operation identifies the CLI command being run (e.g. "CreateSnapshot").
// The caller must call Close when done.
func NewFolioApp(cfg *config.Config, operation string) (*FolioApp, error) {
	fsmgr := fs.NewOSFilesystemManager(cfg.Filesystem.Ignore)

	v, err := newVault(cfg)
	if err != nil {
		return nil, err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	// Check local DB version against remote vault version.
	remoteVersion, err := v.GetMetadataVersion(cfg.HostID, dbMetadataName)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("checking remote metadata version: %w", err)
	}

	localMax, err := db.MaxOperationID()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("checking local metadata version: %w", err)
	}

	if remoteVersion > localMax {
		db.Close()
		return nil, fmt.Errorf("local database is behind remote (local=%d, remote=%d): run `folio vault pull` or re-initialize", localMax, remoteVersion)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	var renderer *preview.Renderer
	if cfg.Preview.Enabled {
		width := cfg.Preview.Width
		if width == 0 {
			width = config.DefaultPreviewWidth
		}
		renderer, err = preview.NewRenderer(v, width, logger)
		if err != nil {
			db.Close()
			logFile.Close()
			return nil, fmt.Errorf("creating preview renderer: %w", err)
		}
	}

	// A nil *Renderer must not reach the Service as a non-nil interface.
	var pr folio.PreviewRenderer
	if renderer != nil {
		pr = renderer
	}

	bus := notify.NewBus(restoreBuffer, logger)
	svc := folio.NewService(db, layout.NewEstimator(), pr, bus, logger, folio.RealClock{}, folio.UUIDGenerator{})

	return &FolioApp{
		cfg:       cfg,
		db:        db,
		vault:     v,
		fsmgr:     fsmgr,
		encryptor: enc,
		bus:       bus,
		service:   svc,
		history:   history.NewOrchestrator(svc, logger),
		logger:    logger,
		op:        NewOperation(operation, ""),
		logFile:   logFile,
	}, nil
}

func newVault(cfg *config.Config) (folio.Vault, error) {
	if len(cfg.Vaults) == 0 {
		return nil, fmt.Errorf("no vaults configured")
	}
	v, err := vault.NewVaultFromConfig(cfg.Vaults[0])
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}
	return v, nil
}

// openDatabase opens the configured database. A database that has never
// been migrated is brought up to the latest schema; any other schema
// mismatch is an error.
func openDatabase(cfg *config.Config) (*database.SQLiteDatabase, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.HostID, folio.RealClock{})
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	err = db.CheckMigrations()
	if errors.Is(err, migrations.ErrNoSchema) {
		err = db.Migrate()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}
	return db, nil
}

// persistOperation saves the operation to the database, giving it an auto-increment ID.
// This should only be called for DB-mutating commands.
func (a *FolioApp) persistOperation(parameters string) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Parameters = parameters
	dbOp, err := a.db.CreateOperation(a.op.Name, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// CreateProject creates an empty project.
func (a *FolioApp) CreateProject(name, description string) (*model.Project, error) {
	if err := a.persistOperation("name=" + name); err != nil {
		return nil, err
	}
	project, err := a.service.CreateProject(name, description)
	return project, a.op.Record(err)
}

// Projects returns every project ordered by name.
func (a *FolioApp) Projects() ([]*model.Project, error) {
	return a.service.Projects()
}

// NewDocument creates a document in the named project. An empty project name
// places the document in the shared workspace project.
func (a *FolioApp) NewDocument(projectName, title, text string) (*model.Document, error) {
	var project *model.Project
	if projectName != "" {
		p, err := a.service.Project(projectName)
		if err != nil {
			return nil, err
		}
		project = p
	}
	if err := a.persistOperation("title=" + title); err != nil {
		return nil, err
	}
	doc, err := a.service.CreateDocument(project, model.Content{Title: title, PlainText: text})
	return doc, a.op.Record(err)
}

// EditDocument replaces the plain text of the document with the given id.
func (a *FolioApp) EditDocument(id, text string) (*model.Document, error) {
	doc, err := a.service.Document(model.DocumentID(id))
	if err != nil {
		return nil, err
	}
	if err := a.persistOperation("document=" + id); err != nil {
		return nil, err
	}
	if err := a.op.Record(a.service.EditDocument(doc, text)); err != nil {
		return nil, err
	}
	return doc, nil
}

// Documents returns the live documents of the named project.
func (a *FolioApp) Documents(projectName string) ([]*model.Document, error) {
	project, err := a.service.Project(projectName)
	if err != nil {
		return nil, err
	}
	return a.service.Documents(project)
}

// ImportDocuments resolves rawPath and creates one document per text or
// markdown file found there, in the named project.
func (a *FolioApp) ImportDocuments(projectName, rawPath string, recursive bool) ([]*model.Document, error) {
	project, err := a.service.Project(projectName)
	if err != nil {
		return nil, err
	}
	p, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if err := a.persistOperation("path=" + p.String()); err != nil {
		return nil, err
	}
	docs, err := a.service.ImportDocuments(a.fsmgr, project, p, recursive)
	return docs, a.op.Record(err)
}

// CreateSnapshot captures the named project on its active branch.
// previewDocID selects the document rendered as the preview; empty uses the
// project's first document.
func (a *FolioApp) CreateSnapshot(projectName, previewDocID string) (*model.Snapshot, error) {
	project, err := a.service.Project(projectName)
	if err != nil {
		return nil, err
	}

	var source *model.Document
	if previewDocID != "" {
		source, err = a.service.Document(model.DocumentID(previewDocID))
		if err != nil {
			return nil, err
		}
	}

	if err := a.persistOperation("project=" + project.Name); err != nil {
		return nil, err
	}
	snapshot, err := a.history.CreateManualSnapshot(project, source)
	return snapshot, a.op.Record(err)
}

// Restore rewrites the live documents of the snapshot's project from the
// snapshot and moves the active branch head to it. It returns the ids of
// the documents that were rewritten.
func (a *FolioApp) Restore(snapshotID string) (*model.Snapshot, []model.DocumentID, error) {
	snapshot, err := a.service.Snapshot(model.SnapshotID(snapshotID))
	if err != nil {
		return nil, nil, err
	}
	project, err := a.service.ProjectByID(snapshot.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if err := a.history.Load(project); err != nil {
		return nil, nil, err
	}
	if err := a.persistOperation("snapshot=" + snapshotID); err != nil {
		return nil, nil, err
	}

	ch, cancel := a.bus.Subscribe()
	collected := make(chan []model.DocumentID)
	go func() {
		var ids []model.DocumentID
		for id := range ch {
			ids = append(ids, id)
		}
		collected <- ids
	}()

	err = a.history.Restore(snapshot, project)
	cancel()
	restored := <-collected
	if err := a.op.Record(err); err != nil {
		return nil, restored, err
	}
	return snapshot, restored, nil
}

// Snapshot returns the snapshot with the given id, records included.
func (a *FolioApp) Snapshot(id string) (*model.Snapshot, error) {
	return a.service.Snapshot(model.SnapshotID(id))
}

// ExportSnapshot writes the snapshot as a manifest in the given format
// ("yaml" or "json").
func (a *FolioApp) ExportSnapshot(id string, w io.Writer, format string) error {
	snapshot, err := a.Snapshot(id)
	if err != nil {
		return err
	}
	return export.Write(w, snapshot, format)
}

// FetchPreview copies the snapshot's preview image to w.
func (a *FolioApp) FetchPreview(id string, w io.Writer) error {
	snapshot, err := a.Snapshot(id)
	if err != nil {
		return err
	}
	if snapshot.PreviewImagePath == "" {
		return fmt.Errorf("snapshot %s has no preview", id)
	}
	if err := a.vault.GetObject(snapshot.PreviewImagePath, w); err != nil {
		return fmt.Errorf("fetching preview: %w", err)
	}
	return nil
}

// History loads the history view of the named project: its branches, the
// active branch and the active branch's snapshots, most recent first.
func (a *FolioApp) History(projectName string) (*history.Orchestrator, error) {
	project, err := a.service.Project(projectName)
	if err != nil {
		return nil, err
	}
	// Load creates the default branch of a project that has none.
	if err := a.persistOperation("project=" + project.Name); err != nil {
		return nil, err
	}
	if err := a.op.Record(a.history.Load(project)); err != nil {
		return nil, err
	}
	return a.history, nil
}

// CreateBranch creates a branch of the named project headed at the snapshot
// with id fromID, or at the active branch's head when fromID is empty, and
// activates it.
func (a *FolioApp) CreateBranch(projectName, name, fromID string) (*model.Branch, error) {
	project, err := a.service.Project(projectName)
	if err != nil {
		return nil, err
	}
	if err := a.persistOperation("project=" + project.Name + " branch=" + name); err != nil {
		return nil, err
	}
	if err := a.op.Record(a.history.Load(project)); err != nil {
		return nil, err
	}

	if fromID == "" {
		fromID = string(a.history.HeadSnapshotID())
		if fromID == "" {
			return nil, a.op.Record(fmt.Errorf("branch %s has no snapshots to branch from", a.history.ActiveBranch().Name))
		}
	}
	from, err := a.service.Snapshot(model.SnapshotID(fromID))
	if err != nil {
		return nil, a.op.Record(err)
	}

	branch, err := a.history.CreateBranch(from, name, project)
	return branch, a.op.Record(err)
}

// CheckoutBranch activates the named branch and restores its head. It
// returns the restored snapshot, or nil when the branch has no head.
func (a *FolioApp) CheckoutBranch(projectName, name string) (*model.Snapshot, error) {
	project, err := a.service.Project(projectName)
	if err != nil {
		return nil, err
	}
	branch, err := a.service.Branch(project, name)
	if err != nil {
		return nil, err
	}
	if err := a.persistOperation("project=" + project.Name + " branch=" + name); err != nil {
		return nil, err
	}
	if err := a.op.Record(a.history.Load(project)); err != nil {
		return nil, err
	}
	snapshot, err := a.history.CheckoutBranch(branch, project)
	return snapshot, a.op.Record(err)
}

// Operations returns the most recent recorded operations.
func (a *FolioApp) Operations(limit int) ([]*model.Operation, error) {
	return a.service.Operations(limit)
}

// Close finalizes the operation and closes all resources.
// For persisted operations: finishes the operation record, backs up the DB,
// encrypts the backup and uploads it to the vault.
// For non-persisted operations: just closes the database.
func (a *FolioApp) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.op.Persisted() {
		if err := a.db.FinishOperation(a.op.ID, a.op.Status); err != nil {
			keep(fmt.Errorf("finishing operation: %w", err))
		}

		// Snapshot the DB to a temp file. VACUUM INTO accepts an empty target.
		var tmpPath string
		tmpFile, err := os.CreateTemp("", "folio-db-backup-*.db")
		if err != nil {
			keep(fmt.Errorf("creating temp file for db backup: %w", err))
		} else {
			tmpPath = tmpFile.Name()
			tmpFile.Close()

			if err := a.db.BackupTo(tmpPath); err != nil {
				keep(fmt.Errorf("backing up database: %w", err))
				tmpPath = ""
			}
		}

		keep(a.closeDB())

		if tmpPath != "" {
			keep(a.uploadBackup(tmpPath, a.op.ID))
			os.Remove(tmpPath)
		}
	} else {
		keep(a.closeDB())
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

func (a *FolioApp) closeDB() error {
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// uploadBackup encrypts the database copy at path and uploads it to the
// vault as metadata with the given version.
func (a *FolioApp) uploadBackup(path string, version int64) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening db backup for upload: %w", err)
	}
	defer src.Close()

	enc, err := os.CreateTemp("", "folio-db-backup-*.age")
	if err != nil {
		return fmt.Errorf("creating temp file for encrypted backup: %w", err)
	}
	defer os.Remove(enc.Name())
	defer enc.Close()

	if err := a.encryptor.Encrypt(src, enc); err != nil {
		return fmt.Errorf("encrypting db backup: %w", err)
	}

	size, err := enc.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("sizing encrypted backup: %w", err)
	}
	if _, err := enc.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding encrypted backup: %w", err)
	}

	if err := a.vault.PutMetadata(a.cfg.HostID, dbMetadataName, enc, size, version); err != nil {
		return fmt.Errorf("uploading metadata to vault: %w", err)
	}

	a.logger.Info("database backup uploaded", "host", a.cfg.HostID, "version", version, "bytes", size)
	return nil
}
