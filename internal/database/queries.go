package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"folio/internal/model"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the SQL for every table. Use WithTx to run the same queries
// inside a transaction.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Projects

const projectColumns = `id, name, description, created_at, updated_at, active_branch_id`

func scanProject(row rowScanner) (*model.Project, error) {
	var p model.Project
	var active sql.NullString
	if err := row.Scan((*string)(&p.ID), &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &active); err != nil {
		return nil, err
	}
	p.ActiveBranchID = model.BranchID(active.String)
	return &p, nil
}

func (q *Queries) GetProjectByID(ctx context.Context, id model.ProjectID) (*model.Project, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, string(id))
	return scanProject(row)
}

func (q *Queries) GetProjectByName(ctx context.Context, name string) (*model.Project, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE name = ? ORDER BY created_at, rowid LIMIT 1`, name)
	return scanProject(row)
}

func (q *Queries) ListProjects(ctx context.Context) ([]*model.Project, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY name COLLATE NOCASE, created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (q *Queries) InsertProject(ctx context.Context, p *model.Project) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		string(p.ID), p.Name, p.Description, p.CreatedAt, p.UpdatedAt, nullString(string(p.ActiveBranchID)))
	return err
}

func (q *Queries) UpdateProject(ctx context.Context, p *model.Project) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, updated_at = ?, active_branch_id = ? WHERE id = ?`,
		p.Name, p.Description, p.UpdatedAt, nullString(string(p.ActiveBranchID)), string(p.ID))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) TouchProject(ctx context.Context, id model.ProjectID, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, `UPDATE projects SET updated_at = ? WHERE id = ?`, updatedAt, string(id))
	return err
}

// Content columns are shared by documents and snapshot_documents.

const contentColumns = `title, document_type, rich_text, plain_text, word_count,
	paper_size, margin_top, margin_bottom, margin_left, margin_right,
	line_spacing, paragraph_spacing_before, paragraph_spacing, first_line_indent,
	body_font_name, body_font_size, body_alignment,
	hyphenation_enabled, include_page_numbers, include_table_of_contents`

const contentPlaceholders = `?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?`

func contentArgs(c *model.Content) []any {
	return []any{
		c.Title, c.DocumentType, c.RichText, c.PlainText, c.WordCount,
		c.PaperSize, c.MarginTop, c.MarginBottom, c.MarginLeft, c.MarginRight,
		c.LineSpacing, c.ParagraphSpacingBefore, c.ParagraphSpacing, c.FirstLineIndent,
		c.BodyFontName, c.BodyFontSize, c.BodyAlignment,
		c.HyphenationEnabled, c.IncludePageNumbers, c.IncludeTableOfContents,
	}
}

func contentDest(c *model.Content) []any {
	return []any{
		&c.Title, &c.DocumentType, &c.RichText, &c.PlainText, &c.WordCount,
		&c.PaperSize, &c.MarginTop, &c.MarginBottom, &c.MarginLeft, &c.MarginRight,
		&c.LineSpacing, &c.ParagraphSpacingBefore, &c.ParagraphSpacing, &c.FirstLineIndent,
		&c.BodyFontName, &c.BodyFontSize, &c.BodyAlignment,
		&c.HyphenationEnabled, &c.IncludePageNumbers, &c.IncludeTableOfContents,
	}
}

// Documents

const documentColumns = `id, project_id, created_at, updated_at, ` + contentColumns

func scanDocument(row rowScanner) (*model.Document, error) {
	var d model.Document
	var projectID sql.NullString
	dest := append([]any{(*string)(&d.ID), &projectID, &d.CreatedAt, &d.UpdatedAt}, contentDest(&d.Content)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	d.ProjectID = model.ProjectID(projectID.String)
	return &d, nil
}

func (q *Queries) GetDocumentByID(ctx context.Context, id model.DocumentID) (*model.Document, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, string(id))
	return scanDocument(row)
}

func (q *Queries) ListDocumentsByProject(ctx context.Context, projectID model.ProjectID) ([]*model.Document, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE project_id = ? ORDER BY created_at, rowid`, string(projectID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (q *Queries) InsertDocument(ctx context.Context, d *model.Document) error {
	args := append([]any{string(d.ID), nullString(string(d.ProjectID)), d.CreatedAt, d.UpdatedAt}, contentArgs(&d.Content)...)
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, `+contentPlaceholders+`)`, args...)
	return err
}

func (q *Queries) UpdateDocument(ctx context.Context, d *model.Document) (int64, error) {
	args := append([]any{nullString(string(d.ProjectID)), d.UpdatedAt}, contentArgs(&d.Content)...)
	args = append(args, string(d.ID))
	res, err := q.db.ExecContext(ctx, `UPDATE documents SET
		project_id = ?, updated_at = ?,
		title = ?, document_type = ?, rich_text = ?, plain_text = ?, word_count = ?,
		paper_size = ?, margin_top = ?, margin_bottom = ?, margin_left = ?, margin_right = ?,
		line_spacing = ?, paragraph_spacing_before = ?, paragraph_spacing = ?, first_line_indent = ?,
		body_font_name = ?, body_font_size = ?, body_alignment = ?,
		hyphenation_enabled = ?, include_page_numbers = ?, include_table_of_contents = ?
		WHERE id = ?`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Branches

const branchColumns = `id, project_id, name, created_at, is_default, head_snapshot_id`

func scanBranch(row rowScanner) (*model.Branch, error) {
	var b model.Branch
	var head sql.NullString
	if err := row.Scan((*string)(&b.ID), (*string)(&b.ProjectID), &b.Name, &b.CreatedAt, &b.IsDefault, &head); err != nil {
		return nil, err
	}
	b.HeadSnapshotID = model.SnapshotID(head.String)
	return &b, nil
}

func (q *Queries) GetBranchByID(ctx context.Context, id model.BranchID) (*model.Branch, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+branchColumns+` FROM branches WHERE id = ?`, string(id))
	return scanBranch(row)
}

func (q *Queries) ListBranchesByProject(ctx context.Context, projectID model.ProjectID) ([]*model.Branch, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+branchColumns+` FROM branches WHERE project_id = ? ORDER BY created_at, rowid`, string(projectID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []*model.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func (q *Queries) InsertBranch(ctx context.Context, b *model.Branch) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO branches (`+branchColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		string(b.ID), string(b.ProjectID), b.Name, b.CreatedAt, b.IsDefault, nullString(string(b.HeadSnapshotID)))
	return err
}

func (q *Queries) UpdateBranchHead(ctx context.Context, id model.BranchID, head model.SnapshotID) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE branches SET head_snapshot_id = ? WHERE id = ?`, nullString(string(head)), string(id))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Snapshots

const snapshotColumns = `id, project_id, label, created_at, trigger_type, word_count, page_count, preview_image_path, parent_snapshot_id`

func scanSnapshot(row rowScanner) (*model.Snapshot, error) {
	var s model.Snapshot
	var preview, parent sql.NullString
	if err := row.Scan((*string)(&s.ID), (*string)(&s.ProjectID), &s.Label, &s.CreatedAt, &s.TriggerType,
		&s.WordCount, &s.PageCount, &preview, &parent); err != nil {
		return nil, err
	}
	s.PreviewImagePath = preview.String
	s.ParentSnapshotID = model.SnapshotID(parent.String)
	return &s, nil
}

func (q *Queries) GetSnapshotByID(ctx context.Context, id model.SnapshotID) (*model.Snapshot, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`, string(id))
	return scanSnapshot(row)
}

func (q *Queries) ListSnapshotsByProject(ctx context.Context, projectID model.ProjectID) ([]*model.Snapshot, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots WHERE project_id = ? ORDER BY created_at, rowid`, string(projectID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*model.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

func (q *Queries) InsertSnapshot(ctx context.Context, s *model.Snapshot) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO snapshots (`+snapshotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(s.ID), string(s.ProjectID), s.Label, s.CreatedAt, s.TriggerType, s.WordCount, s.PageCount,
		nullString(s.PreviewImagePath), nullString(string(s.ParentSnapshotID)))
	return err
}

// Snapshot documents

const snapshotDocumentColumns = `id, snapshot_id, document_id, ` + contentColumns

func scanSnapshotDocument(row rowScanner) (*model.SnapshotDocument, error) {
	var sd model.SnapshotDocument
	dest := append([]any{&sd.ID, (*string)(&sd.SnapshotID), (*string)(&sd.DocumentID)}, contentDest(&sd.Content)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &sd, nil
}

func (q *Queries) ListSnapshotDocuments(ctx context.Context, snapshotID model.SnapshotID) ([]*model.SnapshotDocument, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+snapshotDocumentColumns+` FROM snapshot_documents WHERE snapshot_id = ? ORDER BY position`, string(snapshotID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []*model.SnapshotDocument{}
	for rows.Next() {
		sd, err := scanSnapshotDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, sd)
	}
	return docs, rows.Err()
}

func (q *Queries) InsertSnapshotDocument(ctx context.Context, sd *model.SnapshotDocument, position int) error {
	args := append([]any{sd.ID, string(sd.SnapshotID), string(sd.DocumentID)}, contentArgs(&sd.Content)...)
	args = append(args, position)
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO snapshot_documents (`+snapshotDocumentColumns+`, position) VALUES (?, ?, ?, `+contentPlaceholders+`, ?)`,
		args...)
	return err
}

// Operations

const operationColumns = `id, operation, parameters, started_at, finished_at, status`

func scanOperation(row rowScanner) (*model.Operation, error) {
	var op model.Operation
	var finished sql.NullTime
	if err := row.Scan(&op.ID, &op.Operation, &op.Parameters, &op.StartedAt, &finished, &op.Status); err != nil {
		return nil, err
	}
	if finished.Valid {
		op.FinishedAt = &finished.Time
	}
	return &op, nil
}

func (q *Queries) InsertOperation(ctx context.Context, operation, parameters string, startedAt time.Time) (*model.Operation, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO operations (operation, parameters, started_at) VALUES (?, ?, ?) RETURNING `+operationColumns,
		operation, parameters, startedAt)
	return scanOperation(row)
}

func (q *Queries) FinishOperation(ctx context.Context, id int64, status string, finishedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE operations SET finished_at = ?, status = ? WHERE id = ?`, finishedAt, status, id)
	return err
}

func (q *Queries) ListOperations(ctx context.Context, limit int64) ([]*model.Operation, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+operationColumns+` FROM operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ops []*model.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func (q *Queries) GetMaxOperationID(ctx context.Context) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM operations`).Scan(&id)
	return id, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// notFound maps sql.ErrNoRows to a nil result, leaving other errors wrapped.
func notFound[T any](v *T, err error, what string) (*T, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding %s: %w", what, err)
	}
	return v, nil
}
