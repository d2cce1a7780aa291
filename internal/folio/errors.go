package folio

import "errors"

var (
	ErrProjectNotFound         = errors.New("project not found")
	ErrBranchNotFound          = errors.New("branch not found")
	ErrSnapshotNotFound        = errors.New("snapshot not found")
	ErrDocumentNotFound        = errors.New("document not found")
	ErrInvalidBranchName       = errors.New("branch name must not be empty")
	ErrSnapshotProjectMismatch = errors.New("snapshot belongs to another project")
	ErrBranchProjectMismatch   = errors.New("branch belongs to another project")
	ErrObjectNotFound          = errors.New("object not found in vault")
)
