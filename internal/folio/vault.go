package folio

import "io"

// Vault provides an interface for blob storage backends. It holds rendered
// snapshot previews and encrypted database backups.
// All operations use io.Reader/io.Writer for streaming.
type Vault interface {
	// PutObject stores a blob under key, replacing any previous value.
	// Keys are slash-separated relative paths such as "previews/<id>.png".
	// size is the number of bytes that will be read from r.
	PutObject(key string, r io.Reader, size int64) error

	// GetObject retrieves the blob stored under key and writes it to w.
	// Returns an error wrapping ErrObjectNotFound if nothing is stored there.
	GetObject(key string, w io.Writer) error

	// DeleteObject removes the blob stored under key. Deleting a missing
	// key is not an error.
	DeleteObject(key string) error

	// PutMetadata stores a named metadata item for a specific host.
	// size is the number of bytes that will be read from r.
	// version is stored alongside the metadata for consistency checks.
	// Known names: "db" (encrypted SQLite backup).
	PutMetadata(hostID string, name string, r io.Reader, size int64, version int64) error

	// GetMetadata retrieves a named metadata item for a specific host and writes it to w.
	GetMetadata(hostID string, name string, w io.Writer) error

	// GetMetadataVersion returns the metadata version for a named item on a host.
	// Returns 0 if no metadata has been stored for this host/name.
	GetMetadataVersion(hostID string, name string) (int64, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
