package vault

import (
	"fmt"
	"path"
	"strings"
)

// validateKey rejects object keys that are empty, absolute, or escape the
// vault root.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("object key must not be empty")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return fmt.Errorf("invalid object key: %q", key)
	}
	if path.Clean(key) != key || key == ".." || strings.HasPrefix(key, "../") {
		return fmt.Errorf("invalid object key: %q", key)
	}
	return nil
}

// metadataKey returns the storage key for a host/name pair.
func metadataKey(hostID, name string) string {
	return hostID + "/" + name
}
