// Package fileid derives deterministic identifiers for ingested documents.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const (
	pathPrefix    = "file:"
	contentPrefix = "sha256:"
)

// PathID returns a stable ID for the given absolute path.
// Same path always yields the same ID. The watcher keys pending ingests by it.
func PathID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return pathPrefix + hex.EncodeToString(hash[:])
}

// ContentID returns a stable ID for document bytes. Chunks carry it as their source ID,
// and identical uploads share it regardless of file name.
func ContentID(data []byte) string {
	hash := sha256.Sum256(data)
	return contentPrefix + hex.EncodeToString(hash[:16])
}
