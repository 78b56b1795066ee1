package download

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
)

// The sidecar has no magic or checksum: it is advisory. A corrupt or
// partially-written sidecar simply triggers a full redownload rather than
// a parse error.
const metadataSuffix = ".metadata"

func metadataPath(path string) string {
	return path + metadataSuffix
}

// getLocalVersion reads the 8-byte little-endian version tag next to path.
// Absence or any read error is treated as version 0, never as a failure.
func getLocalVersion(path string) int64 {
	f, err := os.Open(metadataPath(path))
	if err != nil {
		return 0
	}
	defer f.Close()

	var buf [8]byte
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

// saveLocalVersion persists v as the effective remote version for path,
// creating the parent directory if necessary.
func saveLocalVersion(path string, v int64) error {
	metaPath := metadataPath(path)
	if dir := filepath.Dir(metaPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return newErr(ErrFileWrite, err)
		}
	}

	f, err := os.OpenFile(metaPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return newErr(ErrFileWrite, err)
	}
	defer f.Close()

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	if _, err := f.Write(buf[:]); err != nil {
		return newErr(ErrFileWrite, err)
	}
	return nil
}

// deleteMetadata removes the sidecar. A missing file is not an error.
func deleteMetadata(path string) error {
	if err := os.Remove(metadataPath(path)); err != nil && !os.IsNotExist(err) {
		return newErr(ErrDeleteFile, err)
	}
	return nil
}
