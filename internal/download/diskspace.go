package download

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/disk"
)

// checkFreeSpace is a best-effort preflight: it never fails a job over its
// own inability to determine free space, only over a confirmed shortfall.
// Called once with chunk_size as the minimum before HEAD, and once more with
// the exact remote length once HEAD returns it.
func checkFreeSpace(path string, required uint64) error {
	if required == 0 {
		return nil
	}
	usage, err := disk.Usage(existingAncestor(path))
	if err != nil {
		return nil
	}
	if usage.Free < required {
		return newConfigErr(fmt.Sprintf("insufficient free space at %s: need %d bytes, %d available", path, required, usage.Free))
	}
	return nil
}

// existingAncestor walks up from path's directory to the nearest ancestor
// that already exists, since disk.Usage requires a real mount point and the
// destination's parent directories may not be created yet.
func existingAncestor(path string) string {
	dir := filepath.Dir(path)
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
