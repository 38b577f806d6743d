package localfs

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// FreeBytes reports the free space of the filesystem backing the staging
// directory. Used as a submission precondition so a full disk fails fast
// instead of mid-upload.
func (s *Storage) FreeBytes() (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(s.basePath, &stat); err != nil {
		return 0, fmt.Errorf("statfs staging dir: %w", err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
