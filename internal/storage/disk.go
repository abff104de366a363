package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// SnapshotBytes returns the on-disk size of a local snapshot, including SQLite's WAL and
// shared-memory files. Remote stores report 0.
func SnapshotBytes(store SnapshotStore) (int64, error) {
	switch s := store.(type) {
	case *JSONSnapshotStore:
		return DiskUsageBytes(s.path)
	case *SQLiteSnapshotStore:
		return DiskUsageBytes(s.path, s.path+"-wal", s.path+"-shm")
	default:
		return 0, nil
	}
}

// DiskUsageBytes sums the sizes of files and directory trees. Missing paths count as 0.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			total += fi.Size()
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
