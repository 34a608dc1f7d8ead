package storage

import (
	"fmt"
	"os"
)

// sqliteSidecars are the files SQLite keeps next to a database in WAL mode.
var sqliteSidecars = []string{"-wal", "-shm", "-journal"}

// DiskUsageBytes sums the on-disk size of the keyword database and vector index files,
// including each file's SQLite sidecars. Empty and missing paths count as zero.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		for _, name := range append([]string{p}, sidecarNames(p)...) {
			n, err := fileSize(name)
			if err != nil {
				return 0, err
			}
			total += n
		}
	}
	return total, nil
}

func sidecarNames(p string) []string {
	out := make([]string, len(sqliteSidecars))
	for i, s := range sqliteSidecars {
		out[i] = p + s
	}
	return out
}

func fileSize(name string) (int64, error) {
	info, err := os.Stat(name)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", name)
	}
	return info.Size(), nil
}
