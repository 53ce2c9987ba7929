package orchestrator

import "syscall"

// diskFreeMB reports free space, in megabytes, for the filesystem backing
// path, the Go equivalent of shutil.disk_usage's free field.
func diskFreeMB(path string) (float64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	freeBytes := float64(stat.Bavail) * float64(stat.Bsize)
	return freeBytes / (1024 * 1024), nil
}
