//go:build unix

package deps

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// CheckWritableDir reports whether path exists as a directory the current
// user may create entries in.
func CheckWritableDir(name, path string) Status {
	status := Status{Name: name, Command: path, Description: "Writable directory"}
	info, err := os.Stat(path)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	if !info.IsDir() {
		status.Detail = fmt.Sprintf("%s is not a directory", path)
		return status
	}
	if err := unix.Access(path, unix.W_OK|unix.X_OK); err != nil {
		status.Detail = fmt.Sprintf("not writable: %v", err)
		return status
	}
	status.Available = true
	status.Path = path
	return status
}
