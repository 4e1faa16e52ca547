//go:build !unix

package deps

import (
	"fmt"
	"os"
)

// CheckWritableDir reports whether path exists as a directory.
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
	status.Available = true
	status.Path = path
	return status
}
