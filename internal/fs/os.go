//go:build !windows
// +build !windows

package fs

import "os"

// Open opens a regular file or raw device for reading. On unix both go
// through the ordinary file API.
func Open(path string) (File, error) {
	return os.Open(path)
}
