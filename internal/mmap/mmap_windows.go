//go:build windows
// +build windows

package mmap

import "fmt"

// File is a read-only memory mapping of a whole file.
type File struct {
	Data []byte
}

// Open always fails on windows; scans go through the fs.Open read path
// instead.
func Open(path string) (*File, error) {
	return nil, fmt.Errorf("mmap is not supported on windows")
}

func (m *File) Close() error { return nil }
