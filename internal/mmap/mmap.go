//go:build !windows
// +build !windows

package mmap

import (
	"fmt"
	"os"
	"syscall"
)

// File is a read-only memory mapping of a whole file.
type File struct {
	Data []byte
	f    *os.File
}

// Open maps the file at path read-only. Empty files and raw devices
// (whose size cannot be mapped) return an error; callers fall back to
// plain reads.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	size := fi.Size()
	if size <= 0 || int64(int(size)) != size {
		f.Close()
		return nil, fmt.Errorf("cannot mmap %q (size %d)", path, size)
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to mmap %q: %w", path, err)
	}

	return &File{Data: data, f: f}, nil
}

// Close unmaps the region and closes the underlying file.
func (m *File) Close() error {
	var err error
	if m.Data != nil {
		err = syscall.Munmap(m.Data)
		m.Data = nil
	}
	if m.f != nil {
		if cerr := m.f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		m.f = nil
	}
	return err
}
