//go:build !linux
// +build !linux

package fuse

import (
	"fmt"
	"io"
)

type Entry struct {
	Name   string
	Offset uint64
	Size   uint64
}

func Mount(mountpoint string, r io.ReaderAt, entries []Entry) error {
	return fmt.Errorf("FUSE mount is only supported on Linux")
}
