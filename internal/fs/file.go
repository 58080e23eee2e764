package fs

import (
	"io"
	"os"
)

// File is the read surface a scan needs from its input: sequential and
// positional reads plus a size.
type File interface {
	io.ReadCloser
	io.ReaderAt
	Stat() (os.FileInfo, error)
}
