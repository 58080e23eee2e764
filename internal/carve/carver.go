package carve

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	recfs "github.com/recoup-dev/recoup/internal/fs"
	"github.com/recoup-dev/recoup/internal/mmap"
)

// Options configures a Carver.
type Options struct {
	// ChunkSize is the scan read granularity. Defaults to 1MB.
	ChunkSize int

	// Types restricts matching to the given type tags for every scan
	// made with this carver. Empty means all registered types.
	Types []string

	// Signatures are caller-supplied signatures registered in addition
	// to the built-in table.
	Signatures []FileSignature

	// Logger receives per-candidate scan details. Defaults to a
	// discarding logger.
	Logger *slog.Logger
}

// Carver recovers embedded or deleted files from raw byte streams by
// signature matching. One Carver may serve many sequential scans; each
// scan owns its own mutable state. Concurrent scans must not share an
// output directory, since output naming is only collision-free within
// one scan's counters.
type Carver struct {
	reg       *Registry
	outDir    string
	chunkSize int
	logger    *slog.Logger
}

func New(outputDir string, opts Options) (*Carver, error) {
	sigs := append(DefaultSignatures(), opts.Signatures...)

	reg := NewRegistry(sigs...)
	if len(opts.Types) > 0 {
		var err error
		reg, err = reg.Filter(opts.Types...)
		if err != nil {
			return nil, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %q: %w", outputDir, err)
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &Carver{
		reg:       reg,
		outDir:    outputDir,
		chunkSize: chunkSize,
		logger:    logger,
	}, nil
}

// Registry exposes the signature catalog this carver scans for.
func (c *Carver) Registry() *Registry {
	return c.reg
}

// Scan opens the file or raw device at path and recovers every
// recognizable embedded file into the output directory. The optional
// type tags restrict matching for this call only. A missing or
// unreadable path is an explicit error, distinct from a scan that
// simply finds nothing.
func (c *Carver) Scan(path string, types ...string) ([]CarvedFile, error) {
	// Fast path: map the input read-only and scan it in place.
	if m, err := mmap.Open(path); err == nil {
		defer m.Close()
		return c.scan(bytes.NewReader(m.Data), uint64(len(m.Data)), types)
	}

	f, err := recfs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	finfo, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	return c.scan(f, uint64(finfo.Size()), types)
}

// ScanBuffer is Scan over an in-memory byte buffer.
func (c *Carver) ScanBuffer(buf []byte, types ...string) ([]CarvedFile, error) {
	return c.scan(bytes.NewReader(buf), uint64(len(buf)), types)
}

// ScanImages restricts a path scan to image types.
func (c *Carver) ScanImages(path string) ([]CarvedFile, error) {
	return c.Scan(path, ImageTypes...)
}

func (c *Carver) scan(r io.ReaderAt, size uint64, types []string) ([]CarvedFile, error) {
	reg, err := c.reg.Filter(types...)
	if err != nil {
		return nil, err
	}

	sc := NewScanner(c.logger, reg, c.chunkSize)
	ex := newExtractor(r, size, c.outDir, c.logger)

	files := []CarvedFile{}
	for cand := range sc.Scan(r, size) {
		cf, ok, err := ex.Extract(cand)
		if err != nil {
			return files, err
		}
		if ok {
			c.logger.Info("recovered file",
				"type", cf.Type,
				"offset", cf.Offset,
				"size", cf.Size,
				"sizing", cf.Metadata["sizing"],
			)
			files = append(files, *cf)
		}
	}
	// A read failure mid-scan must not pass for a clean end of stream.
	if err := sc.Err(); err != nil {
		return files, err
	}
	return files, nil
}

// WalkFunc observes each file visited by ScanDirectory after it has
// been scanned (or skipped).
type WalkFunc func(path string, size int64, scanned bool, recovered int)

// ScanDirectory walks a directory tree and applies Scan to every file
// the eligibility heuristic selects, returning the total number of
// recovered files. The context is checked between files, which is the
// walker's only yield and cancellation point; a single file scan is not
// preemptible. Per-file scan failures are logged and skipped; only
// walk-level I/O failures abort the batch.
func (c *Carver) ScanDirectory(ctx context.Context, sourceDir string, walkFn WalkFunc) (int, error) {
	total := 0

	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		finfo, err := d.Info()
		if err != nil {
			return err
		}

		if !eligible(path, finfo.Size()) {
			if walkFn != nil {
				walkFn(path, finfo.Size(), false, 0)
			}
			return nil
		}

		files, err := c.Scan(path)
		if err != nil {
			c.logger.Warn("skipping unreadable file", "path", path, "err", err)
			return nil
		}
		total += len(files)

		if walkFn != nil {
			walkFn(path, finfo.Size(), true, len(files))
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	return total, nil
}

// largeFileThreshold marks files worth scanning regardless of their
// extension: big opaque blobs are where deleted content hides.
const largeFileThreshold = 10 * MB

// carveExts are extensions that commonly wrap other files: databases,
// raw dumps and generic binary blobs.
var carveExts = map[string]bool{
	".db":       true,
	".sqlite":   true,
	".sqlite3":  true,
	".sqlitedb": true,
	".raw":      true,
	".bin":      true,
	".img":      true,
	".dd":       true,
	".dat":      true,
	".blob":     true,
	".mddata":   true,
}

// mediaDirs are well-known media folder names whose contents are
// scanned regardless of size or extension.
var mediaDirs = map[string]bool{
	"DCIM":        true,
	"Camera":      true,
	"Media":       true,
	"Pictures":    true,
	"Photos":      true,
	"Attachments": true,
}

func eligible(path string, size int64) bool {
	if size == 0 {
		return false
	}
	if carveExts[strings.ToLower(filepath.Ext(path))] {
		return true
	}
	if size >= largeFileThreshold {
		return true
	}
	dir := filepath.Dir(path)
	for dir != "" {
		base := filepath.Base(dir)
		if mediaDirs[base] {
			return true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return false
}
