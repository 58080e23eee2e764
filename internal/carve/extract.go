package carve

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// CarvedFile is the record produced for every accepted candidate. It is
// immutable once constructed and owned by the caller after the scan
// returns.
type CarvedFile struct {
	Type       string
	Offset     uint64 // start offset in the source stream
	Size       uint64
	Hash       string // hex blake3 digest of the carved bytes
	Path       string // output location
	Confidence float64
	Metadata   map[string]string
}

// Confidence levels: footer-verified end boundaries are trusted more
// than structurally inferred or fallback-capped ones.
const (
	confidenceFooter   = 0.9
	confidenceInferred = 0.7
)

// extractor turns located headers into persisted, hashed, non-duplicate
// output files. One extractor instance holds the scan-local state (hash
// set, per-type counters) and must not be shared across concurrent
// scans.
type extractor struct {
	src     io.ReaderAt
	srcSize uint64
	dumpDir string
	logger  *slog.Logger

	seen   map[[32]byte]struct{}
	counts map[string]int
}

func newExtractor(src io.ReaderAt, srcSize uint64, dumpDir string, logger *slog.Logger) *extractor {
	return &extractor{
		src:     src,
		srcSize: srcSize,
		dumpDir: dumpDir,
		logger:  logger,
		seen:    make(map[[32]byte]struct{}),
		counts:  make(map[string]int),
	}
}

// Extract sizes, validates, hashes and persists the candidate. A false
// return means the candidate was dropped (failed validation, footer
// never found, or duplicate content); scanning continues either way.
// Hard source or output I/O failures are returned as errors.
func (e *extractor) Extract(c Candidate) (*CarvedFile, bool, error) {
	hdr := make([]byte, len(c.Sig.Header))
	if _, err := e.src.ReadAt(hdr, int64(c.Offset)); err != nil {
		if err != io.EOF {
			return nil, false, fmt.Errorf("failed to re-read header at offset %d: %w", c.Offset, err)
		}
		return nil, false, nil
	}
	if !bytes.Equal(hdr, c.Sig.Header) {
		// The source no longer matches what the scanner saw.
		return nil, false, nil
	}

	size, method, ok := determineSize(e.src, e.srcSize, c.Offset, c.Sig)
	if !ok || size == 0 {
		e.logger.Debug("no end boundary", "type", c.Sig.Type, "offset", c.Offset)
		return nil, false, nil
	}

	buf := make([]byte, size)
	n, err := e.src.ReadAt(buf, int64(c.Offset))
	if err != nil && err != io.EOF {
		return nil, false, fmt.Errorf("failed to read candidate at offset %d: %w", c.Offset, err)
	}
	buf = buf[:n]

	if !Validate(c.Sig, buf) {
		e.logger.Debug("validation failed", "type", c.Sig.Type, "offset", c.Offset, "size", len(buf))
		return nil, false, nil
	}

	sum := blake3.Sum256(buf)
	if _, dup := e.seen[sum]; dup {
		e.logger.Debug("duplicate content", "type", c.Sig.Type, "offset", c.Offset)
		return nil, false, nil
	}
	e.seen[sum] = struct{}{}

	hash := hex.EncodeToString(sum[:])

	seq := e.counts[c.Sig.Type]
	e.counts[c.Sig.Type]++

	name := fmt.Sprintf("%s_%d_%s.%s", c.Sig.Type, seq, hash[:8], c.Sig.Ext)
	path := filepath.Join(e.dumpDir, name)

	if err := writeFile(path, buf); err != nil {
		return nil, false, fmt.Errorf("failed to persist %q: %w", name, err)
	}

	confidence := confidenceInferred
	if method == SizingFooter {
		confidence = confidenceFooter
	}

	return &CarvedFile{
		Type:       c.Sig.Type,
		Offset:     c.Offset,
		Size:       uint64(len(buf)),
		Hash:       hash,
		Path:       path,
		Confidence: confidence,
		Metadata: map[string]string{
			"sizing": method,
		},
	}, true, nil
}

func writeFile(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, 1*MB)
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Flush()
}
