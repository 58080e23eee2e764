package carve

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// DefaultChunkSize is the read granularity of a scan.
const DefaultChunkSize = 1 * MB

// Candidate is a header occurrence located in the source stream,
// pending sizing and validation.
type Candidate struct {
	Offset uint64 // global offset of the header in the source
	Sig    FileSignature
}

// Scanner locates every offset in a source at which some registered
// header occurs, exactly once each, regardless of how the source is
// chunked for reading.
type Scanner struct {
	reg       *Registry
	chunkSize int
	logger    *slog.Logger

	// tail carries the final MaxHeaderLen bytes of the previous chunk
	// so that headers straddling a chunk boundary are still found. It
	// is owned by a single Scan invocation.
	tail []byte

	// err records the first read failure of the current Scan.
	err error
}

func NewScanner(logger *slog.Logger, reg *Registry, chunkSize int) *Scanner {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Scanner{
		reg:       reg,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Scan reads the source in fixed-size chunks and yields every header
// occurrence as a Candidate. Each occurrence is reported exactly once:
// a match whose bytes end inside the already-scanned region is a
// re-sighting through the retained tail and is suppressed.
//
// Yield order: within one search buffer, header-length groups longest
// first, ascending offset inside a group; across buffers, ascending
// stream position. Callers must not rely on a globally monotonic offset
// order across different header lengths.
func (sc *Scanner) Scan(r io.ReaderAt, size uint64) func(yield func(Candidate) bool) {
	return func(yield func(Candidate) bool) {
		overlap := sc.reg.MaxHeaderLen()
		if overlap == 0 {
			return
		}

		chunk := make([]byte, sc.chunkSize)
		searchBuf := make([]byte, 0, sc.chunkSize+overlap)

		sc.tail = sc.tail[:0]
		sc.err = nil

		var pos uint64        // next stream read position
		var scannedEnd uint64 // global offset up to which matches were already reported

		for pos < size {
			n, err := r.ReadAt(chunk, int64(pos))
			if n == 0 {
				if err != nil && err != io.EOF {
					sc.fail(pos, err)
				}
				return
			}
			if rem := size - pos; uint64(n) > rem {
				n = int(rem)
			}

			searchBuf = append(searchBuf[:0], sc.tail...)
			searchBuf = append(searchBuf, chunk[:n]...)
			bufStart := pos - uint64(len(sc.tail))

			for _, group := range sc.reg.groups {
				for _, cand := range sc.matchGroup(group, searchBuf, bufStart, scannedEnd) {
					if !yield(cand) {
						return
					}
				}
			}

			scannedEnd = bufStart + uint64(len(searchBuf))
			pos += uint64(n)

			keep := min(overlap, len(searchBuf))
			sc.tail = append(sc.tail[:0], searchBuf[len(searchBuf)-keep:]...)

			if err != nil {
				if err != io.EOF {
					sc.fail(pos-uint64(n), err)
				}
				return
			}
		}
	}
}

func (sc *Scanner) fail(off uint64, err error) {
	sc.err = fmt.Errorf("read at offset %d failed: %w", off, err)
	sc.logger.Error("chunk read failed", "offset", off, "err", err)
}

// Err reports the read failure that terminated the previous Scan, if
// any. A scan that hits one still yields the candidates found up to the
// failure; Err is how callers tell that apart from a clean end of
// stream.
func (sc *Scanner) Err() error {
	return sc.err
}

// matchGroup collects every occurrence of every header in a single
// length group, sorted by ascending global offset. Occurrences ending
// at or before scannedEnd were already reported from a previous search
// buffer.
func (sc *Scanner) matchGroup(group signatureGroup, buf []byte, bufStart, scannedEnd uint64) []Candidate {
	var matches []Candidate

	for _, sig := range group.sigs {
		off := 0
		for {
			i := bytes.Index(buf[off:], sig.Header)
			if i < 0 {
				break
			}
			gOff := bufStart + uint64(off+i)
			if gOff+uint64(len(sig.Header)) > scannedEnd {
				matches = append(matches, Candidate{Offset: gOff, Sig: sig})
			}
			off += i + 1
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Offset < matches[j].Offset
	})
	return matches
}
