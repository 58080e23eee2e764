package carve

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Sizing methods, recorded in CarvedFile metadata and reflected in the
// confidence value.
const (
	SizingFooter     = "footer"
	SizingStructural = "structural"
	SizingFallback   = "fallback"
)

// fallbackWindow caps the bytes taken when neither a footer nor a
// structural size is available.
const fallbackWindow = 1 * MB

// footerSlabSize is the read granularity of the streamed footer search.
const footerSlabSize = 1 * MB

// determineSize computes the size of the candidate starting at off.
// Precedence: footer search when the signature defines one (no footer
// within the window means no file), then a type-specific structural
// read, then a fixed fallback window.
func determineSize(src io.ReaderAt, total, off uint64, sig FileSignature) (uint64, string, bool) {
	remaining := total - off

	if len(sig.Footer) > 0 {
		window := min(sig.MaxSize, remaining)
		end, found := findLastFooter(src, off, window, sig.Footer)
		if !found {
			return 0, "", false
		}
		// The footer tail may be cut off by the end of the stream or by
		// the size bound; a truncated trailer is the validator's
		// problem, not ours.
		size := min(end+uint64(sig.FooterTail), remaining, sig.MaxSize)
		return size, SizingFooter, true
	}

	if size, ok := structuralSize(src, off, sig); ok {
		if size > uint64(len(sig.Header)) && size <= sig.MaxSize && size <= remaining {
			return size, SizingStructural, true
		}
		// Implausible structural field (e.g. a page count pointing past
		// the end of the stream): fall through, never fatal.
	}

	return min(sig.MaxSize, fallbackWindow, remaining), SizingFallback, true
}

// findLastFooter searches the window [off, off+window) for the
// rightmost occurrence of footer, streaming the window in slabs rather
// than materializing it. It returns the end offset of the match
// relative to off.
//
// Picking the rightmost occurrence deliberately swallows any trailing
// nested same-type content into the outer file's envelope.
func findLastFooter(src io.ReaderAt, off, window uint64, footer []byte) (uint64, bool) {
	pad := len(footer) - 1
	slab := make([]byte, footerSlabSize+pad)

	var last uint64
	found := false

	for slabOff := uint64(0); slabOff < window; slabOff += footerSlabSize {
		// Each slab overlaps the next by pad bytes so a footer
		// straddling two slabs is still seen.
		want := min(uint64(len(slab)), window-slabOff)

		n, err := src.ReadAt(slab[:want], int64(off+slabOff))
		if n <= 0 {
			break
		}
		buf := slab[:n]

		local := 0
		for {
			i := bytes.Index(buf[local:], footer)
			if i < 0 {
				break
			}
			last = slabOff + uint64(local+i) + uint64(len(footer))
			found = true
			local += i + 1
		}

		if err != nil {
			break
		}
	}
	return last, found
}

// structuralSize reads the type-specific size field(s) near the header.
// A false return means the read failed or the type has no structural
// sizing, in which case the caller falls back to a fixed window.
func structuralSize(src io.ReaderAt, off uint64, sig FileSignature) (uint64, bool) {
	switch sig.Type {
	case "sqlite":
		return sqliteSize(src, off)
	case "mp4":
		return mp4Size(src, off, sig.MaxSize)
	case "webp":
		return riffSize(src, off)
	case "bmp":
		return bmpSize(src, off)
	}
	return 0, false
}

// sqliteSize derives the database size from the page-size and
// page-count fields of the 100-byte SQLite header. The page count is
// only trustworthy when the change counter matches the version-valid-for
// counter; see https://www.sqlite.org/fileformat2.html.
func sqliteSize(src io.ReaderAt, off uint64) (uint64, bool) {
	var hdr [100]byte
	if _, err := io.ReadFull(io.NewSectionReader(src, int64(off), 100), hdr[:]); err != nil {
		return 0, false
	}

	pageSize := uint64(binary.BigEndian.Uint16(hdr[16:18]))
	if pageSize == 1 {
		pageSize = 65536
	}
	if pageSize < 512 || pageSize > 65536 || pageSize&(pageSize-1) != 0 {
		return 0, false
	}

	changeCounter := binary.BigEndian.Uint32(hdr[24:28])
	pageCount := binary.BigEndian.Uint32(hdr[28:32])
	versionValidFor := binary.BigEndian.Uint32(hdr[92:96])

	if pageCount == 0 || changeCounter != versionValidFor {
		return 0, false
	}
	return uint64(pageCount) * pageSize, true
}

// mp4Size walks the top-level box chain of an ISO base media file,
// summing box sizes until a box header can no longer be read or looks
// corrupt. Box sizes are stored inline: a 32-bit big-endian length, or
// 1 followed by a 64-bit largesize.
func mp4Size(src io.ReaderAt, off, maxSize uint64) (uint64, bool) {
	var total uint64

	for total < maxSize {
		var hdr [16]byte
		n, err := src.ReadAt(hdr[:8], int64(off+total))
		if n < 8 {
			break
		}

		boxSize := uint64(binary.BigEndian.Uint32(hdr[:4]))
		if boxSize == 1 {
			if _, err := src.ReadAt(hdr[8:16], int64(off+total+8)); err != nil {
				break
			}
			boxSize = binary.BigEndian.Uint64(hdr[8:16])
			if boxSize < 16 {
				break
			}
		} else if boxSize < 8 {
			// A size of 0 means "extends to end of file", which is
			// unbounded from a carver's point of view; stop here.
			break
		}

		if !validBoxType(hdr[4:8]) {
			break
		}

		total += boxSize
		if err != nil {
			break
		}
	}

	if total == 0 {
		return 0, false
	}
	return total, true
}

func validBoxType(typ []byte) bool {
	for _, c := range typ {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == ' ' || c == '-') {
			return false
		}
	}
	return true
}

// riffSize reads the RIFF chunk length at offset 4; the total file size
// is that plus the 8-byte RIFF header itself.
func riffSize(src io.ReaderAt, off uint64) (uint64, bool) {
	var hdr [8]byte
	if _, err := src.ReadAt(hdr[:], int64(off)); err != nil {
		return 0, false
	}
	length := uint64(binary.LittleEndian.Uint32(hdr[4:8]))
	if length == 0 {
		return 0, false
	}
	return length + 8, true
}

// bmpSize reads the total file size field at offset 2 of the bitmap
// file header.
func bmpSize(src io.ReaderAt, off uint64) (uint64, bool) {
	var hdr [6]byte
	if _, err := src.ReadAt(hdr[:], int64(off)); err != nil {
		return 0, false
	}
	size := uint64(binary.LittleEndian.Uint32(hdr[2:6]))
	if size < 14 {
		// Smaller than the bitmap file header itself.
		return 0, false
	}
	return size, true
}
