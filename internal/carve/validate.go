package carve

import (
	"bytes"
	"encoding/binary"
)

// validators holds the per-type structural checks, keyed by type tag.
// Types without an entry pass with only the generic checks.
var validators = map[string]func(buf []byte) bool{
	"jpeg":   validateJPEG,
	"png":    validatePNG,
	"sqlite": validateSQLite,
	"webp":   validateWebP,
	"mp4":    validateMP4,
	"bmp":    validateBMP,
}

// Validate applies the generic and type-specific sanity checks to a
// carved candidate buffer. A false return silently drops the candidate;
// it is never an error.
func Validate(sig FileSignature, buf []byte) bool {
	if len(buf) < len(sig.Header) {
		return false
	}
	if !bytes.HasPrefix(buf, sig.Header) {
		return false
	}

	if check, ok := validators[sig.Type]; ok {
		return check(buf)
	}
	return true
}

// validateJPEG requires the End Of Image marker at the tail when the
// buffer is long enough to hold more than the bare SOI/EOI pair.
func validateJPEG(buf []byte) bool {
	if len(buf) < 4 {
		return true
	}
	return buf[len(buf)-2] == 0xFF && buf[len(buf)-1] == 0xD9
}

// validatePNG requires the mandatory IHDR chunk tag right after the
// 8-byte magic and the 4-byte chunk length, i.e. within the first 24
// bytes.
func validatePNG(buf []byte) bool {
	n := min(24, len(buf))
	return bytes.Contains(buf[:n], []byte("IHDR"))
}

func validateSQLite(buf []byte) bool {
	return len(buf) >= len(SQLiteMagic) &&
		string(buf[:len(SQLiteMagic)]) == SQLiteMagic
}

// validateWebP disambiguates the generic RIFF container header: only
// the WEBP form type is ours, everything else (WAV, AVI, ...) is
// rejected.
func validateWebP(buf []byte) bool {
	return len(buf) >= 12 && string(buf[8:12]) == "WEBP"
}

func validateMP4(buf []byte) bool {
	return len(buf) >= 8 && string(buf[4:8]) == "ftyp"
}

// validateBMP requires the embedded file-size field to be at least the
// 14-byte bitmap file header.
func validateBMP(buf []byte) bool {
	return len(buf) >= 6 && binary.LittleEndian.Uint32(buf[2:6]) >= 14
}
