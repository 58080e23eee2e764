package carve_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
)

// Synthetic but structurally valid fixtures for every supported type.
// Fill bytes are chosen so that no fixture accidentally contains
// another type's header or footer.

func makeJPEG(fill byte, payloadLen int) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	buf.Write(bytes.Repeat([]byte{fill}, payloadLen))
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}

func makePNG(fill byte, payloadLen int) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A})
	buf.Write([]byte{0x00, 0x00, 0x00, 0x0D})
	buf.WriteString("IHDR")
	buf.Write(bytes.Repeat([]byte{fill}, 13)) // IHDR payload
	buf.Write([]byte{0x1A, 0x2B, 0x3C, 0x4D}) // chunk crc, unchecked
	buf.Write(bytes.Repeat([]byte{fill}, payloadLen))
	buf.Write([]byte{0x00, 0x00, 0x00, 0x00, 'I', 'E', 'N', 'D', 0xAE, 0x42, 0x60, 0x82})
	return buf.Bytes()
}

func makeGIF(fill byte, payloadLen int) []byte {
	var buf bytes.Buffer
	buf.WriteString("GIF89a")
	buf.Write(bytes.Repeat([]byte{fill}, payloadLen))
	buf.Write([]byte{0x00, 0x3B})
	return buf.Bytes()
}

func makePDF(body string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	buf.WriteString(body)
	buf.WriteString("\n%%EOF")
	return buf.Bytes()
}

func makeZIP(fill byte, payloadLen int) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{'P', 'K', 0x03, 0x04})
	buf.Write(bytes.Repeat([]byte{fill}, payloadLen))
	buf.Write([]byte{'P', 'K', 0x05, 0x06})
	buf.Write(make([]byte, 18)) // EOCD remainder, empty comment
	return buf.Bytes()
}

func makeSQLite(fill byte) []byte {
	const pageSize = 512
	const pageCount = 2

	db := bytes.Repeat([]byte{fill}, pageSize*pageCount)
	copy(db, []byte("SQLite format 3\x00"))
	binary.BigEndian.PutUint16(db[16:18], pageSize)
	binary.BigEndian.PutUint32(db[24:28], 7) // change counter
	binary.BigEndian.PutUint32(db[28:32], pageCount)
	binary.BigEndian.PutUint32(db[92:96], 7) // version-valid-for
	return db
}

func makeBMP(totalSize int) []byte {
	img := make([]byte, totalSize)
	img[0], img[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(img[2:6], uint32(totalSize))
	return img
}

func makeWebP(fill byte, payloadLen int) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(4+payloadLen)) // WEBP tag + payload
	buf.Write(size[:])
	buf.WriteString("WEBP")
	buf.Write(bytes.Repeat([]byte{fill}, payloadLen))
	return buf.Bytes()
}

func makeMP4() []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x00, 0x00, 0x18})
	buf.WriteString("ftyp")
	buf.WriteString("isom")
	buf.Write([]byte{0x00, 0x00, 0x02, 0x00})
	buf.WriteString("iso2avc1")
	buf.Write([]byte{0x00, 0x00, 0x00, 0x10})
	buf.WriteString("free")
	buf.Write(make([]byte, 8))
	return buf.Bytes()
}

// pad returns n filler bytes that match no registered header or footer.
func pad(n int) []byte {
	return bytes.Repeat([]byte{'A'}, n)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
