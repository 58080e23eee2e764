package carve_test

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/recoup-dev/recoup/internal/carve"
	"github.com/stretchr/testify/require"
)

func newCarver(t *testing.T, opts carve.Options) *carve.Carver {
	t.Helper()

	c, err := carve.New(t.TempDir(), opts)
	require.NoError(t, err)
	return c
}

// Every footer-delimited type is recovered byte-identical to what was
// embedded, with footer-level confidence.
func TestCarverRecoversFooterTypes(t *testing.T) {
	fixtures := map[string][]byte{
		"jpeg": makeJPEG(0x11, 64),
		"png":  makePNG(0x22, 32),
		"gif":  makeGIF(0x44, 24),
		"pdf":  makePDF("1 0 obj hello endobj"),
		"zip":  makeZIP(0x55, 40),
	}

	var buf []byte
	offsets := map[string]uint64{}
	for _, typ := range []string{"jpeg", "png", "gif", "pdf", "zip"} {
		buf = append(buf, pad(16)...)
		offsets[typ] = uint64(len(buf))
		buf = append(buf, fixtures[typ]...)
	}
	buf = append(buf, pad(16)...)

	c := newCarver(t, carve.Options{})
	files, err := c.ScanBuffer(buf)
	require.NoError(t, err)
	require.Len(t, files, len(fixtures))

	byType := map[string]carve.CarvedFile{}
	for _, cf := range files {
		byType[cf.Type] = cf
	}

	for typ, want := range fixtures {
		cf, ok := byType[typ]
		require.True(t, ok, "no record for %s", typ)
		require.Equal(t, offsets[typ], cf.Offset)
		require.Equal(t, uint64(len(want)), cf.Size)
		require.Equal(t, 0.9, cf.Confidence)

		got, err := os.ReadFile(cf.Path)
		require.NoError(t, err)
		require.Equal(t, want, got, "recovered %s differs from embedded bytes", typ)
	}
}

// Identical content found at two offsets yields a single record; the
// second sighting is silently dropped.
func TestCarverDeduplicates(t *testing.T) {
	db := makeSQLite(0x33)

	var buf []byte
	buf = append(buf, db...)
	buf = append(buf, pad(128)...)
	buf = append(buf, db...)

	c := newCarver(t, carve.Options{})
	files, err := c.ScanBuffer(buf)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "sqlite", files[0].Type)
	require.Equal(t, uint64(0), files[0].Offset)
}

func TestCarverDistinctContentNotDeduplicated(t *testing.T) {
	var buf []byte
	buf = append(buf, makeSQLite(0x33)...)
	buf = append(buf, pad(128)...)
	buf = append(buf, makeSQLite(0x66)...)

	c := newCarver(t, carve.Options{})
	files, err := c.ScanBuffer(buf)
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.NotEqual(t, files[0].Hash, files[1].Hash)
}

// A header whose footer never appears produces no record and no error.
func TestCarverHeaderWithoutFooter(t *testing.T) {
	buf := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, pad(4096)...)

	c := newCarver(t, carve.Options{})
	files, err := c.ScanBuffer(buf)
	require.NoError(t, err)
	require.NotNil(t, files)
	require.Empty(t, files)
}

// Different types embedded in one stream are recovered independently
// with disjoint byte ranges.
func TestCarverCrossTypeIndependence(t *testing.T) {
	var buf []byte
	buf = append(buf, makeJPEG(0x11, 48)...)
	buf = append(buf, pad(32)...)
	buf = append(buf, makePNG(0x22, 32)...)
	buf = append(buf, pad(32)...)
	buf = append(buf, makeSQLite(0x33)...)

	c := newCarver(t, carve.Options{})
	files, err := c.ScanBuffer(buf)
	require.NoError(t, err)
	require.Len(t, files, 3)

	var types []string
	for _, cf := range files {
		types = append(types, cf.Type)
	}
	require.ElementsMatch(t, []string{"jpeg", "png", "sqlite"}, types)

	for i, a := range files {
		for j, b := range files {
			if i == j {
				continue
			}
			overlap := a.Offset < b.Offset+b.Size && b.Offset < a.Offset+a.Size
			require.False(t, overlap, "%s and %s ranges overlap", a.Type, b.Type)
		}
	}
}

// Structurally sized types carry the inferred-boundary confidence.
func TestCarverStructuralConfidence(t *testing.T) {
	c := newCarver(t, carve.Options{})
	files, err := c.ScanBuffer(makeSQLite(0x33))
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, 0.7, files[0].Confidence)
	require.Equal(t, "structural", files[0].Metadata["sizing"])
}

func TestCarverPerCallTypeFilter(t *testing.T) {
	var buf []byte
	buf = append(buf, makeJPEG(0x11, 32)...)
	buf = append(buf, pad(64)...)
	buf = append(buf, makePDF("1 0 obj x endobj")...)

	c := newCarver(t, carve.Options{})

	files, err := c.ScanBuffer(buf, "jpeg")
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "jpeg", files[0].Type)

	_, err = c.ScanBuffer(buf, "docx")
	require.Error(t, err)
}

func TestCarverScanImages(t *testing.T) {
	var buf []byte
	buf = append(buf, makeJPEG(0x11, 32)...)
	buf = append(buf, pad(64)...)
	buf = append(buf, makePDF("1 0 obj x endobj")...)

	input := filepath.Join(t.TempDir(), "dump.bin")
	require.NoError(t, os.WriteFile(input, buf, 0644))

	c := newCarver(t, carve.Options{})
	files, err := c.ScanImages(input)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "jpeg", files[0].Type)
}

// A header at the exact chunk boundary is recovered once.
func TestCarverChunkBoundary(t *testing.T) {
	const chunkSize = 64

	buf := append(pad(chunkSize), makeJPEG(0x11, 32)...)

	c := newCarver(t, carve.Options{ChunkSize: chunkSize})
	files, err := c.ScanBuffer(buf)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, uint64(chunkSize), files[0].Offset)
}

// An unreadable input path is an explicit error, distinct from a scan
// that finds nothing.
func TestCarverScanMissingPath(t *testing.T) {
	c := newCarver(t, carve.Options{})
	_, err := c.Scan(filepath.Join(t.TempDir(), "no-such-file"))
	require.Error(t, err)
}

func TestCarverOutputNaming(t *testing.T) {
	outDir := t.TempDir()
	c, err := carve.New(outDir, carve.Options{})
	require.NoError(t, err)

	files, err := c.ScanBuffer(makeJPEG(0x11, 32))
	require.NoError(t, err)
	require.Len(t, files, 1)

	require.Regexp(t, regexp.MustCompile(`^jpeg_0_[0-9a-f]{8}\.jpg$`), filepath.Base(files[0].Path))
	require.Equal(t, outDir, filepath.Dir(files[0].Path))
}

func TestCarverConstructorTypeOption(t *testing.T) {
	c := newCarver(t, carve.Options{Types: []string{"png"}})

	var buf []byte
	buf = append(buf, makeJPEG(0x11, 32)...)
	buf = append(buf, pad(32)...)
	buf = append(buf, makePNG(0x22, 16)...)

	files, err := c.ScanBuffer(buf)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "png", files[0].Type)

	_, err = carve.New(t.TempDir(), carve.Options{Types: []string{"nope"}})
	require.Error(t, err)
}

func TestScanDirectory(t *testing.T) {
	src := t.TempDir()

	blob := append(pad(128), makeJPEG(0x11, 64)...)
	blob = append(blob, pad(128)...)
	require.NoError(t, os.WriteFile(filepath.Join(src, "chat.db"), blob, 0644))

	require.NoError(t, os.MkdirAll(filepath.Join(src, "DCIM", "100APPLE"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "DCIM", "100APPLE", "IMG_0001.thm"), makeGIF(0x44, 32), 0644))

	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("plain text"), 0644))

	c := newCarver(t, carve.Options{})

	visited := map[string]bool{}
	total, err := c.ScanDirectory(context.Background(), src, func(path string, size int64, scanned bool, recovered int) {
		visited[filepath.Base(path)] = scanned
	})
	require.NoError(t, err)
	require.Equal(t, 2, total)

	require.True(t, visited["chat.db"], "carve extension must be scanned")
	require.True(t, visited["IMG_0001.thm"], "media directory contents must be scanned")
	require.False(t, visited["notes.txt"], "small unrelated file must be skipped")
}

func TestScanDirectoryCancelled(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "dump.raw"), makeJPEG(0x11, 32), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newCarver(t, carve.Options{})
	_, err := c.ScanDirectory(ctx, src, nil)
	require.ErrorIs(t, err, context.Canceled)
}

// A footer tail never extends a record past the signature's size
// bound, even when the footer ends exactly at it.
func TestCarverTailedFooterClampedToMaxSize(t *testing.T) {
	tailed := carve.FileSignature{
		Type:       "cap",
		Ext:        "cap",
		Header:     []byte("CAP!"),
		Footer:     []byte("!PAC"),
		FooterTail: 8,
		MaxSize:    16,
	}

	var buf []byte
	buf = append(buf, []byte("CAP!")...)
	buf = append(buf, pad(8)...)
	buf = append(buf, []byte("!PAC")...) // footer ends exactly at the bound
	buf = append(buf, pad(32)...)        // tail bytes would land past it

	c := newCarver(t, carve.Options{Signatures: []carve.FileSignature{tailed}})
	files, err := c.ScanBuffer(buf, "cap")
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.LessOrEqual(t, files[0].Size, tailed.MaxSize)
	require.Equal(t, tailed.MaxSize, files[0].Size)
}

// A footer that only occurs beyond MaxSize bytes from the header is out
// of bounds: the candidate is rejected rather than over-read.
func TestCarverFooterBeyondMaxSize(t *testing.T) {
	bounded := carve.FileSignature{
		Type:    "cap",
		Ext:     "cap",
		Header:  []byte("CAP!"),
		Footer:  []byte("!PAC"),
		MaxSize: 32,
	}

	var buf []byte
	buf = append(buf, []byte("CAP!")...)
	buf = append(buf, pad(40)...)
	buf = append(buf, []byte("!PAC")...)

	c := newCarver(t, carve.Options{Signatures: []carve.FileSignature{bounded}})
	files, err := c.ScanBuffer(buf, "cap")
	require.NoError(t, err)
	require.NotNil(t, files)
	require.Empty(t, files)
}

func TestCarverCustomSignature(t *testing.T) {
	custom := carve.FileSignature{
		Type:    "tag",
		Ext:     "tag",
		Header:  []byte("TAG!"),
		Footer:  []byte("!GAT"),
		MaxSize: 1 * carve.MB,
	}

	var buf []byte
	buf = append(buf, pad(32)...)
	buf = append(buf, []byte("TAG!payload!GAT")...)
	buf = append(buf, pad(32)...)

	c := newCarver(t, carve.Options{Signatures: []carve.FileSignature{custom}})
	files, err := c.ScanBuffer(buf, "tag")
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, uint64(len("TAG!payload!GAT")), files[0].Size)
}
