package carve

import (
	"fmt"
	"sort"
)

// FileSignature describes one recognized variant of a file type: the
// byte pattern that marks its start, the optional pattern that marks its
// end, and the safety bound on how far the sizer is allowed to look.
// Multiple signatures may share the same Type tag (e.g. the three JPEG
// header variants).
type FileSignature struct {
	Type   string // file-type tag, e.g. "jpeg"
	Ext    string // output file extension, e.g. "jpg"
	Header []byte
	Footer []byte // nil means the size must be inferred structurally

	// FooterTail is the number of bytes following the footer pattern
	// that still belong to the file. ZIP needs this: the end-of-central
	// directory record extends 18 bytes past its 4-byte signature.
	FooterTail int

	// MaxSize bounds how far the sizer will search or read past the
	// header when no footer is ever found.
	MaxSize uint64
}

const (
	KB = 1 << 10
	MB = 1 << 20
)

const SQLiteMagic = "SQLite format 3\x00"

// DefaultSignatures returns a fresh copy of the built-in signature
// table.
func DefaultSignatures() []FileSignature {
	return []FileSignature{
		{Type: "jpeg", Ext: "jpg", Header: []byte{0xFF, 0xD8, 0xFF, 0xE0}, Footer: []byte{0xFF, 0xD9}, MaxSize: 30 * MB},
		{Type: "jpeg", Ext: "jpg", Header: []byte{0xFF, 0xD8, 0xFF, 0xE1}, Footer: []byte{0xFF, 0xD9}, MaxSize: 30 * MB},
		{Type: "jpeg", Ext: "jpg", Header: []byte{0xFF, 0xD8, 0xFF, 0xDB}, Footer: []byte{0xFF, 0xD9}, MaxSize: 30 * MB},
		{Type: "png", Ext: "png", Header: []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A},
			Footer: []byte{0x00, 0x00, 0x00, 0x00, 'I', 'E', 'N', 'D', 0xAE, 0x42, 0x60, 0x82}, MaxSize: 40 * MB},
		{Type: "gif", Ext: "gif", Header: []byte("GIF87a"), Footer: []byte{0x00, 0x3B}, MaxSize: 20 * MB},
		{Type: "gif", Ext: "gif", Header: []byte("GIF89a"), Footer: []byte{0x00, 0x3B}, MaxSize: 20 * MB},
		{Type: "pdf", Ext: "pdf", Header: []byte("%PDF-"), Footer: []byte("%%EOF"), MaxSize: 100 * MB},
		{Type: "mp4", Ext: "mp4", Header: []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p'}, MaxSize: 500 * MB},
		{Type: "mp4", Ext: "mp4", Header: []byte{0x00, 0x00, 0x00, 0x1C, 'f', 't', 'y', 'p'}, MaxSize: 500 * MB},
		{Type: "mp4", Ext: "mp4", Header: []byte{0x00, 0x00, 0x00, 0x20, 'f', 't', 'y', 'p'}, MaxSize: 500 * MB},
		{Type: "zip", Ext: "zip", Header: []byte{'P', 'K', 0x03, 0x04}, Footer: []byte{'P', 'K', 0x05, 0x06}, FooterTail: 18, MaxSize: 200 * MB},
		{Type: "sqlite", Ext: "sqlite", Header: []byte(SQLiteMagic), MaxSize: 512 * MB},
		{Type: "webp", Ext: "webp", Header: []byte("RIFF"), MaxSize: 50 * MB},
		{Type: "bmp", Ext: "bmp", Header: []byte{'B', 'M'}, MaxSize: 50 * MB},
	}
}

// ImageTypes lists the type tags matched by the images-only entry
// points.
var ImageTypes = []string{"jpeg", "png", "gif", "webp", "bmp"}

// signatureGroup holds all signatures whose headers share the same byte
// length.
type signatureGroup struct {
	hdrLen int
	sigs   []FileSignature
}

// Registry is the static signature catalog used by one scan. It keeps
// the signature list grouped by header byte-length, longest group
// first, so that the scanner prefers more specific matches when two
// signatures could both match at the same position.
type Registry struct {
	sigs   []FileSignature
	groups []signatureGroup
}

func NewRegistry(sigs ...FileSignature) *Registry {
	byLen := make(map[int][]FileSignature)
	for _, sig := range sigs {
		n := len(sig.Header)
		byLen[n] = append(byLen[n], sig)
	}

	groups := make([]signatureGroup, 0, len(byLen))
	for n, group := range byLen {
		groups = append(groups, signatureGroup{hdrLen: n, sigs: group})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].hdrLen > groups[j].hdrLen
	})

	return &Registry{
		sigs:   sigs,
		groups: groups,
	}
}

// Filter returns a registry view restricted to the given type tags.
// An unknown tag is an error: silently scanning for nothing would be
// indistinguishable from an empty image.
func (r *Registry) Filter(types ...string) (*Registry, error) {
	if len(types) == 0 {
		return r, nil
	}

	known := make(map[string]bool, len(r.sigs))
	for _, sig := range r.sigs {
		known[sig.Type] = true
	}

	want := make(map[string]bool, len(types))
	for _, typ := range types {
		if !known[typ] {
			return nil, fmt.Errorf("unknown file type %q", typ)
		}
		want[typ] = true
	}

	var sigs []FileSignature
	for _, sig := range r.sigs {
		if want[sig.Type] {
			sigs = append(sigs, sig)
		}
	}
	return NewRegistry(sigs...), nil
}

// MaxHeaderLen is the length of the longest registered header. The
// scanner retains this many bytes across chunk boundaries.
func (r *Registry) MaxHeaderLen() int {
	if len(r.groups) == 0 {
		return 0
	}
	return r.groups[0].hdrLen
}

func (r *Registry) Signatures() []FileSignature {
	return r.sigs
}

// Types returns the distinct type tags in registration order.
func (r *Registry) Types() []string {
	var types []string
	seen := make(map[string]bool)
	for _, sig := range r.sigs {
		if !seen[sig.Type] {
			seen[sig.Type] = true
			types = append(types, sig.Type)
		}
	}
	return types
}
