package carve_test

import (
	"testing"

	"github.com/recoup-dev/recoup/internal/carve"
	"github.com/stretchr/testify/require"
)

func TestRegistryMaxHeaderLen(t *testing.T) {
	reg := carve.NewRegistry(carve.DefaultSignatures()...)

	// The SQLite magic is the longest built-in header.
	require.Equal(t, len(carve.SQLiteMagic), reg.MaxHeaderLen())
}

func TestRegistryFilter(t *testing.T) {
	reg := carve.NewRegistry(carve.DefaultSignatures()...)

	filtered, err := reg.Filter("jpeg", "png")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"jpeg", "png"}, filtered.Types())

	// All three JPEG header variants survive the filter.
	jpegs := 0
	for _, sig := range filtered.Signatures() {
		if sig.Type == "jpeg" {
			jpegs++
		}
	}
	require.Equal(t, 3, jpegs)
}

func TestRegistryFilterUnknownType(t *testing.T) {
	reg := carve.NewRegistry(carve.DefaultSignatures()...)

	_, err := reg.Filter("jpeg", "docx")
	require.Error(t, err)
	require.Contains(t, err.Error(), "docx")
}

func TestRegistryFilterEmptyIsIdentity(t *testing.T) {
	reg := carve.NewRegistry(carve.DefaultSignatures()...)

	same, err := reg.Filter()
	require.NoError(t, err)
	require.Equal(t, reg, same)
}

func TestDefaultSignaturesAreIndependentCopies(t *testing.T) {
	a := carve.DefaultSignatures()
	b := carve.DefaultSignatures()

	a[0].Header[0] = 0x00
	require.NotEqual(t, a[0].Header[0], b[0].Header[0])
}
