package conversion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadManifestAllCells(t *testing.T) {
	path := writeManifest(t, "https://a.com,https://b.com\n/docs/report.pdf\n")

	inputs, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.com", "https://b.com", "/docs/report.pdf"}, inputs)
}

func TestReadManifestDedupesPreservingOrder(t *testing.T) {
	path := writeManifest(t, "https://a.com,https://b.com\nhttps://a.com\nhttps://c.com,https://b.com\n")

	inputs, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.com", "https://b.com", "https://c.com"}, inputs)
}

func TestReadManifestSkipsEmptyCells(t *testing.T) {
	path := writeManifest(t, "https://a.com,,  \n\"\",https://b.com\n")

	inputs, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, inputs)
}

func TestReadManifestUnevenRows(t *testing.T) {
	path := writeManifest(t, "a,b,c\nd\ne,f\n")

	inputs, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Len(t, inputs, 6)
}

func TestReadManifestMissingFile(t *testing.T) {
	_, err := ReadManifest(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}
