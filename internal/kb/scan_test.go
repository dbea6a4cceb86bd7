package kb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbforge/kbforge/pkg/logger"
)

func TestScanDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.md"), []byte("# Alpha\n\nBody <one>.\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "beta.md"), []byte("# Beta\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("not markdown"), 0o644))

	xmlData, count, err := scanDocuments(dir, logger.NewTestLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Contains(t, xmlData, `path="alpha.md"`)
	assert.Contains(t, xmlData, `path="nested/beta.md"`)
	assert.NotContains(t, xmlData, "ignore.txt")
	assert.Contains(t, xmlData, "Body &lt;one&gt;.", "content is xml-escaped")
	assert.True(t, strings.HasPrefix(xmlData, "<documents>"), "got %q", xmlData[:40])
}

func TestScanDocumentsEmptyDirectory(t *testing.T) {
	_, count, err := scanDocuments(t.TempDir(), logger.NewTestLogger())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestScanDocumentsMissingDirectory(t *testing.T) {
	_, _, err := scanDocuments(filepath.Join(t.TempDir(), "absent"), logger.NewTestLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory not found")
}

func TestScanDocumentsNotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.md")
	require.NoError(t, os.WriteFile(file, []byte("# X\n"), 0o644))

	_, _, err := scanDocuments(file, logger.NewTestLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}
