package converter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbforge/kbforge/internal/errdefs"
	"github.com/kbforge/kbforge/internal/models"
	"github.com/kbforge/kbforge/pkg/logger"
)

func TestPDFConvertMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 garbage"), 0o644))

	c := NewPDFConverter(logger.NewTestLogger())
	_, err := c.Convert(context.Background(), models.ClassifiedInput{
		Raw: path, Kind: models.KindPDF, ResolvedPath: path,
	})
	require.Error(t, err)
	assert.False(t, errdefs.IsTransient(err), "malformed pdf is permanent")
}

func TestPDFConvertVanishedFile(t *testing.T) {
	// A file that validated at classification time but is gone at conversion
	// time reads as contention, not corruption.
	c := NewPDFConverter(logger.NewTestLogger())
	path := filepath.Join(t.TempDir(), "gone.pdf")
	_, err := c.Convert(context.Background(), models.ClassifiedInput{
		Raw: path, Kind: models.KindPDF, ResolvedPath: path,
	})
	require.Error(t, err)
	assert.True(t, errdefs.IsTransient(err))
}
