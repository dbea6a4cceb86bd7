package converter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/kbforge/kbforge/internal/errdefs"
	"github.com/kbforge/kbforge/internal/models"
	"github.com/kbforge/kbforge/pkg/logger"
)

// pdfPageWorkers bounds concurrent page extraction within one document.
const pdfPageWorkers = 4

// PDFConverter extracts text from a PDF page by page and renders it as
// markdown with one section per page.
type PDFConverter struct {
	logger logger.Logger
}

func NewPDFConverter(log logger.Logger) *PDFConverter {
	return &PDFConverter{logger: log}
}

func (c *PDFConverter) Kind() models.InputKind { return models.KindPDF }

func (c *PDFConverter) Convert(ctx context.Context, in models.ClassifiedInput) (string, error) {
	content, err := os.ReadFile(in.ResolvedPath)
	if err != nil {
		// The file existed at classification time; treat disappearance or
		// contention as transient.
		return "", errdefs.Transient(in.Raw, err)
	}

	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return "", errdefs.Permanent(in.Raw, fmt.Errorf("parse pdf: %w", err))
	}

	numPages := pdfReader.NumPage()
	if numPages == 0 {
		return "", errdefs.Permanentf(in.Raw, "pdf has no pages")
	}

	pages := make([]string, numPages)
	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, pdfPageWorkers)

	for i := 1; i <= numPages; i++ {
		pageNum := i
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return ctx.Err()
			}

			page := pdfReader.Page(pageNum)
			if page.V.IsNull() {
				return nil
			}
			text, err := page.GetPlainText(nil)
			if err != nil {
				return errdefs.Permanent(in.Raw, fmt.Errorf("page %d: %w", pageNum, err))
			}
			pages[pageNum-1] = strings.TrimSpace(text)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(c.title(pdfReader, in.ResolvedPath))
	sb.WriteString("\n")
	empty := true
	for i, text := range pages {
		if text == "" {
			continue
		}
		empty = false
		fmt.Fprintf(&sb, "\n## Page %d\n\n%s\n", i+1, text)
	}
	if empty {
		return "", errdefs.Permanentf(in.Raw, "pdf contains no extractable text")
	}

	c.logger.Debug("converted pdf",
		logger.String("path", in.ResolvedPath),
		logger.Int("pages", numPages),
	)

	return sb.String(), nil
}

// title prefers the document's Info dictionary, falling back to the file
// name without its extension.
func (c *PDFConverter) title(r *pdf.Reader, path string) string {
	trailer := r.Trailer()
	if !trailer.IsNull() {
		info := trailer.Key("Info")
		if !info.IsNull() {
			if t := info.Key("Title"); !t.IsNull() {
				if s := strings.TrimSpace(t.Text()); s != "" {
					return s
				}
			}
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
