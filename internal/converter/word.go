package converter

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/kbforge/kbforge/internal/errdefs"
	"github.com/kbforge/kbforge/internal/models"
	"github.com/kbforge/kbforge/pkg/logger"
)

// WordConverter converts .docx documents by reading word/document.xml from
// the ZIP archive and mapping heading styles to markdown levels. Legacy
// binary .doc files have no pure-Go parser and fail permanently.
type WordConverter struct {
	logger logger.Logger
}

func NewWordConverter(log logger.Logger) *WordConverter {
	return &WordConverter{logger: log}
}

func (c *WordConverter) Kind() models.InputKind { return models.KindWord }

func (c *WordConverter) Convert(ctx context.Context, in models.ClassifiedInput) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if strings.EqualFold(filepath.Ext(in.ResolvedPath), ".doc") {
		return "", errdefs.Permanentf(in.Raw, "legacy binary .doc is not supported; convert to .docx first")
	}

	paragraphs, err := c.extractDocx(in.ResolvedPath)
	if err != nil {
		return "", errdefs.Permanent(in.Raw, err)
	}

	var sb strings.Builder
	for i, p := range paragraphs {
		if i > 0 {
			sb.WriteString("\n")
		}
		if p.level > 0 {
			sb.WriteString(strings.Repeat("#", p.level))
			sb.WriteByte(' ')
		}
		sb.WriteString(p.text)
		sb.WriteString("\n")
	}

	markdown := strings.TrimSpace(sb.String())
	if markdown == "" {
		return "", errdefs.Permanentf(in.Raw, "document contains no text")
	}

	c.logger.Debug("converted docx",
		logger.String("path", in.ResolvedPath),
		logger.Int("paragraphs", len(paragraphs)),
	)

	return markdown + "\n", nil
}

type docxParagraph struct {
	text  string
	level int // 0 for body text
}

// extractDocx walks word/document.xml with a streaming decoder, collecting
// paragraph text and heading styles.
func (c *WordConverter) extractDocx(path string) ([]docxParagraph, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var paragraphs []docxParagraph
	var current strings.Builder
	var inParagraph bool
	var style string

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "p":
				inParagraph = true
				current.Reset()
				style = ""
			case t.Name.Local == "pStyle" && inParagraph:
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						style = attr.Value
					}
				}
			}

		case xml.CharData:
			if inParagraph {
				current.Write(t)
			}

		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				text := strings.TrimSpace(current.String())
				if text == "" {
					continue
				}
				paragraphs = append(paragraphs, docxParagraph{
					text:  text,
					level: headingLevel(style),
				})
			}
		}
	}

	return paragraphs, nil
}

// headingLevel maps a paragraph style name to a markdown heading level.
// "Title" → 1, "Subtitle" → 2, "Heading3" → 3, anything else → 0.
func headingLevel(style string) int {
	lower := strings.ToLower(style)

	switch lower {
	case "title":
		return 1
	case "subtitle":
		return 2
	}

	if rest, ok := strings.CutPrefix(lower, "heading"); ok {
		if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
			return int(rest[0] - '0')
		}
	}
	return 0
}
