package converter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"

	"github.com/kbforge/kbforge/internal/errdefs"
	"github.com/kbforge/kbforge/internal/models"
	"github.com/kbforge/kbforge/pkg/logger"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxBodyBytes       = 20 * 1024 * 1024
	userAgent          = "kbforge/1.0"
)

// URLConverter fetches a web page and converts its HTML to markdown.
// Pages larger than maxBody fail permanently rather than converting a
// truncated read.
type URLConverter struct {
	client  *http.Client
	conv    *md.Converter
	logger  logger.Logger
	maxBody int64
}

func NewURLConverter(log logger.Logger, timeout time.Duration) *URLConverter {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &URLConverter{
		client: &http.Client{Timeout: timeout},
		conv: md.NewConverter(
			md.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		logger:  log,
		maxBody: maxBodyBytes,
	}
}

func (c *URLConverter) Kind() models.InputKind { return models.KindURL }

func (c *URLConverter) Convert(ctx context.Context, in models.ClassifiedInput) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.Raw, nil)
	if err != nil {
		return "", errdefs.Permanent(in.Raw, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errdefs.FromTransportError(in.Raw, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", errdefs.FromHTTPStatus(in.Raw, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return "", errdefs.FromTransportError(in.Raw, err)
	}
	if int64(len(body)) > c.maxBody {
		return "", errdefs.Permanentf(in.Raw, "response body exceeds %d bytes", c.maxBody)
	}

	markdown, err := c.conv.ConvertString(string(body), md.WithDomain(in.Raw))
	if err != nil {
		return "", errdefs.Permanent(in.Raw, fmt.Errorf("html to markdown: %w", err))
	}

	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return "", errdefs.Permanentf(in.Raw, "conversion produced empty markdown")
	}

	// Pages without a top-level heading get one from their <title>.
	if !strings.HasPrefix(markdown, "# ") {
		if title := pageTitle(body); title != "" {
			markdown = "# " + title + "\n\n" + markdown
		}
	}

	c.logger.Debug("converted url",
		logger.String("url", in.Raw),
		logger.Int("bytes", len(body)),
		logger.Int("markdownLen", len(markdown)),
	)

	return markdown, nil
}

// pageTitle returns the text of the document's <title> element, or "".
func pageTitle(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			title = strings.TrimSpace(b.String())
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}
