// Package classifier turns raw input strings into validated ClassifiedInput
// records. A string parsing as an absolute http(s) URL is a URL input; local
// paths are classified by extension and must exist on disk. Classification
// failures are terminal; nothing here is ever retried.
package classifier

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kbforge/kbforge/internal/errdefs"
	"github.com/kbforge/kbforge/internal/models"
	"github.com/kbforge/kbforge/pkg/logger"
)

var extKinds = map[string]models.InputKind{
	".doc":  models.KindWord,
	".docx": models.KindWord,
	".pdf":  models.KindPDF,
}

type Classifier struct {
	logger       logger.Logger
	checkURL     bool
	client       *http.Client
	checkTimeout time.Duration
}

// Option mutates classifier behavior.
type Option func(*Classifier)

// WithConnectivityCheck enables a HEAD request against URL inputs at
// classification time. Off by default; conversion surfaces unreachable URLs
// anyway, this only fails them earlier.
func WithConnectivityCheck(timeout time.Duration) Option {
	return func(c *Classifier) {
		c.checkURL = true
		c.checkTimeout = timeout
	}
}

func New(log logger.Logger, opts ...Option) *Classifier {
	c := &Classifier{
		logger:       log,
		checkTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = &http.Client{Timeout: c.checkTimeout}
	return c
}

// Classify determines the input kind and validates it. For word/pdf inputs
// the returned record carries an absolute path to an existing regular file.
func (c *Classifier) Classify(raw string) (models.ClassifiedInput, error) {
	if u, err := url.Parse(raw); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		if c.checkURL {
			if err := c.headCheck(raw); err != nil {
				return models.ClassifiedInput{}, err
			}
		}
		return models.ClassifiedInput{Raw: raw, Kind: models.KindURL}, nil
	}

	// Absolute URIs with a non-http scheme are not file paths.
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		return models.ClassifiedInput{}, errdefs.NewUnsupportedInput(raw, u.Scheme)
	}

	ext := strings.ToLower(filepath.Ext(raw))
	kind, ok := extKinds[ext]
	if !ok {
		return models.ClassifiedInput{}, errdefs.NewUnsupportedInput(raw, ext)
	}

	resolved, err := filepath.Abs(raw)
	if err != nil {
		return models.ClassifiedInput{}, fmt.Errorf("resolve %s: %w", raw, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return models.ClassifiedInput{}, errdefs.NewFileNotFound(resolved)
		}
		return models.ClassifiedInput{}, fmt.Errorf("stat %s: %w", resolved, err)
	}
	if info.IsDir() {
		return models.ClassifiedInput{}, errdefs.NewNotAFile(resolved)
	}

	c.logger.Debug("classified local input",
		logger.String("input", raw),
		logger.String("kind", string(kind)),
		logger.String("resolved", resolved),
	)

	return models.ClassifiedInput{Raw: raw, Kind: kind, ResolvedPath: resolved}, nil
}

func (c *Classifier) headCheck(rawURL string) error {
	resp, err := c.client.Head(rawURL)
	if err != nil {
		return errdefs.FromTransportError(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errdefs.FromHTTPStatus(rawURL, resp.StatusCode)
	}
	return nil
}
