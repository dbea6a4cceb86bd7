package conversion

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbforge/kbforge/internal/models"
)

const (
	maxSlugLen      = 100
	defaultBaseName = "document"
)

// strippedPageExts are web page extensions dropped from URL slugs so
// https://host/docs/index.html and https://host/docs/index name the same
// document.
var strippedPageExts = []string{".html", ".htm", ".php"}

// namer assigns output file names for one batch run. Names are derived from
// the input and deduplicated both against files already on disk and against
// names handed out earlier in the same run.
type namer struct {
	outputDir string
	reserved  map[string]bool
}

func newNamer(outputDir string) *namer {
	return &namer{outputDir: outputDir, reserved: map[string]bool{}}
}

// Name returns a unique markdown file name for the input, reserving it for
// the rest of the run.
func (n *namer) Name(in models.ClassifiedInput) string {
	base := baseName(in)

	candidate := base + ".md"
	for i := 1; n.taken(candidate); i++ {
		candidate = fmt.Sprintf("%s_%d.md", base, i)
	}
	n.reserved[candidate] = true
	return candidate
}

func (n *namer) taken(name string) bool {
	if n.reserved[name] {
		return true
	}
	_, err := os.Stat(filepath.Join(n.outputDir, name))
	return err == nil
}

func baseName(in models.ClassifiedInput) string {
	switch in.Kind {
	case models.KindURL:
		return urlBaseName(in.Raw)
	default:
		return fileBaseName(in.ResolvedPath)
	}
}

func urlBaseName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return defaultBaseName
	}

	p := u.Path
	for _, ext := range strippedPageExts {
		if strings.HasSuffix(strings.ToLower(p), ext) {
			p = p[:len(p)-len(ext)]
			break
		}
	}

	return slugify(u.Hostname() + "_" + p)
}

func fileBaseName(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return slugify(stem)
}

// slugify reduces s to lowercase alphanumerics joined by single underscores,
// truncated to maxSlugLen.
func slugify(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	slug := strings.Trim(b.String(), "_")
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "_")
	}
	if slug == "" {
		return defaultBaseName
	}
	return slug
}
