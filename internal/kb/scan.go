package kb

import (
	"encoding/xml"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kbforge/kbforge/pkg/logger"
)

type documentSet struct {
	XMLName   xml.Name   `xml:"documents"`
	Documents []document `xml:"document"`
}

type document struct {
	Path    string `xml:"path,attr"`
	Content string `xml:",chardata"`
}

// scanDocuments walks dir recursively, reads every markdown file and renders
// the set as a <documents> XML block for prompt injection. Paths in the XML
// are relative to dir. Unreadable files are skipped with a warning; a missing
// or non-directory path is an error.
func scanDocuments(dir string, log logger.Logger) (string, int, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, fmt.Errorf("directory not found: %s", dir)
		}
		return "", 0, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", 0, fmt.Errorf("not a directory: %s", dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return "", 0, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(paths)

	set := documentSet{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("skipping unreadable markdown file",
				logger.String("path", path),
				logger.Error(err),
			)
			continue
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		set.Documents = append(set.Documents, document{
			Path:    filepath.ToSlash(rel),
			Content: string(data),
		})
	}

	out, err := xml.MarshalIndent(&set, "", "  ")
	if err != nil {
		return "", 0, fmt.Errorf("render document xml: %w", err)
	}
	return string(out), len(set.Documents), nil
}
