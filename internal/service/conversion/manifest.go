package conversion

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadManifest reads document references from a CSV manifest. Every non-empty
// cell of every row is an input; duplicates are dropped keeping the first
// occurrence, so re-listing a URL across columns or rows converts it once.
func ReadManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var inputs []string
	seen := map[string]bool{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		for _, cell := range record {
			cell = strings.TrimSpace(cell)
			if cell == "" || seen[cell] {
				continue
			}
			seen[cell] = true
			inputs = append(inputs, cell)
		}
	}

	return inputs, nil
}
