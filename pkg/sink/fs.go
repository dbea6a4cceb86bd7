package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kbforge/kbforge/pkg/logger"
)

// FSSink writes markdown files under a root directory. Writes refuse to
// clobber an existing file so concurrent runs against the same directory
// surface as errors instead of silent overwrites.
type FSSink struct {
	root   string
	logger logger.Logger
}

func NewFSSink(root string, log logger.Logger) *FSSink {
	if root == "" {
		root = "."
	}
	return &FSSink{root: root, logger: log}
}

// Write implements Sink.Write.
func (s *FSSink) Write(ctx context.Context, path string, data []byte) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	full := filepath.Join(s.root, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("output file already exists: %s", full)
		}
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output file: %w", cerr)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}

	s.logger.Debug("Wrote markdown file",
		logger.String("path", full),
		logger.Int("bytes", len(data)),
	)
	return nil
}
