package sink

import (
	"context"
	"fmt"

	"github.com/kbforge/kbforge/pkg/logger"
	"github.com/kbforge/kbforge/pkg/sink/minio"
	"github.com/kbforge/kbforge/pkg/sink/s3"
)

// Type selects where converted markdown is written.
type Type string

const (
	TypeFS    Type = "fs"
	TypeS3    Type = "s3"
	TypeMinio Type = "minio"
)

// Sink persists one markdown document under a path. Path is relative to the
// sink root (output directory, bucket).
type Sink interface {
	Write(ctx context.Context, path string, data []byte) error
}

// New builds a sink of the given type. outputDir is only meaningful for the
// filesystem sink; object-store sinks take their bucket from the environment.
func New(t Type, outputDir string, log logger.Logger) (Sink, error) {
	switch t {
	case TypeFS, "":
		return NewFSSink(outputDir, log), nil
	case TypeS3:
		return s3.GetClient(log)
	case TypeMinio:
		return minio.GetClient(log)
	default:
		return nil, fmt.Errorf("unsupported sink type: %s", t)
	}
}
