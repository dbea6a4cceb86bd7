// Package converter holds the per-kind document-to-markdown capabilities and
// the registry the scheduler dispatches through. The registry is immutable
// after construction and safe to share across workers.
package converter

import (
	"context"
	"fmt"
	"time"

	"github.com/kbforge/kbforge/internal/models"
	"github.com/kbforge/kbforge/pkg/logger"
)

// Converter turns one classified input into markdown. Implementations wrap
// failures in the errdefs taxonomy so the retry policy can classify them;
// they never retry on their own.
type Converter interface {
	// Kind returns the input kind this converter handles.
	Kind() models.InputKind

	// Convert produces the markdown for a classified input.
	Convert(ctx context.Context, in models.ClassifiedInput) (string, error)
}

// Registry maps input kinds to converters.
type Registry struct {
	converters map[models.InputKind]Converter
}

// NewRegistry builds a registry from the given converters. Later entries for
// the same kind override earlier ones.
func NewRegistry(convs ...Converter) *Registry {
	r := &Registry{converters: make(map[models.InputKind]Converter, len(convs))}
	for _, c := range convs {
		r.converters[c.Kind()] = c
	}
	return r
}

// DefaultRegistry wires the production converters: URL, PDF and Word.
func DefaultRegistry(log logger.Logger, httpTimeout time.Duration) *Registry {
	return NewRegistry(
		NewURLConverter(log, httpTimeout),
		NewPDFConverter(log),
		NewWordConverter(log),
	)
}

// Lookup returns the converter for kind. The classifier guarantees unknown
// kinds never reach the scheduler, so a miss is an internal wiring error.
func (r *Registry) Lookup(kind models.InputKind) (Converter, error) {
	c, ok := r.converters[kind]
	if !ok {
		return nil, fmt.Errorf("no converter registered for kind %q", kind)
	}
	return c, nil
}

// Kinds returns the registered input kinds.
func (r *Registry) Kinds() []models.InputKind {
	kinds := make([]models.InputKind, 0, len(r.converters))
	for k := range r.converters {
		kinds = append(kinds, k)
	}
	return kinds
}
