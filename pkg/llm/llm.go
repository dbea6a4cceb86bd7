// Package llm provides the language model client used for knowledge base
// generation. The only backend is the Google Generative Language API.
package llm

import "context"

// Client sends one prompt to a language model and returns its text reply.
type Client interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}
