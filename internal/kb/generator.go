// Package kb turns a directory of converted markdown documents into
// LLM-generated navigation and knowledge base artifacts: a table of
// contents, an extracted knowledge base, and a condensed knowledge base.
package kb

import (
	"context"
	"errors"
	"strings"

	"github.com/kbforge/kbforge/pkg/llm"
	"github.com/kbforge/kbforge/pkg/logger"
)

// ErrNoDocuments means the scanned directory holds no markdown files, so
// there is nothing to generate from.
var ErrNoDocuments = errors.New("no markdown documents found")

// Artifact file names, written next to the converted documents.
const (
	TOCFileName       = "toc.md"
	KBFileName        = "knowledge_base.md"
	CondensedFileName = "knowledge_base_condensed.md"
)

const documentsPlaceholder = "{{documents}}"

const tocPrompt = `You are a documentation indexing assistant. Create a comprehensive table of contents in markdown format based on the content of the provided documents.

Format the output as a nested markdown list with:
1. Top-level sections as # headers
2. Sub-sections properly indented
3. Links to the document paths

DOCUMENTS:
{{documents}}

Generate a clear, hierarchical, and well-structured table of contents that would help a user navigate the documentation.`

const kbPrompt = `You are a knowledge extraction assistant. Read the provided documents and extract the key information into a single markdown knowledge base.

Organize the output by topic. For each topic:
1. State the key facts and conclusions drawn from the documents
2. Note relationships between topics where they exist
3. Cite the source document path for each piece of information

DOCUMENTS:
{{documents}}

Produce a well-structured markdown knowledge base that captures everything an assistant would need to answer questions about these documents.`

const condensePrompt = `Review the knowledge base provided below and condense it down to just the key information the agent needs to know to help the user.

Instead of listing each article in its entirety, organize the content by meaningful topic, and then provide a extremely detailed summary of the topic content as taken from each article that discusses that topic. Where some of the existing content discusses the same topic, merge that content into the detailed summary. Where some of the existing content provides conflicting or different points of view on the same topic, include all points of view and indicate which author provided the point of view.

There is no token limit for the knowledge base.

--- KNOWLEDGE BASE CONTENT ---
{{documents}}`

// Generator produces the knowledge base artifacts from a directory of
// converted markdown.
type Generator struct {
	client llm.Client
	logger logger.Logger
}

func NewGenerator(client llm.Client, log logger.Logger) *Generator {
	return &Generator{client: client, logger: log}
}

// GenerateTOC builds a markdown table of contents over every markdown file
// under dir. Returns ErrNoDocuments when dir holds no markdown.
func (g *Generator) GenerateTOC(ctx context.Context, dir string) (string, error) {
	return g.generate(ctx, dir, tocPrompt, "toc")
}

// GenerateKB extracts a markdown knowledge base from every markdown file
// under dir. Returns ErrNoDocuments when dir holds no markdown.
func (g *Generator) GenerateKB(ctx context.Context, dir string) (string, error) {
	return g.generate(ctx, dir, kbPrompt, "kb")
}

func (g *Generator) generate(ctx context.Context, dir, prompt, artifact string) (string, error) {
	xmlData, count, err := scanDocuments(dir, g.logger)
	if err != nil {
		return "", err
	}
	if count == 0 {
		return "", ErrNoDocuments
	}

	g.logger.Info("generating artifact",
		logger.String("artifact", artifact),
		logger.String("dir", dir),
		logger.Int("documents", count),
	)

	out, err := g.client.Invoke(ctx, strings.ReplaceAll(prompt, documentsPlaceholder, xmlData))
	if err != nil {
		return "", err
	}
	return out, nil
}

// Condense rewrites an already generated knowledge base down to its key
// information.
func (g *Generator) Condense(ctx context.Context, kbContent string) (string, error) {
	if strings.TrimSpace(kbContent) == "" {
		return "", errors.New("knowledge base content is empty")
	}

	g.logger.Info("condensing knowledge base", logger.Int("contentLen", len(kbContent)))
	return g.client.Invoke(ctx, strings.ReplaceAll(condensePrompt, documentsPlaceholder, kbContent))
}
