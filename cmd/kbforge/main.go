package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kbforge/kbforge/config"
	"github.com/kbforge/kbforge/internal/errdefs"
	"github.com/kbforge/kbforge/internal/kb"
	"github.com/kbforge/kbforge/internal/models"
	"github.com/kbforge/kbforge/internal/service/conversion"
	"github.com/kbforge/kbforge/pkg/llm"
	"github.com/kbforge/kbforge/pkg/logger"
)

func main() {
	var (
		input       = flag.String("input", "", "single document reference to convert (URL or file path)")
		manifest    = flag.String("manifest", "", "CSV manifest of document references")
		outDir      = flag.String("out-dir", ".", "directory for converted markdown files")
		configPath  = flag.String("config", "", "optional YAML engine config")
		concurrency = flag.Int("concurrency", 0, "worker pool size (overrides config)")
		genTOC      = flag.Bool("toc", false, "generate toc.md over the converted documents")
		genKB       = flag.Bool("kb", false, "generate knowledge_base.md from the converted documents")
		condense    = flag.Bool("condense", false, "condense the knowledge base into knowledge_base_condensed.md")
		verbose     = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if (*input == "") == (*manifest == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -input or -manifest is required")
		flag.Usage()
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log, err := logger.NewLogger(
		logger.WithLevel(level),
		logger.WithEncoding("console"),
		logger.WithOutputPaths([]string{"stderr"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.LoadEngineConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	cfg.OutputDir = *outDir
	if *concurrency > 0 {
		cfg.Concurrency = *concurrency
	}

	svc, err := conversion.NewService(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup: %v\n", err)
		os.Exit(2)
	}

	// The model client is validated up front so a missing API key fails
	// before any conversion work is spent.
	var generator *kb.Generator
	if *genTOC || *genKB || *condense {
		gcfg := config.GetGeminiConfig()
		client, err := llm.NewGeminiClient(llm.GeminiOptions{
			BaseURL: gcfg.BaseURL,
			Model:   gcfg.Model,
			APIKey:  gcfg.APIKey,
		}, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "setup: %v (set GEMINI_API_KEY)\n", err)
			os.Exit(2)
		}
		generator = kb.NewGenerator(client, log)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	inputs := []string{*input}
	if *manifest != "" {
		inputs, err = conversion.ReadManifest(*manifest)
		if err != nil {
			fmt.Fprintf(os.Stderr, "manifest: %v\n", err)
			os.Exit(2)
		}
		if len(inputs) == 0 {
			fmt.Fprintln(os.Stderr, "manifest contains no inputs")
			os.Exit(2)
		}
	}

	summary, err := svc.RunBatch(ctx, inputs)
	if err != nil {
		var serr *errdefs.SchedulerError
		if errors.As(err, &serr) {
			fmt.Fprintf(os.Stderr, "scheduler: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "batch: %v\n", err)
		}
		os.Exit(1)
	}

	render(summary)

	// A batch run is a success if anything converted; only a total loss
	// fails the process.
	if summary.Total > 0 && summary.Succeeded == 0 {
		os.Exit(1)
	}

	if generator != nil {
		if err := generateArtifacts(ctx, generator, *outDir, *genTOC, *genKB, *condense); err != nil {
			fmt.Fprintf(os.Stderr, "knowledge base: %v\n", err)
			os.Exit(1)
		}
	}
}

// generateArtifacts runs the post-conversion LLM steps over outDir:
// toc.md, knowledge_base.md and the condensed variant.
func generateArtifacts(ctx context.Context, g *kb.Generator, outDir string, genTOC, genKB, condense bool) error {
	// Both generation steps scan outDir, so run them before writing any
	// artifact into it.
	var toc, kbContent string
	var err error
	if genTOC {
		if toc, err = g.GenerateTOC(ctx, outDir); err != nil {
			return fmt.Errorf("toc: %w", err)
		}
	}
	if genKB {
		if kbContent, err = g.GenerateKB(ctx, outDir); err != nil {
			return fmt.Errorf("extract: %w", err)
		}
	}

	if genTOC {
		if err := writeArtifact(outDir, kb.TOCFileName, toc); err != nil {
			return err
		}
	}
	if genKB {
		if err := writeArtifact(outDir, kb.KBFileName, kbContent); err != nil {
			return err
		}
	}

	if condense {
		if kbContent == "" {
			data, err := os.ReadFile(filepath.Join(outDir, kb.KBFileName))
			if err != nil {
				return fmt.Errorf("condense: read %s: %w", kb.KBFileName, err)
			}
			kbContent = string(data)
		}
		condensed, err := g.Condense(ctx, kbContent)
		if err != nil {
			return fmt.Errorf("condense: %w", err)
		}
		if err := writeArtifact(outDir, kb.CondensedFileName, condensed); err != nil {
			return err
		}
	}
	return nil
}

func writeArtifact(outDir, name, content string) error {
	path := filepath.Join(outDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func render(s models.BatchSummary) {
	fmt.Printf("Converted %d/%d documents", s.Succeeded, s.Total)
	if s.OutputDir != "" {
		fmt.Printf(" into %s", s.OutputDir)
	}
	fmt.Println()

	for _, r := range s.Results {
		switch r.Outcome {
		case models.OutcomeSuccess:
			fmt.Printf("  ok    %-50s -> %s\n", truncate(r.Input, 50), r.OutputPath)
		case models.OutcomeFailure:
			fmt.Printf("  FAIL  %-50s %s (attempts: %d)\n", truncate(r.Input, 50), r.Error, r.Attempts)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
