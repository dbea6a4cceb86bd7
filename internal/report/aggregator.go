package report

import (
	"context"

	"github.com/kbforge/kbforge/internal/models"
	"github.com/kbforge/kbforge/pkg/logger"
	"github.com/kbforge/kbforge/pkg/sink"
)

// Aggregator persists successful conversions through a sink and folds the
// per-task results into a batch summary. Results keep their submission order.
type Aggregator struct {
	sink      sink.Sink
	outputDir string
	logger    logger.Logger
}

func NewAggregator(s sink.Sink, outputDir string, log logger.Logger) *Aggregator {
	return &Aggregator{sink: s, outputDir: outputDir, logger: log}
}

// Aggregate writes every successful result's markdown to the sink and counts
// outcomes. A result that converted but cannot be persisted is demoted to a
// failure carrying the write error.
func (a *Aggregator) Aggregate(ctx context.Context, results []models.ConversionResult) models.BatchSummary {
	summary := models.BatchSummary{
		Total:     len(results),
		OutputDir: a.outputDir,
		Results:   make([]models.ConversionResult, 0, len(results)),
	}

	for _, r := range results {
		if r.Outcome == models.OutcomeSuccess {
			if err := a.sink.Write(ctx, r.OutputPath, []byte(r.Markdown)); err != nil {
				a.logger.Error("Failed to persist converted document",
					logger.String("input", r.Input),
					logger.String("path", r.OutputPath),
					logger.Error(err),
				)
				r = r.Failure(err)
			}
		}

		switch r.Outcome {
		case models.OutcomeSuccess:
			summary.Succeeded++
		case models.OutcomeFailure:
			summary.Failed++
		}
		summary.Results = append(summary.Results, r)
	}

	a.logger.Info("Batch complete",
		logger.Int("total", summary.Total),
		logger.Int("succeeded", summary.Succeeded),
		logger.Int("failed", summary.Failed),
	)
	return summary
}
