package conversion

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kbforge/kbforge/config"
	"github.com/kbforge/kbforge/internal/classifier"
	"github.com/kbforge/kbforge/internal/converter"
	"github.com/kbforge/kbforge/internal/models"
	"github.com/kbforge/kbforge/internal/report"
	"github.com/kbforge/kbforge/internal/retry"
	"github.com/kbforge/kbforge/internal/scheduler"
	"github.com/kbforge/kbforge/pkg/logger"
	"github.com/kbforge/kbforge/pkg/sink"
)

// Service is the conversion engine facade: it classifies raw references,
// schedules the convertible ones, and persists the results. One Service is
// safe for concurrent batches.
type Service struct {
	classifier *classifier.Classifier
	scheduler  *scheduler.Scheduler
	aggregator *report.Aggregator
	cfg        config.EngineConfig
	logger     logger.Logger
}

// NewService wires a Service from engine config. The sink is chosen by
// cfg.Sink; object-store sinks read their credentials from the environment.
func NewService(cfg config.EngineConfig, log logger.Logger) (*Service, error) {
	var copts []classifier.Option
	if cfg.CheckConnectivity {
		copts = append(copts, classifier.WithConnectivityCheck(cfg.HTTPTimeout.Std()))
	}

	registry := converter.DefaultRegistry(log, cfg.HTTPTimeout.Std())
	sched, err := scheduler.New(registry, log, scheduler.Config{
		Concurrency: cfg.Concurrency,
		ItemTimeout: cfg.ItemTimeout.Std(),
		Policy: retry.Policy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BaseDelay.Std(),
			MaxDelay:    cfg.MaxDelay.Std(),
		},
	})
	if err != nil {
		return nil, err
	}

	out, err := sink.New(sink.Type(cfg.Sink), cfg.OutputDir, log)
	if err != nil {
		return nil, err
	}

	return &Service{
		classifier: classifier.New(log, copts...),
		scheduler:  sched,
		aggregator: report.NewAggregator(out, cfg.OutputDir, log),
		cfg:        cfg,
		logger:     log,
	}, nil
}

// RunBatch converts a batch of raw document references. Inputs that fail
// classification become failure results without ever reaching a converter;
// the rest run through the scheduler. The summary lists one result per input
// in submission order. The returned error is reserved for scheduler faults,
// not per-item failures.
func (s *Service) RunBatch(ctx context.Context, inputs []string) (models.BatchSummary, error) {
	s.logger.Info("Starting batch conversion",
		logger.Int("inputs", len(inputs)),
		logger.String("outputDir", s.cfg.OutputDir),
	)

	names := newNamer(s.cfg.OutputDir)

	// Classification can hit the network when connectivity checks are on,
	// so it runs in parallel; results land in indexed slots.
	classified := make([]models.ClassifiedInput, len(inputs))
	cerrs := make([]error, len(inputs))
	limit := s.cfg.Concurrency
	if limit < 1 {
		limit = scheduler.DefaultConcurrency
	}
	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i, raw := range inputs {
		g.Go(func() error {
			classified[i], cerrs[i] = s.classifier.Classify(raw)
			return nil
		})
	}
	g.Wait()

	// Classification failures are decided now; convertible inputs keep their
	// slot so the final report stays in submission order.
	prejudged := make([]models.ConversionResult, len(inputs))
	slots := make([]int, 0, len(inputs))
	tasks := make([]*models.ConversionTask, 0, len(inputs))

	for i, raw := range inputs {
		in, err := classified[i], cerrs[i]
		if err != nil {
			s.logger.Warn("Input rejected",
				logger.String("input", raw),
				logger.Error(err),
			)
			t := &models.ConversionTask{ID: uuid.New().String(), Input: models.ClassifiedInput{Raw: raw, Kind: models.KindUnknown}}
			prejudged[i] = models.NewFailureResult(t, err)
			continue
		}

		tasks = append(tasks, &models.ConversionTask{
			ID:         uuid.New().String(),
			Input:      in,
			OutputPath: names.Name(in),
			Status:     models.StatusPending,
			CreatedAt:  time.Now(),
		})
		slots = append(slots, i)
	}

	converted, err := s.scheduler.Run(ctx, tasks)
	if err != nil {
		return models.BatchSummary{}, err
	}

	ordered := prejudged
	for j, r := range converted {
		ordered[slots[j]] = r
	}

	return s.aggregator.Aggregate(ctx, ordered), nil
}

// ConvertSingle converts one reference with the same classification, retry
// and persistence behavior as a batch of one.
func (s *Service) ConvertSingle(ctx context.Context, input string) (models.ConversionResult, error) {
	summary, err := s.RunBatch(ctx, []string{input})
	if err != nil {
		return models.ConversionResult{}, err
	}
	return summary.Results[0], nil
}
