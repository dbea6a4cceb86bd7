package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbforge/kbforge/internal/models"
	"github.com/kbforge/kbforge/pkg/logger"
)

// memSink records writes and can be scripted to fail per path.
type memSink struct {
	writes map[string][]byte
	fail   map[string]error
}

func newMemSink() *memSink {
	return &memSink{writes: map[string][]byte{}, fail: map[string]error{}}
}

func (m *memSink) Write(_ context.Context, path string, data []byte) error {
	if err := m.fail[path]; err != nil {
		return err
	}
	m.writes[path] = data
	return nil
}

func success(id, input, path, md string) models.ConversionResult {
	return models.ConversionResult{
		TaskID: id, Input: input, OutputPath: path,
		Outcome: models.OutcomeSuccess, Markdown: md, Attempts: 1,
	}
}

func failure(id, input, path, msg string) models.ConversionResult {
	return models.ConversionResult{
		TaskID: id, Input: input, OutputPath: path,
		Outcome: models.OutcomeFailure, Error: msg, Err: errors.New(msg), Attempts: 3,
	}
}

func TestAggregateWritesSuccesses(t *testing.T) {
	s := newMemSink()
	agg := NewAggregator(s, "out", logger.NewTestLogger())

	summary := agg.Aggregate(context.Background(), []models.ConversionResult{
		success("a", "https://one", "one.md", "# One"),
		failure("b", "https://two", "two.md", "http status 404"),
		success("c", "https://three", "three.md", "# Three"),
	})

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, "out", summary.OutputDir)

	require.Len(t, s.writes, 2)
	assert.Equal(t, []byte("# One"), s.writes["one.md"])
	assert.Equal(t, []byte("# Three"), s.writes["three.md"])
}

func TestAggregateDemotesWriteFailures(t *testing.T) {
	s := newMemSink()
	s.fail["one.md"] = errors.New("disk full")
	agg := NewAggregator(s, "out", logger.NewTestLogger())

	summary := agg.Aggregate(context.Background(), []models.ConversionResult{
		success("a", "https://one", "one.md", "# One"),
		success("b", "https://two", "two.md", "# Two"),
	})

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	require.Len(t, summary.Results, 2)
	demoted := summary.Results[0]
	assert.Equal(t, models.OutcomeFailure, demoted.Outcome)
	assert.Equal(t, "a", demoted.TaskID)
	assert.Contains(t, demoted.Error, "disk full")
	assert.Empty(t, demoted.Markdown)
}

func TestAggregatePreservesOrder(t *testing.T) {
	s := newMemSink()
	agg := NewAggregator(s, "", logger.NewTestLogger())

	in := []models.ConversionResult{
		failure("a", "x", "x.md", "boom"),
		success("b", "y", "y.md", "# Y"),
		failure("c", "z", "z.md", "boom"),
	}
	summary := agg.Aggregate(context.Background(), in)

	require.Len(t, summary.Results, 3)
	assert.Equal(t, "a", summary.Results[0].TaskID)
	assert.Equal(t, "b", summary.Results[1].TaskID)
	assert.Equal(t, "c", summary.Results[2].TaskID)
}

func TestAggregateEmpty(t *testing.T) {
	agg := NewAggregator(newMemSink(), "", logger.NewTestLogger())
	summary := agg.Aggregate(context.Background(), nil)
	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.Results)
}
