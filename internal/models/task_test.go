package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to TaskStatus
		ok       bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusRunning, StatusSucceeded, true},
		{StatusRunning, StatusRetrying, true},
		{StatusRunning, StatusFailed, true},
		{StatusRetrying, StatusRunning, true},

		{StatusPending, StatusSucceeded, false},
		{StatusPending, StatusFailed, false},
		{StatusRetrying, StatusFailed, false},
		{StatusSucceeded, StatusRunning, false},
		{StatusFailed, StatusRunning, false},
		{StatusSucceeded, StatusFailed, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusSucceeded.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.False(t, StatusRetrying.Terminal())
}

func TestResultFailureKeepsIdentity(t *testing.T) {
	task := &ConversionTask{
		ID:         "t1",
		Input:      ClassifiedInput{Raw: "https://x", Kind: KindURL},
		OutputPath: "x.md",
		Attempt:    2,
	}
	r := NewSuccessResult(task, "# X")

	demoted := r.Failure(errors.New("disk full"))
	assert.Equal(t, OutcomeFailure, demoted.Outcome)
	assert.Equal(t, "t1", demoted.TaskID)
	assert.Equal(t, "https://x", demoted.Input)
	assert.Equal(t, "x.md", demoted.OutputPath)
	assert.Equal(t, 2, demoted.Attempts)
	assert.Empty(t, demoted.Markdown)
	assert.Contains(t, demoted.Error, "disk full")
}
