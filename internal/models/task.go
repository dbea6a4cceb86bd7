package models

import (
	"time"
)

// InputKind classifies a raw input string.
type InputKind string

const (
	KindURL     InputKind = "url"
	KindWord    InputKind = "word"
	KindPDF     InputKind = "pdf"
	KindUnknown InputKind = "unknown"
)

// ClassifiedInput is a validated input ready for conversion. For local kinds
// (word, pdf) ResolvedPath always points at an existing regular file; for
// URLs it is empty.
type ClassifiedInput struct {
	Raw          string    `json:"raw"`
	Kind         InputKind `json:"kind"`
	ResolvedPath string    `json:"resolvedPath,omitempty"`
}

// TaskStatus is the lifecycle state of a conversion task.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusRetrying  TaskStatus = "retrying"
	StatusSucceeded TaskStatus = "succeeded"
	StatusFailed    TaskStatus = "failed"
)

// Terminal reports whether the status is final.
func (s TaskStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

var allowedTransitions = map[TaskStatus][]TaskStatus{
	StatusPending:  {StatusRunning},
	StatusRunning:  {StatusSucceeded, StatusRetrying, StatusFailed},
	StatusRetrying: {StatusRunning},
}

// CanTransition reports whether moving from s to next is a legal step in the
// task state machine.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	for _, t := range allowedTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// ConversionTask is one unit of work: a single classified input headed for a
// single output path. The scheduler owns the task exclusively until it
// reaches a terminal status; Attempt counts converter invocations so far.
type ConversionTask struct {
	ID         string          `json:"id"`
	Input      ClassifiedInput `json:"input"`
	OutputPath string          `json:"outputPath"`
	Attempt    int             `json:"attempt"`
	Status     TaskStatus      `json:"status"`
	LastErr    error           `json:"-"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Outcome is the terminal result kind of a task.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ConversionResult is the immutable terminal record of one task. Exactly one
// is produced per task.
type ConversionResult struct {
	TaskID     string  `json:"taskId"`
	Input      string  `json:"input"`
	OutputPath string  `json:"outputPath,omitempty"`
	Outcome    Outcome `json:"outcome"`
	Markdown   string  `json:"-"`
	Attempts   int     `json:"attempts"`
	Error      string  `json:"error,omitempty"`
	Err        error   `json:"-"`
}

// NewSuccessResult builds the terminal record for a succeeded task.
func NewSuccessResult(t *ConversionTask, markdown string) ConversionResult {
	return ConversionResult{
		TaskID:     t.ID,
		Input:      t.Input.Raw,
		OutputPath: t.OutputPath,
		Outcome:    OutcomeSuccess,
		Markdown:   markdown,
		Attempts:   t.Attempt,
	}
}

// NewFailureResult builds the terminal record for a failed task.
func NewFailureResult(t *ConversionTask, err error) ConversionResult {
	r := ConversionResult{
		TaskID:     t.ID,
		Input:      t.Input.Raw,
		OutputPath: t.OutputPath,
		Outcome:    OutcomeFailure,
		Attempts:   t.Attempt,
		Err:        err,
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Failure derives a failure record from an existing result, keeping identity
// fields. Used by the reporter when persisting a success fails.
func (r ConversionResult) Failure(err error) ConversionResult {
	out := r
	out.Outcome = OutcomeFailure
	out.Markdown = ""
	out.Err = err
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

// BatchSummary is the final report of a batch run. Results are in the
// original submission order regardless of completion order.
type BatchSummary struct {
	Total     int                `json:"total"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	OutputDir string             `json:"outputDir,omitempty"`
	Results   []ConversionResult `json:"results"`
}
