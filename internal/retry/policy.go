// Package retry decides whether a failed conversion attempt is worth
// repeating. The policy is consulted by the scheduler after each attempt;
// converters stay free of retry loops.
package retry

import (
	"time"

	"github.com/kbforge/kbforge/internal/errdefs"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMaxDelay    = 30 * time.Second
)

// Decision is the outcome of consulting the policy: retry after Delay, or
// give up.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// GiveUp is the terminal decision.
var GiveUp = Decision{}

// After schedules a retry after d.
func After(d time.Duration) Decision {
	return Decision{Retry: true, Delay: d}
}

// Policy bounds retries: a task never runs more than MaxAttempts times, and
// backoff grows exponentially from BaseDelay up to MaxDelay.
type Policy struct {
	MaxAttempts int           `yaml:"maxAttempts"` // total attempts, including the first
	BaseDelay   time.Duration `yaml:"baseDelay"`
	MaxDelay    time.Duration `yaml:"maxDelay"`
}

// Default returns the policy used when no configuration overrides it.
func Default() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	return p
}

// Decide returns the decision for a task that has failed with err after
// `attempt` completed attempts. Permanent errors and exhausted budgets give
// up; transient errors back off exponentially: BaseDelay << (attempt-1),
// capped at MaxDelay.
func (p Policy) Decide(err error, attempt int) Decision {
	p = p.withDefaults()

	if attempt >= p.MaxAttempts {
		return GiveUp
	}
	if !errdefs.IsTransient(err) {
		return GiveUp
	}

	delay := p.BaseDelay
	if attempt > 1 {
		delay = p.BaseDelay << uint(attempt-1)
	}
	if delay > p.MaxDelay || delay <= 0 {
		delay = p.MaxDelay
	}
	return After(delay)
}
