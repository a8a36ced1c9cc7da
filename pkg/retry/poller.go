package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrAttemptsExhausted is returned when a poll never reported done
var ErrAttemptsExhausted = errors.New("attempts exhausted")

// Policy bounds a polling loop by attempt count with a fixed delay
type Policy struct {
	MaxAttempts int
	Interval    time.Duration
}

// Validate checks the policy is usable
func (p Policy) Validate() error {
	if p.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got %d", p.MaxAttempts)
	}
	if p.Interval < 0 {
		return fmt.Errorf("interval must not be negative, got %s", p.Interval)
	}
	return nil
}

// CheckFunc reports whether the awaited condition holds. A non-nil
// error stops polling immediately.
type CheckFunc func(ctx context.Context, attempt int) (done bool, err error)

// Poller runs bounded polling loops
type Poller struct {
	policy Policy
	logger *zap.Logger
}

// NewPoller creates a new poller
func NewPoller(policy Policy, logger *zap.Logger) (*Poller, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid poll policy: %w", err)
	}
	return &Poller{policy: policy, logger: logger}, nil
}

// Poll calls check up to MaxAttempts times, sleeping Interval between
// calls. It returns nil once check reports done.
func (p *Poller) Poll(ctx context.Context, name string, check CheckFunc) error {
	for attempt := 1; attempt <= p.policy.MaxAttempts; attempt++ {
		done, err := check(ctx, attempt)
		if err != nil {
			return err
		}
		if done {
			if attempt > 1 {
				p.logger.Debug("Poll condition met",
					zap.String("poll", name),
					zap.Int("attempt", attempt))
			}
			return nil
		}
		if attempt == p.policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.policy.Interval):
		}
	}

	p.logger.Warn("Poll attempts exhausted",
		zap.String("poll", name),
		zap.Int("max_attempts", p.policy.MaxAttempts),
		zap.Duration("interval", p.policy.Interval))
	return fmt.Errorf("%s: %w after %d attempts", name, ErrAttemptsExhausted, p.policy.MaxAttempts)
}

// Poll is a package-level helper for one-off loops
func Poll(ctx context.Context, policy Policy, logger *zap.Logger, name string, check CheckFunc) error {
	poller, err := NewPoller(policy, logger)
	if err != nil {
		return err
	}
	return poller.Poll(ctx, name, check)
}
