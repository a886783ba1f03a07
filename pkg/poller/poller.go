// Package poller runs a function on a fixed interval until it reports a
// terminal result, the context ends, or a bound is hit.
package poller

import (
	"context"
	"errors"
	"time"

	"k8s.io/utils/clock"
)

var ErrLimitReached = errors.New("polling limit reached")

type Config struct {
	Interval    time.Duration
	MaxAttempts int           // 0 = unbounded
	MaxDuration time.Duration // 0 = unbounded
}

// PollFunc is called once per tick. Returning done=true stops the poller
// and Run returns err; done=false with an error counts as a failed attempt.
type PollFunc func(ctx context.Context, attempt int) (done bool, err error)

type Poller struct {
	clock clock.WithTicker
	cfg   Config
}

func New(clk clock.WithTicker, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	return &Poller{clock: clk, cfg: cfg}
}

// Run waits one interval before the first call.
func (p *Poller) Run(ctx context.Context, fn PollFunc) error {
	ticker := p.clock.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	var deadline time.Time
	if p.cfg.MaxDuration > 0 {
		deadline = p.clock.Now().Add(p.cfg.MaxDuration)
	}

	for attempt := 1; ; attempt++ {
		var now time.Time
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now = <-ticker.C():
		}

		done, err := fn(ctx, attempt)
		if done {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if p.cfg.MaxAttempts > 0 && attempt >= p.cfg.MaxAttempts {
			return ErrLimitReached
		}
		if !deadline.IsZero() && !now.Before(deadline) {
			return ErrLimitReached
		}
	}
}
