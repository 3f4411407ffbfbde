package sim

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Ticker is anything that advances by one fixed step per call.
type Ticker interface {
	Tick() bool
}

// LoopStats reports how the loop kept up with its target rate.
type LoopStats struct {
	Ticks   uint64
	Skipped uint64
	Slow    uint64
	MaxTick time.Duration
}

// Loop drives a Ticker from a wall-clock ticker. Ticks that could not run
// on time are dropped, never replayed.
type Loop struct {
	target   Ticker
	period   time.Duration
	warnOver time.Duration
	logger   *log.Logger

	ticks   atomic.Uint64
	skipped atomic.Uint64
	slow    atomic.Uint64
	maxTick atomic.Int64
}

func NewLoop(target Ticker, tickRate int, logger *log.Logger) *Loop {
	if tickRate <= 0 {
		tickRate = 60
	}
	if logger == nil {
		logger = log.Default()
	}
	period := time.Second / time.Duration(tickRate)
	return &Loop{
		target:   target,
		period:   period,
		warnOver: period / 2,
		logger:   logger,
	}
}

func (l *Loop) Period() time.Duration { return l.period }

// Run blocks until ctx is cancelled and returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	l.logger.Printf("[loop] started: tick every %v", l.period)
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			st := l.Stats()
			l.logger.Printf("[loop] stopped after %d ticks (%d skipped)", st.Ticks, st.Skipped)
			return ctx.Err()
		case now := <-ticker.C:
			l.step(now, last)
			last = now
		}
	}
}

func (l *Loop) step(now, last time.Time) {
	// time.Ticker drops ticks for slow receivers; count what was lost.
	if gap := now.Sub(last); gap > l.period*3/2 {
		missed := uint64(gap/l.period) - 1
		l.skipped.Add(missed)
	}

	start := time.Now()
	if l.target.Tick() {
		l.ticks.Add(1)
	}
	took := time.Since(start)

	if int64(took) > l.maxTick.Load() {
		l.maxTick.Store(int64(took))
	}
	if took > l.warnOver {
		l.slow.Add(1)
		l.logger.Printf("[loop] WARNING: tick took %v (budget %v)", took, l.period)
	}
}

func (l *Loop) Stats() LoopStats {
	return LoopStats{
		Ticks:   l.ticks.Load(),
		Skipped: l.skipped.Load(),
		Slow:    l.slow.Load(),
		MaxTick: time.Duration(l.maxTick.Load()),
	}
}
