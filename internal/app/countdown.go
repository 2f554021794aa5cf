package app

import (
	"context"
	"sync"
	"time"

	"driving-exam-service/internal/domain"
)

// Countdown drives a session's remaining time once per interval and completes
// the session when it reaches zero. A host runs at most one per session.
type Countdown struct {
	session  *Session
	interval time.Duration
	onTick   func(domain.ExamSession)
	onExpire func(domain.ExamResult)

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// CountdownOption configures a Countdown.
type CountdownOption func(*Countdown)

// WithInterval overrides the default one second tick.
func WithInterval(d time.Duration) CountdownOption {
	return func(c *Countdown) { c.interval = d }
}

// WithTickHandler is called with a snapshot after every tick.
func WithTickHandler(fn func(domain.ExamSession)) CountdownOption {
	return func(c *Countdown) { c.onTick = fn }
}

// WithExpireHandler is called once when the countdown completes the session.
func WithExpireHandler(fn func(domain.ExamResult)) CountdownOption {
	return func(c *Countdown) { c.onExpire = fn }
}

func NewCountdown(session *Session, opts ...CountdownOption) *Countdown {
	c := &Countdown{
		session:  session,
		interval: time.Second,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Tick applies one step: remaining-1, then completion once it hits zero.
// It reports whether the countdown is finished.
func (c *Countdown) Tick() (int, bool) {
	if c.session.State() == domain.SessionCompleted {
		return c.session.TimeRemaining(), true
	}

	newTime := c.session.TimeRemaining() - 1
	c.session.UpdateTime(newTime)
	if c.onTick != nil {
		c.onTick(c.session.Snapshot())
	}
	if newTime > 0 {
		return newTime, false
	}

	result, first := c.session.complete()
	if first && c.onExpire != nil {
		c.onExpire(result)
	}
	return 0, true
}

// Run ticks until expiry, Stop, context cancellation or external completion.
func (c *Countdown) Run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			if _, finished := c.Tick(); finished {
				return
			}
		}
	}
}

// Stop ends Run. Safe to call more than once and before Run starts.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Done is closed when Run returns.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}
