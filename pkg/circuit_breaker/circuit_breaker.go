package circuit_breaker

import (
	"errors"
	"sync"
	"time"
)

type State uint8

const (
	Closed State = iota + 1
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

var ErrOpen = errors.New("circuit breaker is open")

type CircuitBreaker interface {
	Call(fn func() error) error
	State() State
}

type Config struct {
	// Window is the number of most recent calls tracked while closed.
	Window int
	// Threshold is the failure ratio over Window that opens the breaker.
	Threshold float64
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
	// Probes is the number of consecutive successes in half-open needed to close.
	Probes int
	// Ignore reports errors that must not count as failures, e.g. a caller cancellation.
	Ignore func(error) bool
}

type breaker struct {
	mu  sync.Mutex
	cfg Config
	now func() time.Time

	state    State
	openedAt time.Time

	ring  []bool
	pos   int
	fails int

	successes int
}

func New(cfg Config) CircuitBreaker {
	if cfg.Window <= 0 {
		cfg.Window = 1
	}
	if cfg.Probes <= 0 {
		cfg.Probes = 1
	}
	return &breaker{
		cfg:   cfg,
		now:   time.Now,
		state: Closed,
		ring:  make([]bool, cfg.Window),
	}
}

func (b *breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *breaker) Call(fn func() error) error {
	if !b.allow() {
		return ErrOpen
	}
	err := fn()
	b.record(err)
	return err
}

func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Open {
		return true
	}
	if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
		return false
	}
	b.state = HalfOpen
	b.successes = 0
	return true
}

func (b *breaker) record(err error) {
	if err != nil && b.cfg.Ignore != nil && b.cfg.Ignore(err) {
		return
	}
	failed := err != nil

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		if failed {
			b.trip()
			return
		}
		b.successes++
		if b.successes >= b.cfg.Probes {
			b.reset()
		}
	case Closed:
		if b.ring[b.pos] {
			b.fails--
		}
		b.ring[b.pos] = failed
		if failed {
			b.fails++
		}
		b.pos = (b.pos + 1) % len(b.ring)
		if float64(b.fails)/float64(len(b.ring)) >= b.cfg.Threshold {
			b.trip()
		}
	}
}

func (b *breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.successes = 0
}

func (b *breaker) reset() {
	for i := range b.ring {
		b.ring[i] = false
	}
	b.pos, b.fails, b.successes = 0, 0, 0
	b.state = Closed
}
