package circuitbreaker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ajuna-network/affiliate-fix/internal/retry"
)

// ErrOpen is returned without calling the remote side while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type Config struct {
	// Name labels errors and state changes, e.g. "subscan".
	Name string
	// FailureThreshold is the number of consecutive transient failures
	// that opens the breaker (default 5).
	FailureThreshold int
	// SuccessThreshold is the number of half-open successes that close it
	// again (default 1).
	SuccessThreshold int
	// OpenTimeout is how long the breaker rejects calls before letting a
	// probe through (default 30s).
	OpenTimeout   time.Duration
	OnStateChange func(name string, from, to State)
}

// Breaker stops calling a remote service after a run of transient failures.
// Terminal failures (bad request, unknown event) say nothing about the
// service's health and do not count.
type Breaker struct {
	name             string
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
	onStateChange    func(name string, from, to State)
	now              func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
	probing   bool
}

func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	return &Breaker{
		name:             cfg.Name,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		openTimeout:      cfg.OpenTimeout,
		onStateChange:    cfg.OnStateChange,
		now:              time.Now,
	}
}

// Execute runs fn unless the breaker is open. The rejection is terminal for
// retry.Do: retrying against an open breaker only burns attempts.
// A nil Breaker always runs fn.
func (b *Breaker) Execute(fn func() error) error {
	if b == nil {
		return fn()
	}
	if err := b.allow(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.openTimeout {
			return retry.Terminal(fmt.Errorf("%s: %w", b.name, ErrOpen))
		}
		b.setState(StateHalfOpen)
		b.probing = true
		return nil
	case StateHalfOpen:
		// One probe at a time.
		if b.probing {
			return retry.Terminal(fmt.Errorf("%s: %w", b.name, ErrOpen))
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	if err != nil && retry.Classify(err).IsTransient() {
		b.failures++
		b.successes = 0
		if b.state == StateHalfOpen || b.failures >= b.failureThreshold {
			b.openedAt = b.now()
			b.setState(StateOpen)
		}
		return
	}

	b.failures = 0
	if b.state == StateHalfOpen {
		b.successes++
		if b.successes >= b.successThreshold {
			b.setState(StateClosed)
		}
	}
}

func (b *Breaker) setState(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.successes = 0
	if to == StateClosed {
		b.failures = 0
	}
	if b.onStateChange != nil {
		b.onStateChange(b.name, from, to)
	}
}
