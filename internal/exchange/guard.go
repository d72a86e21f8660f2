package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// accountKey names the breaker for calls that are not tied to a pair.
const accountKey = "account"

// Guard throttles outgoing calls and opens a circuit after repeated failures.
// The rate limiter is shared because the exchange limits per API key. Each
// pair gets its own breaker so one failing market does not stop the others.
type Guard struct {
	name     string
	limiter  *rate.Limiter
	settings gobreaker.Settings

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewGuard(name string, rps float64, burst int) *Guard {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 1
	}
	st := gobreaker.Settings{
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 5 {
				return true
			}
			if counts.Requests < 20 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isClientFault(err) || errors.Is(err, context.Canceled)
		},
	}
	return &Guard{
		name:     name,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		settings: st,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (g *Guard) breaker(key string) *gobreaker.CircuitBreaker {
	if key == "" {
		key = accountKey
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	cb, ok := g.breakers[key]
	if !ok {
		st := g.settings
		st.Name = g.name + ":" + key
		cb = gobreaker.NewCircuitBreaker(st)
		g.breakers[key] = cb
	}
	return cb
}

// Do waits for a rate token and runs fn through the breaker of key.
func (g *Guard) Do(ctx context.Context, key string, fn func() error) error {
	if g == nil {
		return fn()
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limit wait")
	}
	cb := g.breaker(key)
	_, err := cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.Wrap(err, cb.Name())
	}
	return err
}

// State reports the breaker of key; an empty key is the account breaker.
func (g *Guard) State(key string) gobreaker.State {
	return g.breaker(key).State()
}
