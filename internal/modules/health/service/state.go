package service

import (
	"sync"
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	wsConnected atomic.Bool

	mu        sync.RWMutex
	lastTicks map[string]time.Time
}

func NewState() *State {
	s := &State{
		startedAt: time.Now(),
		lastTicks: make(map[string]time.Time),
	}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetWSConnected(v bool) { s.wsConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.wsConnected.Load() }

// TouchTick records that the trader for symbol finished a tick.
func (s *State) TouchTick(symbol string, t time.Time) {
	s.mu.Lock()
	s.lastTicks[symbol] = t
	s.mu.Unlock()
}

func (s *State) LastTicks() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]time.Time, len(s.lastTicks))
	for k, v := range s.lastTicks {
		out[k] = v
	}
	return out
}

// Stale lists symbols whose last tick is older than maxAge.
func (s *State) Stale(now time.Time, maxAge time.Duration) []string {
	var out []string
	for sym, t := range s.LastTicks() {
		if now.Sub(t) > maxAge {
			out = append(out, sym)
		}
	}
	return out
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
