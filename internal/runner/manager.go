package runner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"spot_bot/pkg/logger"
)

// Manager runs one goroutine per trader.
type Manager struct {
	log     *logger.Logger
	traders []*Trader

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func NewManager(traders []*Trader, log *logger.Logger) *Manager {
	sorted := append([]*Trader(nil), traders...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Symbol() < sorted[j].Symbol() })
	return &Manager{
		log:     log,
		traders: sorted,
	}
}

func (m *Manager) Traders() []*Trader { return m.traders }

// Start launches every trader. It is a no-op when already running.
func (m *Manager) Start(parent context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	m.cancel = cancel
	m.running = true

	for _, t := range m.traders {
		m.wg.Add(1)
		go func(t *Trader) {
			defer m.wg.Done()
			t.Run(ctx)
		}(t)
	}
	m.log.Zap().Sugar().Infof("started %d traders", len(m.traders))
}

// Stop cancels every trader and waits for in-flight ticks to end.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.cancel()
	m.running = false
	m.mu.Unlock()

	m.wg.Wait()
}

// Status is a one-line-per-trader summary.
func (m *Manager) Status(_ context.Context) string {
	if len(m.traders) == 0 {
		return "no traders configured"
	}
	var b strings.Builder
	for _, t := range m.traders {
		last, err := t.LastTick()
		fmt.Fprintf(&b, "%s [%s] %s", t.Symbol(), t.Strategy(), t.State())
		if !last.IsZero() {
			fmt.Fprintf(&b, ", last tick %s ago", time.Since(last).Round(time.Second))
		}
		if err != nil {
			fmt.Fprintf(&b, ", error: %v", err)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Exposure reports open grid exposure per symbol.
func (m *Manager) Exposure(ctx context.Context) string {
	var b strings.Builder
	for _, t := range m.traders {
		l := t.Ledger()
		if l == nil {
			continue
		}
		exp, err := l.TotalOpenExposure(ctx)
		if err != nil {
			fmt.Fprintf(&b, "%s: error: %v\n", t.Symbol(), err)
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", t.Symbol(), exp.StringFixed(2))
	}
	if b.Len() == 0 {
		return "no grid traders"
	}
	return b.String()
}
