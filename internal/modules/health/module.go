package health

import (
	"context"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"spot_bot/internal/metrics"
	"spot_bot/internal/modules/config"
	"spot_bot/internal/modules/health/service"
	"spot_bot/pkg/logger"
)

type Config struct {
	Addr string
	// StaleAfter marks a trader unhealthy when it has not ticked for this long.
	StaleAfter time.Duration
}

func NewConfig(cfg *config.Config) Config {
	addr := cfg.Health.Addr
	if addr == "" {
		addr = ":8080"
	}
	// the slowest trader sets the bound
	longest := time.Duration(cfg.CheckInterval) * time.Second
	for _, sc := range cfg.SymbolConfigs() {
		if sc.CheckInterval > longest {
			longest = sc.CheckInterval
		}
	}
	return Config{
		Addr:       addr,
		StaleAfter: 3 * longest,
	}
}

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

type healthResponse struct {
	Ready        bool             `json:"ready"`
	WSConnected  bool             `json:"wsConnected"`
	UptimeSec    int64            `json:"uptimeSec"`
	LastTickUnix map[string]int64 `json:"lastTickUnix"`
	Stale        []string         `json:"stale,omitempty"`
}

func NewMux(state *service.State, cfg Config, reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Ready:        state.Ready(),
			WSConnected:  state.WSConnected(),
			UptimeSec:    int64(state.Uptime().Seconds()),
			LastTickUnix: map[string]int64{},
		}
		for sym, t := range state.LastTicks() {
			resp.LastTickUnix[sym] = t.Unix()
		}
		if cfg.StaleAfter > 0 {
			resp.Stale = state.Stale(time.Now(), cfg.StaleAfter)
			sort.Strings(resp.Stale)
		}
		body, err := sonic.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if len(resp.Stale) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write(body)
	})

	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return mux
}

func RunHTTP(lc fx.Lifecycle, cfg Config, mux *http.ServeMux, log *logger.Logger) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					log.Zap().Error("health server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			NewConfig,
			NewRegistry,
			NewMetrics,
			NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
