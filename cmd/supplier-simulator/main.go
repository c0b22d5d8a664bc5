package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/player-props-platform/internal/shared/config"
	"github.com/radieske/player-props-platform/internal/shared/logger"
	"github.com/radieske/player-props-platform/internal/shared/metrics"
	"github.com/radieske/player-props-platform/internal/supplier-simulator/feed"
	"github.com/radieske/player-props-platform/internal/supplier-simulator/hub"
	"github.com/radieske/player-props-platform/pkg/contracts/events"
)

// cada jogo simulado fica aberto por este número de ticks
const gameTicks = 30

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Métricas Prometheus para monitoramento de conexões e mensagens
	wsConnections := prometheus.NewGauge(prometheus.GaugeOpts{Name: "supplier_ws_connections", Help: "Clientes WebSocket conectados"})
	wsMessagesSent := prometheus.NewCounter(prometheus.CounterOpts{Name: "supplier_ws_messages_sent_total", Help: "Total de mensagens WS enviadas"})
	statsEmitted := prometheus.NewCounter(prometheus.CounterOpts{Name: "supplier_stat_results_total", Help: "Resultados de estatística emitidos"})
	prometheus.MustRegister(wsConnections, wsMessagesSent, statsEmitted)

	h := hub.New(log)
	h.OnConnect = func(delta int) { wsConnections.Add(float64(delta)) }
	h.OnSent = func() { wsMessagesSent.Inc() }

	f := feed.New(feed.DefaultCatalog(), gameTicks, time.Now().UnixNano(), cfg.ServiceName)

	broadcast := func(envs []events.SupplierEnvelope) {
		msgs := make([]any, len(envs))
		for i, e := range envs {
			msgs[i] = e
			if e.Type == events.EnvelopeStat {
				statsEmitted.Inc()
			}
		}
		h.Broadcast(msgs...)
	}

	// Gera linhas (e fins de jogo) a cada intervalo
	go func() {
		ticker := time.NewTicker(cfg.SupplierInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				broadcast(f.Tick())
			}
		}
	}()

	// ==== MUX PÚBLICO: /ws, lista de jogos e finalização manual
	appMux := http.NewServeMux()
	appMux.HandleFunc("/ws", h.ServeWS)
	appMux.HandleFunc("GET /supplier/games", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.GameIDs())
	})
	appMux.HandleFunc("POST /supplier/games/{id}/finalize", func(w http.ResponseWriter, r *http.Request) {
		envs, ok := f.Finalize(r.PathValue("id"))
		if !ok {
			http.Error(w, "game not open", http.StatusNotFound)
			return
		}
		broadcast(envs)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(envs)
	})

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, nil)

	publicSrv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: appMux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("supplier simulator (public) running",
			zap.String("addr", publicSrv.Addr),
			zap.String("paths", "/ws,/supplier/games"),
		)
		if err := publicSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("public server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = publicSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("supplier simulator stopped")
}
