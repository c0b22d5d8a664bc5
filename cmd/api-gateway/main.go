package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/player-props-platform/internal/api-gateway/proxy"
	"github.com/radieske/player-props-platform/internal/shared/config"
	"github.com/radieske/player-props-platform/internal/shared/logger"
	"github.com/radieske/player-props-platform/internal/shared/metrics"
)

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

	upstreamErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_upstream_errors_total",
		Help: "Falhas ao repassar requisições por upstream",
	}, []string{"prefix"})
	prometheus.MustRegister(upstreamErrors)

	// props (ex.: /api/props/v1/games -> props-service /v1/games)
	// wallet (ex.: /api/wallet/wallet -> wallet-service /wallet)
	// bets (ex.: /api/bets/v1/bets -> bet-service /v1/bets)
	router, err := proxy.NewRouter(proxy.Options{
		Log: log,
		Upstreams: []proxy.Upstream{
			{Prefix: "/api/props", Target: cfg.PropsServiceURL},
			{Prefix: "/api/wallet", Target: cfg.WalletServiceURL},
			{Prefix: "/api/bets", Target: cfg.BetServiceURL},
		},
		CORSOrigins:     cfg.CORSOrigins,
		OnUpstreamError: func(prefix string) { upstreamErrors.WithLabelValues(prefix).Inc() },
	})
	if err != nil {
		log.Fatal("gateway routes", zap.Error(err))
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, nil)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("api-gateway listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("gateway failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("api-gateway stopped")
}
