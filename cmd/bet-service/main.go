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

	bhttp "github.com/radieske/player-props-platform/internal/bet-service/http"
	kpub "github.com/radieske/player-props-platform/internal/bet-service/producer"
	"github.com/radieske/player-props-platform/internal/bet-service/props"
	"github.com/radieske/player-props-platform/internal/bet-service/repo"
	"github.com/radieske/player-props-platform/internal/shared/betting"
	"github.com/radieske/player-props-platform/internal/shared/cache"
	"github.com/radieske/player-props-platform/internal/shared/config"
	"github.com/radieske/player-props-platform/internal/shared/db"
	"github.com/radieske/player-props-platform/internal/shared/kafka"
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

	// Postgres: apostas, picks e carteira no mesmo banco
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()
	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, pg); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
	}

	// Redis: linhas correntes das props
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic bet_placed)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer writer.Close()

	// Métricas Prometheus
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "bets_placed_total", Help: "apostas criadas por modo"}, []string{"mode"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "bets_rejected_total", Help: "apostas recusadas por motivo"}, []string{"reason"})
	prometheus.MustRegister(placed, rejected)

	// deps
	lines := cache.NewPropStore(rdb, 0)
	api := bhttp.NewServer(
		log,
		repo.NewPostgres(pg),
		props.NewValidator(lines, cfg.RequireCachedProps),
		kpub.NewKafkaPublisher(writer),
		betting.NewCalculator(betting.DefaultMultipliers()),
	)
	api.OnPlaced = func(mode string) { placed.WithLabelValues(mode).Inc() }
	api.OnRejected = func(reason string) { rejected.WithLabelValues(reason).Inc() }

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.Checks(map[string]metrics.HealthFunc{
		"pg":    pg.PingContext,
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}))

	// HTTP público
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("bet-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("bet-service stopped")
}
