package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/player-props-platform/internal/settlement/consumer"
	"github.com/radieske/player-props-platform/internal/settlement/producer"
	"github.com/radieske/player-props-platform/internal/settlement/repo"
	"github.com/radieske/player-props-platform/internal/settlement/scheduler"
	"github.com/radieske/player-props-platform/internal/settlement/service"
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

	// Postgres: apostas, picks e carteira (crédito na mesma transação)
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

	// Redis: encerra a prop antes de graduar para o bet-service recusar novos picks
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka: consome stat_results, publica bet_settled, DLQ para falhas
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicStatResults, cfg.SettlementGroupID)
	defer reader.Close()
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settledWriter.Close()
	dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicStatResultDLQ)
	defer dlqWriter.Close()

	// Métricas Prometheus
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_stat_results_consumed_total", Help: "stat results lidos"})
	graded := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_picks_graded_total", Help: "picks graduados"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_bets_settled_total", Help: "apostas liquidadas por status"}, []string{"status"})
	dlq := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_dlq_total", Help: "mensagens enviadas para DLQ"})
	errs := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por fase"}, []string{"stage"})
	prometheus.MustRegister(consumed, graded, settled, dlq, errs)

	settler := &service.Settler{
		Log:        log,
		Store:      repo.NewPostgres(pg),
		Pub:        producer.NewKafkaPublisher(settledWriter),
		Props:      cache.NewPropStore(rdb, 0),
		SweepBatch: 200,
		OnGraded:   func(n int) { graded.Add(float64(n)) },
		OnSettled:  func(status string) { settled.WithLabelValues(status).Inc() },
		OnError:    func(stage string) { errs.WithLabelValues(stage).Inc() },
	}

	cons := &consumer.Consumer{
		Log:        log,
		Reader:     reader,
		DLQ:        dlqWriter,
		Handler:    settler,
		MaxRetries: cfg.SettlementMaxRetries,
		Backoff:    300 * time.Millisecond,
		OnConsumed: func() { consumed.Inc() },
		OnDLQ:      func() { dlq.Inc() },
		OnError:    func(stage string) { errs.WithLabelValues(stage).Inc() },
	}

	// Varredura periódica: apostas graduadas que o fluxo de eventos não fechou
	sched := scheduler.New(log)
	if err := sched.Add(ctx, cfg.SettlementSweepSpec, settler.Sweep); err != nil {
		log.Fatal("cron spec", zap.String("spec", cfg.SettlementSweepSpec), zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.Checks(map[string]metrics.HealthFunc{
		"pg":    pg.PingContext,
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}))

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicStatResults),
		zap.String("publish", cfg.TopicBetSettled),
		zap.String("sweep", cfg.SettlementSweepSpec),
	)

	if err := cons.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("consumer stopped", zap.Error(err))
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("settlement-worker stopped")
}
