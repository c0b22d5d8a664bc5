package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/player-props-platform/internal/props-ingest/publisher"
	"github.com/radieske/player-props-platform/internal/props-ingest/service"
	"github.com/radieske/player-props-platform/internal/shared/config"
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

	log.Info("Kafka brokers", zap.String("brokers", cfg.KafkaBrokers))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Em local/dev cria os tópicos antes de publicar
	if cfg.Env == "local" || cfg.Env == "dev" {
		tctx, tcancel := context.WithTimeout(ctx, 10*time.Second)
		if err := publisher.EnsureTopics(tctx, kafka.Brokers(cfg.KafkaBrokers), log, cfg.TopicPropUpdates, cfg.TopicStatResults); err != nil {
			log.Warn("ensure kafka topics", zap.Error(err))
		}
		tcancel()
	}

	propsWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPropUpdates)
	defer propsWriter.Close()
	statsWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicStatResults)
	defer statsWriter.Close()

	published := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "props_ingest_published_total", Help: "mensagens publicadas por tipo"}, []string{"type"})
	invalid := prometheus.NewCounter(prometheus.CounterOpts{Name: "props_ingest_invalid_total", Help: "frames descartados"})
	prometheus.MustRegister(published, invalid)

	pub := publisher.NewKafkaPublisher(propsWriter, statsWriter, log)
	pub.OnPublished = func(kind string) { published.WithLabelValues(kind).Inc() }

	// WS Client
	wsClient := &service.WSClient{
		URL:       cfg.SupplierWSURL,
		Log:       log,
		Sink:      pub,
		OnInvalid: func() { invalid.Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, nil)

	wsClient.Start(ctx) // bloqueia até o sinal
	log.Info("shutdown signal received")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = metricsSrv.Shutdown(shutdownCtx)
}
