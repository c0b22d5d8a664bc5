// Package scheduler roda a varredura periódica de liquidação via cron.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SweepFunc liquida o que estiver pronto e devolve quantas apostas fechou
type SweepFunc func(ctx context.Context) (int, error)

type Scheduler struct {
	log     *zap.Logger
	cron    *cron.Cron
	timeout time.Duration
}

func New(log *zap.Logger) *Scheduler {
	return &Scheduler{
		log:     log,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: 30 * time.Second,
	}
}

// Add registra a varredura no spec cron (ex: "@every 1m"). Execuções sobrepostas são puladas.
func (s *Scheduler) Add(ctx context.Context, spec string, fn SweepFunc) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(ctx, fn) })
	return err
}

func (s *Scheduler) run(ctx context.Context, fn SweepFunc) {
	if ctx.Err() != nil {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := fn(runCtx)
	if err != nil {
		s.log.Error("[CRON] settlement sweep", zap.Int("settled", n), zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("[CRON] settlement sweep", zap.Int("settled", n))
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop espera a varredura em andamento terminar
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}
