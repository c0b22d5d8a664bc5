// Package service orquestra graduação e liquidação: cada stat result gradua os
// picks da prop e tenta liquidar as apostas afetadas.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/player-props-platform/internal/settlement/repo"
	"github.com/radieske/player-props-platform/internal/shared/betting"
	"github.com/radieske/player-props-platform/pkg/contracts/events"
)

type Store interface {
	GradeStat(ctx context.Context, r events.StatResult) (graded int, betIDs []string, err error)
	SettleBet(ctx context.Context, betID string) (repo.Settlement, error)
	PendingGraded(ctx context.Context, limit int) ([]string, error)
}

type Publisher interface {
	PublishBetSettled(ctx context.Context, s repo.Settlement) error
}

// PropCloser marca a prop como encerrada para a validação de novas apostas.
// Satisfeito por *cache.PropStore.
type PropCloser interface {
	Close(ctx context.Context, gameID, playerID, statCategory string) error
}

// Settler aplica stat results e liquida apostas prontas
type Settler struct {
	Log   *zap.Logger
	Store Store
	Pub   Publisher
	Props PropCloser // opcional

	SweepBatch int

	OnGraded  func(n int)         // métricas
	OnSettled func(status string) // métricas por status
	OnError   func(stage string)
}

// HandleStat encerra a prop, gradua seus picks e liquida cada aposta que ficou completa.
// Apostas ainda pendentes ou já liquidadas não contam como erro. Um retry após
// falha de liquidação recebe de novo as apostas PENDING da prop.
func (s *Settler) HandleStat(ctx context.Context, r events.StatResult) error {
	// encerrar antes de graduar: aposta aceita depois disso não teria stat
	if s.Props != nil {
		if err := s.Props.Close(ctx, r.GameID, r.PlayerID, r.StatCategory); err != nil {
			s.fail("close_prop")
			return fmt.Errorf("close prop %s: %w", r.PropKey(), err)
		}
	}

	n, betIDs, err := s.Store.GradeStat(ctx, r)
	if err != nil {
		s.fail("grade")
		return err
	}
	if s.OnGraded != nil && n > 0 {
		s.OnGraded(n)
	}
	s.Log.Debug("stat graded",
		zap.String("prop", r.PropKey()),
		zap.String("actual", r.ActualValue),
		zap.Int("picks", n),
	)

	var firstErr error
	for _, id := range betIDs {
		if _, err := s.SettleOne(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SettleOne liquida uma aposta. Retorna true quando a liquidação foi commitada.
func (s *Settler) SettleOne(ctx context.Context, betID string) (bool, error) {
	st, err := s.Store.SettleBet(ctx, betID)
	switch {
	case errors.Is(err, repo.ErrNotReady):
		return false, nil
	case errors.Is(err, betting.ErrIllegalState):
		// outra instância liquidou primeiro; não reprocessar
		s.Log.Info("settle skipped", zap.String("betId", betID), zap.Error(err))
		return false, nil
	case err != nil:
		s.fail("settle")
		return false, err
	}

	s.Log.Info("bet settled",
		zap.String("betId", betID),
		zap.String("userId", st.Bet.UserID),
		zap.String("status", string(st.Result.Status)),
		zap.String("actualPayout", st.Result.ActualPayout.StringFixed(2)),
	)
	if s.OnSettled != nil {
		s.OnSettled(string(st.Result.Status))
	}

	// liquidação já commitada: falha no publish só é logada
	if err := s.Pub.PublishBetSettled(ctx, st); err != nil {
		s.Log.Warn("publish bet_settled", zap.String("betId", betID), zap.Error(err))
		s.fail("publish")
	}
	return true, nil
}

// Sweep liquida apostas totalmente graduadas que o fluxo de eventos perdeu.
// Uma aposta com erro não trava o lote; devolve o primeiro erro no final.
func (s *Settler) Sweep(ctx context.Context) (int, error) {
	ids, err := s.Store.PendingGraded(ctx, s.SweepBatch)
	if err != nil {
		s.fail("sweep")
		return 0, err
	}
	settled := 0
	var firstErr error
	for _, id := range ids {
		ok, err := s.SettleOne(ctx, id)
		if err != nil {
			s.Log.Warn("sweep settle", zap.String("betId", id), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			settled++
		}
	}
	return settled, firstErr
}

func (s *Settler) fail(stage string) {
	if s.OnError != nil {
		s.OnError(stage)
	}
}
