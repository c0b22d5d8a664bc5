package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/player-props-platform/internal/bet-service/dto"
	"github.com/radieske/player-props-platform/internal/bet-service/producer"
	"github.com/radieske/player-props-platform/internal/bet-service/props"
	"github.com/radieske/player-props-platform/internal/bet-service/repo"
	"github.com/radieske/player-props-platform/internal/shared/betting"
	"github.com/radieske/player-props-platform/internal/shared/ledger"
	"github.com/radieske/player-props-platform/pkg/contracts/events"
)

// Repo define a persistência usada pelos handlers
type Repo interface {
	PlaceBet(ctx context.Context, b *betting.Bet) (decimal.Decimal, error)
	Get(ctx context.Context, betID string) (betting.Bet, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]betting.Bet, error)
}

// PropChecker valida picks contra as linhas correntes
type PropChecker interface {
	Check(ctx context.Context, picks []betting.Pick) error
}

type Publisher interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
}

// Server expõe a API de apostas
type Server struct {
	log   *zap.Logger
	repo  Repo
	props PropChecker
	publ  Publisher
	calc  *betting.Calculator

	OnPlaced   func(mode string)   // métricas
	OnRejected func(reason string) // métricas por motivo
}

func NewServer(log *zap.Logger, r Repo, pc PropChecker, p Publisher, calc *betting.Calculator) *Server {
	return &Server{log: log, repo: r, props: pc, publ: p, calc: calc}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Post("/v1/bets/quote", s.quote)                // calcula payout sem apostar
	r.Post("/v1/bets", s.placeBet)                   // cria aposta
	r.Get("/v1/bets/{id}", s.getBet)                 // aposta + picks
	r.Get("/v1/users/{userId}/bets", s.listUserBets) // histórico do usuário
	return r
}

func (s *Server) quote(w http.ResponseWriter, r *http.Request) {
	var req dto.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.reject(w, "bad_json", http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if err := req.Validate(); err != nil {
		s.reject(w, "invalid_payload", http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	mode := betting.Mode(req.Mode)
	picks := req.ToPicks()
	if err := betting.ValidatePicks(mode, picks); err != nil {
		s.reject(w, "invalid_picks", http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, dto.QuoteResponse{
		Mode:            req.Mode,
		Picks:           len(picks),
		Stake:           req.Stake,
		CombinedOdds:    betting.CombinedOdds(picks),
		Multiplier:      s.calc.Multiplier(mode, len(picks)),
		PotentialPayout: s.calc.PotentialPayout(picks, mode, req.Stake),
	})
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.reject(w, "bad_json", http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if err := req.Validate(); err != nil {
		s.reject(w, "invalid_payload", http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	mode := betting.Mode(req.Mode)
	picks := req.ToPicks()

	// 1) Cardinalidade por modo e props únicas
	if err := betting.ValidatePicks(mode, picks); err != nil {
		s.reject(w, "invalid_picks", http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	// 2) Valida linha/odd atual no cache
	if err := s.props.Check(r.Context(), picks); err != nil {
		var drift *props.DriftError
		switch {
		case errors.As(err, &drift):
			cur := drift.Current
			s.reject(w, "odds_changed", http.StatusConflict, dto.ErrorResponse{
				Error: drift.Field + " changed", PropKey: drift.PropKey, Field: drift.Field, Current: &cur,
			})
		case errors.Is(err, props.ErrClosed):
			s.reject(w, "prop_closed", http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, props.ErrUnavailable):
			s.reject(w, "prop_unavailable", http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
		default:
			s.log.Error("prop check", zap.Error(err))
			s.reject(w, "prop_check_failed", http.StatusServiceUnavailable, dto.ErrorResponse{Error: "props unavailable"})
		}
		return
	}

	// 3) Payout potencial fixado na criação
	bet := &betting.Bet{
		UserID:          req.UserID,
		Mode:            mode,
		Stake:           req.Stake,
		PotentialPayout: s.calc.PotentialPayout(picks, mode, req.Stake),
		Picks:           picks,
	}

	// 4) Débito + aposta + picks numa transação
	newBalance, err := s.repo.PlaceBet(r.Context(), bet)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientFunds), errors.Is(err, ledger.ErrWalletNotFound):
			s.reject(w, "insufficient_funds", http.StatusPaymentRequired, dto.ErrorResponse{Error: ledger.ErrInsufficientFunds.Error()})
		default:
			s.log.Error("place bet", zap.String("userId", req.UserID), zap.Error(err))
			s.reject(w, "internal", http.StatusInternalServerError, dto.ErrorResponse{Error: "could not place bet"})
		}
		return
	}

	// 5) Publica evento bet_placed; a aposta já está commitada
	if err := s.publ.PublishBetPlaced(r.Context(), producer.BetPlacedEvent(*bet)); err != nil {
		s.log.Warn("publish bet_placed", zap.String("betId", bet.ID), zap.Error(err))
	}
	if s.OnPlaced != nil {
		s.OnPlaced(string(mode))
	}

	s.log.Info("bet placed",
		zap.String("betId", bet.ID),
		zap.String("userId", bet.UserID),
		zap.String("mode", string(mode)),
		zap.String("stake", bet.Stake.String()),
		zap.String("potentialPayout", bet.PotentialPayout.String()),
	)

	writeJSON(w, http.StatusCreated, dto.PlaceBetResponse{
		BetID:           bet.ID,
		Status:          string(bet.Status),
		PotentialPayout: bet.PotentialPayout,
		NewBalance:      newBalance,
	})
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := s.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, dto.FromBet(b))
}

func (s *Server) listUserBets(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	bets, err := s.repo.ListByUser(r.Context(), userID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	out := make([]dto.BetResponse, len(bets))
	for i, b := range bets {
		out[i] = dto.FromBet(b)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) reject(w http.ResponseWriter, reason string, status int, body dto.ErrorResponse) {
	if s.OnRejected != nil {
		s.OnRejected(reason)
	}
	writeJSON(w, status, body)
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
