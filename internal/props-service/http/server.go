package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/radieske/player-props-platform/internal/props-service/dto"
	"github.com/radieske/player-props-platform/internal/props-service/repo"
)

type ReadRepo interface {
	ListGames(ctx context.Context) ([]dto.Game, error)
	ListProps(ctx context.Context, gameID string) ([]dto.Prop, error)
}

type PropsCache interface {
	GetProps(ctx context.Context, gameID string, dst any) (bool, error)
	SetProps(ctx context.Context, gameID string, v any) error
}

// API expõe os endpoints REST de consulta de jogos e props
// Utiliza um repositório de leitura (Postgres) e cache (Redis)
type API struct {
	ReadRepo ReadRepo     // acesso ao banco de dados
	Cache    PropsCache   // cache de props por jogo
	WS       http.Handler // hub WebSocket; opcional
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	r.Get("/v1/games", a.listGames)           // Lista jogos com props
	r.Get("/v1/games/{id}/props", a.getProps) // Linhas correntes de um jogo
	if a.WS != nil {
		r.Handle("/ws", a.WS)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := a.ReadRepo.ListGames(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// getProps retorna as props de um jogo, preferencialmente do cache
func (a *API) getProps(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var fromCache []dto.Prop
	if ok, _ := a.Cache.GetProps(r.Context(), id, &fromCache); ok {
		writeJSON(w, http.StatusOK, fromCache)
		return
	}

	props, err := a.ReadRepo.ListProps(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	_ = a.Cache.SetProps(r.Context(), id, props)
	writeJSON(w, http.StatusOK, props)
}
