package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/radieske/player-props-platform/internal/props-service/dto"
	"github.com/radieske/player-props-platform/internal/props-service/repo"
)

type fakeRepo struct {
	props map[string][]dto.Prop
	calls int
	err   error
}

func (f *fakeRepo) ListGames(context.Context) ([]dto.Game, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []dto.Game{{GameID: "g1", HomeTeam: "BOS", AwayTeam: "NYK", Props: 1}}, nil
}

func (f *fakeRepo) ListProps(_ context.Context, id string) ([]dto.Prop, error) {
	f.calls++
	p, ok := f.props[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return p, nil
}

// memCache serializa em JSON como o Redis faria
type memCache map[string][]byte

func (m memCache) GetProps(_ context.Context, id string, dst any) (bool, error) {
	b, ok := m[id]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (m memCache) SetProps(_ context.Context, id string, v any) error {
	b, err := json.Marshal(v)
	m[id] = b
	return err
}

func TestGetPropsUsesCache(t *testing.T) {
	r := &fakeRepo{props: map[string][]dto.Prop{
		"g1": {{GameID: "g1", PlayerID: "p1", StatCategory: "points", Line: decimal.RequireFromString("24.5")}},
	}}
	api := &API{ReadRepo: r, Cache: memCache{}}
	h := api.Router()

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/games/g1/props", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var got []dto.Prop
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil || len(got) != 1 || !got[0].Line.Equal(decimal.RequireFromString("24.5")) {
			t.Fatalf("body = %+v err=%v", got, err)
		}
	}
	if r.calls != 1 {
		t.Errorf("repo calls = %d, want 1 (second read from cache)", r.calls)
	}
}

func TestRoutes(t *testing.T) {
	tests := []struct {
		name   string
		repo   *fakeRepo
		path   string
		status int
	}{
		{"games", &fakeRepo{}, "/v1/games", http.StatusOK},
		{"games db error", &fakeRepo{err: errors.New("pg down")}, "/v1/games", http.StatusInternalServerError},
		{"unknown game", &fakeRepo{}, "/v1/games/nope/props", http.StatusNotFound},
		{"no ws handler", &fakeRepo{}, "/ws", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			(&API{ReadRepo: tt.repo, Cache: memCache{}}).Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}
