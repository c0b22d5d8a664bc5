package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/radieske/player-props-platform/internal/props-service/dto"
)

var ErrNotFound = errors.New("game not found")

type ReadRepo struct {
	DB *sql.DB
}

// ListGames agrupa props_current por jogo
func (r *ReadRepo) ListGames(ctx context.Context) ([]dto.Game, error) {
	const q = `
		SELECT game_id, MAX(home_team) AS home_team, MAX(away_team) AS away_team, COUNT(*) AS props
		FROM props_current
		GROUP BY game_id
		ORDER BY game_id;
	`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []dto.Game{}
	for rows.Next() {
		var g dto.Game
		if err := rows.Scan(&g.GameID, &g.HomeTeam, &g.AwayTeam, &g.Props); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ListProps retorna as linhas correntes do jogo; ErrNotFound se não houver nenhuma
func (r *ReadRepo) ListProps(ctx context.Context, gameID string) ([]dto.Prop, error) {
	const q = `
		SELECT game_id, COALESCE(team_id, ''), player_id, COALESCE(player_name, ''), stat_category,
		       line, over_odds, under_odds, version, updated_at
		FROM props_current
		WHERE game_id = $1
		ORDER BY player_id, stat_category;
	`
	rows, err := r.DB.QueryContext(ctx, q, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dto.Prop
	for rows.Next() {
		var p dto.Prop
		if err := rows.Scan(&p.GameID, &p.TeamID, &p.PlayerID, &p.PlayerName, &p.StatCategory,
			&p.Line, &p.OverOdds, &p.UnderOdds, &p.Version, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}
