package repository

import (
	"context"
	"database/sql"

	"github.com/radieske/player-props-platform/pkg/contracts/events"
)

// PostgresRepo persiste linhas de props (corrente + histórico)
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// UpsertCurrent grava a linha corrente da prop. Versão mais antiga que a gravada
// é ignorada, então mensagens fora de ordem não regridem a linha.
func (r *PostgresRepo) UpsertCurrent(ctx context.Context, e events.PropUpdate) error {
	const q = `
		INSERT INTO props_current
		  (game_id, player_id, stat_category, home_team, away_team, team_id, player_name, line, over_odds, under_odds, version, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (game_id, player_id, stat_category) DO UPDATE SET
		  home_team   = EXCLUDED.home_team,
		  away_team   = EXCLUDED.away_team,
		  team_id     = EXCLUDED.team_id,
		  player_name = EXCLUDED.player_name,
		  line        = EXCLUDED.line,
		  over_odds   = EXCLUDED.over_odds,
		  under_odds  = EXCLUDED.under_odds,
		  version     = EXCLUDED.version,
		  updated_at  = EXCLUDED.updated_at
		WHERE props_current.version <= EXCLUDED.version
	`
	_, err := r.DB.ExecContext(ctx, q,
		e.GameID, e.PlayerID, e.StatCategory,
		e.HomeTeam, e.AwayTeam, e.TeamID, e.PlayerName,
		e.Line, e.OverOdds, e.UnderOdds,
		e.Version, e.UpdatedAt,
	)
	return err
}

// InsertHistory acrescenta a linha em props_history
func (r *PostgresRepo) InsertHistory(ctx context.Context, e events.PropUpdate) error {
	const q = `
		INSERT INTO props_history
		  (game_id, player_id, stat_category, line, over_odds, under_odds, version, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8)
	`
	_, err := r.DB.ExecContext(ctx, q,
		e.GameID, e.PlayerID, e.StatCategory, e.Line, e.OverOdds, e.UnderOdds, e.Version, e.UpdatedAt,
	)
	return err
}
