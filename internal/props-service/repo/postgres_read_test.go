package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

func TestListGames(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectQuery(`FROM props_current\s+GROUP BY game_id`).
		WillReturnRows(sqlmock.NewRows([]string{"game_id", "home_team", "away_team", "props"}).
			AddRow("g1", "BOS", "NYK", 12).
			AddRow("g2", "LAL", "GSW", 9))

	games, err := (&ReadRepo{DB: conn}).ListGames(context.Background())
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(games) != 2 || games[0].Props != 12 || games[1].AwayTeam != "GSW" {
		t.Errorf("games = %+v", games)
	}
}

func TestListProps(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	cols := []string{"game_id", "team_id", "player_id", "player_name", "stat_category", "line", "over_odds", "under_odds", "version", "updated_at"}
	now := time.Now().UTC()
	mock.ExpectQuery(`WHERE game_id = \$1`).WithArgs("g1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("g1", "BOS", "p1", "J. Tatum", "points", "27.5", "1.87", "1.95", 4, now))
	mock.ExpectQuery(`WHERE game_id = \$1`).WithArgs("nope").WillReturnRows(sqlmock.NewRows(cols))

	r := &ReadRepo{DB: conn}
	props, err := r.ListProps(context.Background(), "g1")
	if err != nil {
		t.Fatalf("ListProps: %v", err)
	}
	if len(props) != 1 || !props[0].Line.Equal(decimal.RequireFromString("27.5")) || props[0].PlayerName != "J. Tatum" {
		t.Errorf("props = %+v", props)
	}

	if _, err := r.ListProps(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
