package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/radieske/player-props-platform/internal/shared/betting"
	"github.com/radieske/player-props-platform/pkg/contracts/events"
)

var (
	betCols  = []string{"id", "user_id", "mode", "stake", "potential_payout", "status"}
	pickCols = []string{"id", "outcome"}
)

const affectedBets = `SELECT DISTINCT p.bet_id\s+FROM bet_picks p\s+JOIN bets b ON b.id = p.bet_id`

func TestGradeStat(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bet_picks\s+WHERE game_id=\$1 AND player_id=\$2 AND stat_category=\$3 AND outcome='PENDING'`).
		WithArgs("g1", "p1", "points").
		WillReturnRows(sqlmock.NewRows([]string{"id", "bet_id", "line", "direction"}).
			AddRow("k1", "b1", "24.5", "OVER").
			AddRow("k2", "b2", "25", "OVER"). // empate perde
			AddRow("k3", "b2", "30.5", "UNDER"))
	mock.ExpectExec(`UPDATE bet_picks SET actual_value`).WithArgs(sqlmock.AnyArg(), "WON", "k1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bet_picks SET actual_value`).WithArgs(sqlmock.AnyArg(), "LOST", "k2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bet_picks SET actual_value`).WithArgs(sqlmock.AnyArg(), "WON", "k3").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(affectedBets).WithArgs("g1", "p1", "points").
		WillReturnRows(sqlmock.NewRows([]string{"bet_id"}).AddRow("b1").AddRow("b2"))
	mock.ExpectCommit()

	graded, ids, err := NewPostgres(conn).GradeStat(context.Background(), events.StatResult{
		GameID: "g1", PlayerID: "p1", StatCategory: "points", ActualValue: "25",
	})
	if err != nil {
		t.Fatalf("GradeStat: %v", err)
	}
	if graded != 3 {
		t.Errorf("graded = %d, want 3", graded)
	}
	if len(ids) != 2 || ids[0] != "b1" || ids[1] != "b2" {
		t.Errorf("betIDs = %v, want [b1 b2]", ids)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// Redelivery depois de um commit de graduação: nada a graduar, mas a aposta
// ainda PENDING volta para a liquidação
func TestGradeStatRetryReturnsPendingBets(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bet_picks\s+WHERE game_id=\$1 AND player_id=\$2 AND stat_category=\$3 AND outcome='PENDING'`).
		WithArgs("g1", "p1", "points").
		WillReturnRows(sqlmock.NewRows([]string{"id", "bet_id", "line", "direction"}))
	mock.ExpectQuery(affectedBets).WithArgs("g1", "p1", "points").
		WillReturnRows(sqlmock.NewRows([]string{"bet_id"}).AddRow("b1"))
	mock.ExpectCommit()

	graded, ids, err := NewPostgres(conn).GradeStat(context.Background(), events.StatResult{
		GameID: "g1", PlayerID: "p1", StatCategory: "points", ActualValue: "25",
	})
	if err != nil {
		t.Fatalf("GradeStat: %v", err)
	}
	if graded != 0 {
		t.Errorf("graded = %d, want 0", graded)
	}
	if len(ids) != 1 || ids[0] != "b1" {
		t.Errorf("betIDs = %v, want [b1]", ids)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGradeStatBadValue(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if _, _, err := NewPostgres(conn).GradeStat(context.Background(), events.StatResult{ActualValue: "n/a"}); err == nil {
		t.Fatal("expected parse error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no queries expected: %v", err)
	}
}

func TestSettleBetCreditsInSameTx(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bets WHERE id=\$1 FOR UPDATE`).WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(betCols).AddRow("b1", "u1", "SMART_PLAY", "20.00", "400.00", "PENDING"))
	mock.ExpectQuery(`SELECT id, outcome FROM bet_picks`).WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(pickCols).
			AddRow("k1", "WON").AddRow("k2", "WON").AddRow("k3", "LOST").AddRow("k4", "WON"))
	mock.ExpectExec(`UPDATE bets SET status`).WithArgs("PARTIALLY_WON", sqlmock.AnyArg(), "b1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, balance FROM wallets WHERE user_id=\$1 FOR UPDATE`).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow("w1", "10.00"))
	mock.ExpectQuery(`SELECT wallet_id, operation_type, amount FROM wallet_ledger`).WithArgs("settle:b1").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`UPDATE wallets SET balance`).WithArgs(sqlmock.AnyArg(), "w1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO wallet_ledger`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO bet_transactions`).
		WithArgs("b1", "PENDING", "PARTIALLY_WON", sqlmock.AnyArg(), "settle:b1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s, err := NewPostgres(conn).SettleBet(context.Background(), "b1")
	if err != nil {
		t.Fatalf("SettleBet: %v", err)
	}
	if s.Result.Status != betting.StatusPartiallyWon || !s.Result.ActualPayout.Equal(decimal.RequireFromString("240.00")) {
		t.Errorf("result = %+v", s.Result)
	}
	if s.CreditRef != "settle:b1" || s.Bet.UserID != "u1" {
		t.Errorf("settlement = %+v", s)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSettleBetLostHasNoCredit(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bets WHERE id=\$1 FOR UPDATE`).WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(betCols).AddRow("b1", "u1", "PERFECT_PICK", "10.00", "97.20", "PENDING"))
	mock.ExpectQuery(`SELECT id, outcome FROM bet_picks`).WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(pickCols).AddRow("k1", "WON").AddRow("k2", "LOST").AddRow("k3", "WON"))
	mock.ExpectExec(`UPDATE bets SET status`).WithArgs("LOST", sqlmock.AnyArg(), "b1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO bet_transactions`).
		WithArgs("b1", "PENDING", "LOST", sqlmock.AnyArg(), "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s, err := NewPostgres(conn).SettleBet(context.Background(), "b1")
	if err != nil {
		t.Fatalf("SettleBet: %v", err)
	}
	if s.Result.Status != betting.StatusLost || !s.Result.ActualPayout.IsZero() || s.CreditRef != "" {
		t.Errorf("settlement = %+v", s)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSettleBetAlreadySettled(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bets WHERE id=\$1 FOR UPDATE`).WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(betCols).AddRow("b1", "u1", "PERFECT_PICK", "10.00", "97.20", "WON"))
	mock.ExpectQuery(`SELECT id, outcome FROM bet_picks`).WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(pickCols).AddRow("k1", "WON"))
	mock.ExpectRollback()

	_, err = NewPostgres(conn).SettleBet(context.Background(), "b1")
	if !errors.Is(err, betting.ErrIllegalState) {
		t.Fatalf("err = %v, want ErrIllegalState", err)
	}
	// nenhum UPDATE nem crédito
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSettleBetNotReady(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bets WHERE id=\$1 FOR UPDATE`).WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(betCols).AddRow("b1", "u1", "SMART_PLAY", "10.00", "50.00", "PENDING"))
	mock.ExpectQuery(`SELECT id, outcome FROM bet_picks`).WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(pickCols).AddRow("k1", "WON").AddRow("k2", "PENDING"))
	mock.ExpectRollback()

	if _, err := NewPostgres(conn).SettleBet(context.Background(), "b1"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSettleBetNotFound(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bets WHERE id=\$1 FOR UPDATE`).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	if _, err := NewPostgres(conn).SettleBet(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPendingGraded(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectQuery(`WHERE b.status='PENDING'`).WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("b1").AddRow("b7"))

	ids, err := NewPostgres(conn).PendingGraded(context.Background(), 0)
	if err != nil {
		t.Fatalf("PendingGraded: %v", err)
	}
	if len(ids) != 2 || ids[1] != "b7" {
		t.Errorf("ids = %v", ids)
	}
}
