package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

func newTx(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *sql.Tx) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	mock.ExpectBegin()
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return db, mock, tx
}

var nowForTest = time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

const (
	lockWallet = `SELECT id, balance FROM wallets WHERE user_id=\$1 FOR UPDATE`
	checkRef   = `SELECT wallet_id, operation_type, amount FROM wallet_ledger WHERE external_ref=\$1`
	updBalance = `UPDATE wallets SET balance`
	insLedger  = `INSERT INTO wallet_ledger`
)

func TestCredit(t *testing.T) {
	db, mock, tx := newTx(t)
	defer db.Close()

	mock.ExpectQuery(lockWallet).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow("w1", "10.00"))
	mock.ExpectQuery(checkRef).WithArgs("settle:b1").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(updBalance).WithArgs(sqlmock.AnyArg(), "w1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insLedger).
		WithArgs("w1", OpCredit, sqlmock.AnyArg(), sqlmock.AnyArg(), "settle:b1", "bet settlement").
		WillReturnResult(sqlmock.NewResult(1, 1))

	bal, err := Credit(context.Background(), tx, "u1", decimal.RequireFromString("240.00"), "settle:b1", "bet settlement")
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if !bal.Equal(decimal.RequireFromString("250.00")) {
		t.Errorf("balance = %s, want 250.00", bal)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreditSameRefIsNoop(t *testing.T) {
	db, mock, tx := newTx(t)
	defer db.Close()

	mock.ExpectQuery(lockWallet).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow("w1", "250.00"))
	mock.ExpectQuery(checkRef).WithArgs("settle:b1").
		WillReturnRows(sqlmock.NewRows([]string{"wallet_id", "operation_type", "amount"}).AddRow("w1", OpCredit, "240.00"))

	bal, err := Credit(context.Background(), tx, "u1", decimal.RequireFromString("240.00"), "settle:b1", "")
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if !bal.Equal(decimal.RequireFromString("250.00")) {
		t.Errorf("balance = %s, want unchanged 250.00", bal)
	}
	// nenhum UPDATE/INSERT esperado
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRefReuseByOtherOperationConflicts(t *testing.T) {
	cases := []struct {
		name   string
		wallet string
		op     string
		amount string
	}{
		{"debit with settlement ref", "w1", OpDebit, "1.00"},
		{"same op, other amount", "w1", OpCredit, "1.00"},
		{"same op, other wallet", "w9", OpCredit, "240.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, tx := newTx(t)
			defer db.Close()

			mock.ExpectQuery(lockWallet).WithArgs("u1").
				WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow("w1", "99.00"))
			mock.ExpectQuery(checkRef).WithArgs("settle:b1").
				WillReturnRows(sqlmock.NewRows([]string{"wallet_id", "operation_type", "amount"}).AddRow(tc.wallet, tc.op, tc.amount))

			_, err := Credit(context.Background(), tx, "u1", decimal.RequireFromString("240.00"), "settle:b1", "bet settlement")
			if !errors.Is(err, ErrRefConflict) {
				t.Fatalf("err = %v, want ErrRefConflict", err)
			}
			// nenhum UPDATE/INSERT esperado
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestDebitInsufficientFunds(t *testing.T) {
	db, mock, tx := newTx(t)
	defer db.Close()

	mock.ExpectQuery(lockWallet).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow("w1", "5.00"))
	mock.ExpectQuery(checkRef).WithArgs("bet:b1").WillReturnError(sql.ErrNoRows)

	_, err := Debit(context.Background(), tx, "u1", decimal.RequireFromString("10"), "bet:b1", "stake")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDebitExactBalance(t *testing.T) {
	db, mock, tx := newTx(t)
	defer db.Close()

	mock.ExpectQuery(lockWallet).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow("w1", "10.00"))
	mock.ExpectQuery(checkRef).WithArgs("bet:b1").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(updBalance).WithArgs(sqlmock.AnyArg(), "w1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insLedger).
		WithArgs("w1", OpDebit, sqlmock.AnyArg(), sqlmock.AnyArg(), "bet:b1", "stake").
		WillReturnResult(sqlmock.NewResult(1, 1))

	bal, err := Debit(context.Background(), tx, "u1", decimal.RequireFromString("10"), "bet:b1", "stake")
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if !bal.IsZero() {
		t.Errorf("balance = %s, want 0", bal)
	}
}

func TestApplyRejectsNonPositiveAmount(t *testing.T) {
	db, mock, tx := newTx(t)
	defer db.Close()

	for _, amt := range []string{"0", "-1.50"} {
		if _, err := Credit(context.Background(), tx, "u1", decimal.RequireFromString(amt), "x", ""); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Credit(%s) err = %v, want ErrInvalidAmount", amt, err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no queries expected: %v", err)
	}
}

func TestApplyWalletNotFound(t *testing.T) {
	db, mock, tx := newTx(t)
	defer db.Close()

	mock.ExpectQuery(lockWallet).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	if _, err := Debit(context.Background(), tx, "ghost", decimal.NewFromInt(1), "r", ""); !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("err = %v, want ErrWalletNotFound", err)
	}
}

func TestEnsureWalletCreates(t *testing.T) {
	db, mock, tx := newTx(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id FROM wallets WHERE user_id=\$1`).WithArgs("u2").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO wallets`).WithArgs(sqlmock.AnyArg(), "u2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id FROM wallets WHERE user_id=\$1`).WithArgs("u2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("w2"))

	id, err := EnsureWallet(context.Background(), tx, "u2")
	if err != nil {
		t.Fatalf("EnsureWallet: %v", err)
	}
	if id != "w2" {
		t.Errorf("id = %s, want w2", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "wallet_id", "operation_type", "amount", "balance_after", "external_ref", "description", "created_at"}).
		AddRow(2, "w1", OpCredit, "240.00", "250.00", "settle:b1", "bet settlement", nowForTest).
		AddRow(1, "w1", OpDebit, "20.00", "10.00", "bet:b1", "stake", nowForTest)
	mock.ExpectQuery(`FROM wallet_ledger l`).WithArgs("u1", 50).WillReturnRows(rows)

	entries, err := History(context.Background(), db, "u1", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 2 || entries[0].Operation != OpCredit || !entries[1].Amount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("unexpected entries: %+v", entries)
	}
}
