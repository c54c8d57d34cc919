package sproutbank_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbrodan/sproutbank"
)

var (
	testDBConnStr string
)

func init() {
	testDBConnStr = os.Getenv("TEST_DB_CONN_STR")
}

func TestPostgres(t *testing.T) {
	if testDBConnStr == "" {
		t.Skip("TEST_DB_CONN_STR not set")
	}
	as := assert.New(t)
	reqrd := require.New(t)

	teardown, err := initDB()
	reqrd.Nil(err)
	t.Cleanup(teardown)

	node, err := snowflake.NewNode(111)
	reqrd.Nil(err)
	log := zerolog.Nop()
	endpt, err := sproutbank.NewPostgresEndpoint(testDBConnStr, &log)
	reqrd.Nil(err)

	acct := sproutbank.Account{
		ID:           node.Generate(),
		Name:         "Maya",
		Balance:      decimal.Zero,
		InterestRate: decimal.Zero,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	t.Run("CreateAccount and GetAccount round-trip", func(tt *testing.T) {
		reqrd.Nil(endpt.CreateAccount(acct))

		got, err := endpt.GetAccount(acct.ID)
		reqrd.Nil(err)
		as.Equal(acct.Name, got.Name)
		as.True(got.Balance.IsZero())
		as.Nil(got.LastInterestAt)
	})

	t.Run("GetAccount returns ErrNotFound for an unknown id", func(tt *testing.T) {
		_, err := endpt.GetAccount(node.Generate())
		errnf := &sproutbank.ErrNotFound{}
		as.ErrorAs(err, errnf)
	})

	t.Run("UpdateBalance commits account and ledger together", func(tt *testing.T) {
		updated := acct
		updated.Balance = decimal.RequireFromString("50.00")
		txn := sproutbank.Transaction{
			ID:           "pgtest-txn-1",
			AccountID:    acct.ID,
			Kind:         sproutbank.TxnDeposit,
			Amount:       decimal.RequireFromString("50.00"),
			BalanceAfter: updated.Balance,
			Timestamp:    time.Now().UTC().Truncate(time.Microsecond),
		}
		reqrd.Nil(endpt.UpdateBalance(updated, txn))

		got, err := endpt.GetAccount(acct.ID)
		reqrd.Nil(err)
		as.Equal("50.00", got.Balance.StringFixed(2))

		txns, err := endpt.ListTransactions(acct.ID)
		reqrd.Nil(err)
		reqrd.Len(txns, 1)
		as.Equal("pgtest-txn-1", txns[0].ID)
	})

	t.Run("UpdateBalance rolls back on a duplicate transaction id", func(tt *testing.T) {
		updated := acct
		updated.Balance = decimal.RequireFromString("75.00")
		txn := sproutbank.Transaction{
			ID:           "pgtest-txn-1",
			AccountID:    acct.ID,
			Kind:         sproutbank.TxnDeposit,
			Amount:       decimal.RequireFromString("25.00"),
			BalanceAfter: updated.Balance,
			Timestamp:    time.Now().UTC().Truncate(time.Microsecond),
		}
		as.Error(endpt.UpdateBalance(updated, txn))

		got, err := endpt.GetAccount(acct.ID)
		reqrd.Nil(err)
		as.Equal("50.00", got.Balance.StringFixed(2))
	})
}

func initDB() (func(), error) {
	conn, err := pgx.Connect(context.Background(), testDBConnStr)
	if err != nil {
		return nil, err
	}
	initSQLpath := filepath.Join("testdata", "init_db.sql")
	bits, err := os.ReadFile(initSQLpath)
	if err != nil {
		return nil, err
	}
	if _, err = conn.Exec(context.Background(), string(bits)); err != nil {
		return nil, err
	}
	return teardownDB(conn), err
}

func teardownDB(conn *pgx.Conn) func() {
	return func() {
		defer conn.Close(context.Background())

		tearSQLpath := filepath.Join("testdata", "teardown_db.sql")
		bits, err := os.ReadFile(tearSQLpath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "db teardown: read sql: %s\n", err.Error())
			return
		}
		if _, err = conn.Exec(context.Background(), string(bits)); err != nil {
			fmt.Fprintf(os.Stderr, "db teardown: exec sql: %s\n", err.Error())
			return
		}
	}
}
