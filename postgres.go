package sproutbank

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

var (
	pgInsertAcctSQL = `
		INSERT INTO accounts (id, name, balance, interest_rate, created_at, last_interest_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`

	pgSelectAcctSQL = `
		SELECT name, balance, interest_rate, created_at, last_interest_at
		FROM accounts
		WHERE id = $1;
	`

	pgListAcctsSQL = `
		SELECT id, name, balance, interest_rate, created_at, last_interest_at
		FROM accounts
		ORDER BY created_at DESC;
	`

	pgUpdateAcctSQL = `
		UPDATE accounts
		SET balance = $1, interest_rate = $2, last_interest_at = $3
		WHERE id = $4;
	`

	pgInsertTxnSQL = `
		INSERT INTO transactions (id, account_id, kind, amount, balance_after, ts, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

	pgListTxnsSQL = `
		SELECT id, kind, amount, balance_after, ts, note
		FROM transactions
		WHERE account_id = $1
		ORDER BY ts DESC;
	`
)

type PostgresEndpoint struct {
	pool *pgxpool.Pool
	log  *zerolog.Logger
}

var (
	_ Repository = (*PostgresEndpoint)(nil)
)

func NewPostgresEndpoint(connStr string, log *zerolog.Logger) (*PostgresEndpoint, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	if err = pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	endpt := &PostgresEndpoint{
		pool: pool,
		log:  log,
	}
	return endpt, err
}

func (pg *PostgresEndpoint) CreateAccount(acct Account) error {
	ctx := context.Background()
	conn, err := pg.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, pgInsertAcctSQL,
		acct.ID, acct.Name, acct.Balance, acct.InterestRate, acct.CreatedAt, acct.LastInterestAt)
	return err
}

func (pg *PostgresEndpoint) GetAccount(id snowflake.ID) (*Account, error) {
	ctx := context.Background()
	conn, err := pg.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	acct := Account{ID: id}
	row := conn.QueryRow(ctx, pgSelectAcctSQL, id)
	if err = row.Scan(&acct.Name, &acct.Balance, &acct.InterestRate, &acct.CreatedAt, &acct.LastInterestAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound{ID: id.String()}
		}
		return nil, err
	}
	return &acct, err
}

func (pg *PostgresEndpoint) ListAccounts() ([]Account, error) {
	ctx := context.Background()
	conn, err := pg.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, pgListAcctsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accts []Account
	for rows.Next() {
		var acct Account
		if err = rows.Scan(&acct.ID, &acct.Name, &acct.Balance, &acct.InterestRate, &acct.CreatedAt, &acct.LastInterestAt); err != nil {
			return nil, err
		}
		accts = append(accts, acct)
	}
	return accts, rows.Err()
}

func (pg *PostgresEndpoint) PutAccount(acct Account) error {
	ctx := context.Background()
	conn, err := pg.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, pgUpdateAcctSQL,
		acct.Balance, acct.InterestRate, acct.LastInterestAt, acct.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound{ID: acct.ID.String()}
	}
	return err
}

func (pg *PostgresEndpoint) AppendTransaction(txn Transaction) error {
	ctx := context.Background()
	conn, err := pg.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, pgInsertTxnSQL,
		txn.ID, txn.AccountID, txn.Kind, txn.Amount, txn.BalanceAfter, txn.Timestamp, txn.Note)
	return err
}

// UpdateBalance wraps the account overwrite and the transaction append in
// one database transaction so a reader never observes a balance that
// disagrees with the ledger.
func (pg *PostgresEndpoint) UpdateBalance(acct Account, txn Transaction) error {
	ctx := context.Background()
	conn, err := pg.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(ctx); rerr != nil && rerr != pgx.ErrTxClosed {
				pg.log.Err(rerr).Str("txn", txn.ID).Msg("ledger write rollback fail")
			}
		}
	}()

	tag, err := tx.Exec(ctx, pgUpdateAcctSQL,
		acct.Balance, acct.InterestRate, acct.LastInterestAt, acct.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = ErrNotFound{ID: acct.ID.String()}
		return err
	}

	if _, err = tx.Exec(ctx, pgInsertTxnSQL,
		txn.ID, txn.AccountID, txn.Kind, txn.Amount, txn.BalanceAfter, txn.Timestamp, txn.Note); err != nil {
		return err
	}

	err = tx.Commit(ctx)
	return err
}

func (pg *PostgresEndpoint) ListTransactions(id snowflake.ID) ([]Transaction, error) {
	ctx := context.Background()
	conn, err := pg.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, pgListTxnsSQL, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		txn := Transaction{AccountID: id}
		if err = rows.Scan(&txn.ID, &txn.Kind, &txn.Amount, &txn.BalanceAfter, &txn.Timestamp, &txn.Note); err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}
