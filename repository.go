package sproutbank

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type TxnKind string

const (
	TxnDeposit    TxnKind = "deposit"
	TxnWithdrawal TxnKind = "withdrawal"
	TxnInterest   TxnKind = "interest"
)

// Account is the mutable snapshot of a child's savings account. Balance
// always equals the fold of the account's transactions in timestamp order
// and never goes negative. InterestRate is a dimensionless fraction per
// accrual period.
type Account struct {
	ID             snowflake.ID    `json:"id"`
	Name           string          `json:"name"`
	Balance        decimal.Decimal `json:"balance"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	CreatedAt      time.Time       `json:"created_at"`
	LastInterestAt *time.Time      `json:"last_interest_at,omitempty"`
}

// Transaction is an immutable ledger entry. Amount is the magnitude
// moved; BalanceAfter is the account balance immediately after this
// entry, preserved on every write.
type Transaction struct {
	ID           string          `json:"id"`
	AccountID    snowflake.ID    `json:"account_id"`
	Kind         TxnKind         `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Timestamp    time.Time       `json:"timestamp"`
	Note         string          `json:"note,omitempty"`
}

// Repository is the ledger store: a mutable account record plus an
// append-only transaction log.
type Repository interface {
	CreateAccount(Account) error
	GetAccount(id snowflake.ID) (*Account, error)
	ListAccounts() ([]Account, error)
	// PutAccount overwrites the mutable fields of an existing account.
	PutAccount(Account) error
	// AppendTransaction is create-only and fails on a duplicate ID.
	AppendTransaction(Transaction) error
	// UpdateBalance persists the account overwrite and the transaction
	// append as one atomic write; a reader never observes one without
	// the other.
	UpdateBalance(acct Account, txn Transaction) error
	// ListTransactions returns the account's ledger, newest first.
	ListTransactions(id snowflake.ID) ([]Transaction, error)
}
