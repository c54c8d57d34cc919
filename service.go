package sproutbank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CreateAccountReq struct {
	Name string `json:"name"`
}

type ChargeReq struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
	AcctID snowflake.ID
}

type RateReq struct {
	Rate   decimal.Decimal `json:"rate"`
	AcctID snowflake.ID
}

type StatementReq struct {
	AcctID snowflake.ID
}

type Service interface {
	CreateAccount(CreateAccountReq) (*Account, error)
	Account(snowflake.ID) (*Account, error)
	ListAccounts() ([]Account, error)
	Deposit(ChargeReq) (*Transaction, error)
	Withdraw(ChargeReq) (*Transaction, error)
	UpdateInterestRate(RateReq) error
	Transactions(snowflake.ID) ([]Transaction, error)
	Statement(io.Writer, StatementReq) error
}

func NewService(repo Repository, node *snowflake.Node, pub TxnPublisher, log *zerolog.Logger) (*serviceImpl, error) {
	if repo == nil || node == nil {
		return nil, fmt.Errorf("repository and snowflake node are required")
	}
	return &serviceImpl{
		repo:  repo,
		node:  node,
		pub:   pub,
		log:   log,
		clock: realClock{},
		muMap: make(map[snowflake.ID]*sync.Mutex),
	}, nil
}

type serviceImpl struct {
	repo  Repository
	node  *snowflake.Node
	pub   TxnPublisher
	log   *zerolog.Logger
	clock Clock

	// per-account locks serialize the read-modify-write of balance plus
	// transaction append; operations on different accounts proceed in
	// parallel.
	muMap map[snowflake.ID]*sync.Mutex
	mapMu sync.Mutex
}

var (
	_ Service = (*serviceImpl)(nil)
)

// WithClock overrides the wall clock. Used by tests and the accrual
// engine wiring.
func (s *serviceImpl) WithClock(c Clock) *serviceImpl {
	s.clock = c
	return s
}

// getAccount wraps real persistence failures as ErrStorage; a missing
// account stays a caller error.
func (s *serviceImpl) getAccount(id snowflake.ID) (*Account, error) {
	acct, err := s.repo.GetAccount(id)
	if err != nil {
		errnf := &ErrNotFound{}
		if errors.As(err, errnf) {
			return nil, err
		}
		return nil, storageErr(err)
	}
	return acct, nil
}

func (s *serviceImpl) acctLock(id snowflake.ID) *sync.Mutex {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()
	mu, ok := s.muMap[id]
	if !ok {
		mu = &sync.Mutex{}
		s.muMap[id] = mu
	}
	return mu
}

func (s *serviceImpl) CreateAccount(req CreateAccountReq) (*Account, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrBadRequest{Fields: map[string]string{"name": "must not be empty"}}
	}
	acct := Account{
		ID:           s.node.Generate(),
		Name:         name,
		Balance:      decimal.Zero,
		InterestRate: decimal.Zero,
		CreatedAt:    s.clock.Now().UTC(),
	}
	if err := s.repo.CreateAccount(acct); err != nil {
		return nil, storageErr(err)
	}
	return &acct, nil
}

func (s *serviceImpl) Account(id snowflake.ID) (*Account, error) {
	return s.getAccount(id)
}

func (s *serviceImpl) ListAccounts() ([]Account, error) {
	accts, err := s.repo.ListAccounts()
	if err != nil {
		return nil, storageErr(err)
	}
	return accts, nil
}

func (s *serviceImpl) Deposit(req ChargeReq) (*Transaction, error) {
	if err := ValidAmount(req.Amount); err != nil {
		return nil, err
	}

	mu := s.acctLock(req.AcctID)
	mu.Lock()
	defer mu.Unlock()

	acct, err := s.getAccount(req.AcctID)
	if err != nil {
		return nil, err
	}

	newBal := Round2(acct.Balance.Add(req.Amount))
	txn := Transaction{
		ID:           uuid.NewString(),
		AccountID:    acct.ID,
		Kind:         TxnDeposit,
		Amount:       Round2(req.Amount),
		BalanceAfter: newBal,
		Timestamp:    s.clock.Now().UTC(),
		Note:         req.Note,
	}
	acct.Balance = newBal
	if err := s.repo.UpdateBalance(*acct, txn); err != nil {
		return nil, storageErr(err)
	}
	s.publish(txn)
	return &txn, nil
}

func (s *serviceImpl) Withdraw(req ChargeReq) (*Transaction, error) {
	if err := ValidAmount(req.Amount); err != nil {
		return nil, err
	}

	mu := s.acctLock(req.AcctID)
	mu.Lock()
	defer mu.Unlock()

	acct, err := s.getAccount(req.AcctID)
	if err != nil {
		return nil, err
	}

	// the unrounded amount is compared against the authoritative balance
	if req.Amount.GreaterThan(acct.Balance) {
		return nil, ErrInsufficientFunds
	}

	newBal := Round2(acct.Balance.Sub(req.Amount))
	txn := Transaction{
		ID:           uuid.NewString(),
		AccountID:    acct.ID,
		Kind:         TxnWithdrawal,
		Amount:       Round2(req.Amount),
		BalanceAfter: newBal,
		Timestamp:    s.clock.Now().UTC(),
		Note:         req.Note,
	}
	acct.Balance = newBal
	if err := s.repo.UpdateBalance(*acct, txn); err != nil {
		return nil, storageErr(err)
	}
	s.publish(txn)
	return &txn, nil
}

func (s *serviceImpl) UpdateInterestRate(req RateReq) error {
	if err := ValidRate(req.Rate); err != nil {
		return err
	}

	mu := s.acctLock(req.AcctID)
	mu.Lock()
	defer mu.Unlock()

	acct, err := s.getAccount(req.AcctID)
	if err != nil {
		return err
	}
	acct.InterestRate = req.Rate
	if err := s.repo.PutAccount(*acct); err != nil {
		return storageErr(err)
	}
	return nil
}

func (s *serviceImpl) Transactions(id snowflake.ID) ([]Transaction, error) {
	if _, err := s.getAccount(id); err != nil {
		return nil, err
	}
	txns, err := s.repo.ListTransactions(id)
	if err != nil {
		return nil, storageErr(err)
	}
	return txns, nil
}

// ApplyInterest credits one accrual period's interest. It is the accrual
// engine's primitive, not part of the Service interface, since the amount
// is computed rather than validated. A computed interest of zero cents is
// a no-op: no transaction is created and LastInterestAt is not advanced,
// so a later nonzero-balance run still enumerates the skipped period.
func (s *serviceImpl) ApplyInterest(acctID snowflake.ID, period time.Time) (*Transaction, error) {
	mu := s.acctLock(acctID)
	mu.Lock()
	defer mu.Unlock()

	acct, err := s.getAccount(acctID)
	if err != nil {
		return nil, err
	}

	interest := Round2(acct.Balance.Mul(acct.InterestRate))
	if interest.IsZero() {
		return nil, nil
	}

	// the ledger entry is stamped with wall-clock time so the newest
	// entry's BalanceAfter always matches the live balance even during
	// retroactive catch-up; the period anchor is what LastInterestAt
	// records.
	newBal := Round2(acct.Balance.Add(interest))
	period = period.UTC()
	txn := Transaction{
		ID:           uuid.NewString(),
		AccountID:    acct.ID,
		Kind:         TxnInterest,
		Amount:       interest,
		BalanceAfter: newBal,
		Timestamp:    s.clock.Now().UTC(),
		Note:         fmt.Sprintf("weekly interest at %s%%", acct.InterestRate.Mul(decimal.NewFromInt(100)).StringFixed(2)),
	}
	acct.Balance = newBal
	acct.LastInterestAt = &period
	if err := s.repo.UpdateBalance(*acct, txn); err != nil {
		return nil, storageErr(err)
	}
	s.publish(txn)
	return &txn, nil
}

// publish is best-effort; a broker failure never fails the ledger write
// that already committed.
func (s *serviceImpl) publish(txn Transaction) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishTransaction(context.Background(), txn); err != nil && s.log != nil {
		s.log.Err(err).
			Str("txn", txn.ID).
			Str("kind", string(txn.Kind)).
			Msg("transaction event publish failed")
	}
}
