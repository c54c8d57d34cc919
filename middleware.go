package sproutbank

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"
)

type Middleware func(Service) Service

// isCallerError reports whether err is the caller's fault; such failures
// must not trip the circuit breaker or count against the service.
func isCallerError(err error) bool {
	errnf := &ErrNotFound{}
	errbr := &ErrBadRequest{}
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidRate) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.As(err, errnf) ||
		errors.As(err, errbr)
}

//
// Validation middleware
//

// validationMiddleware rejects malformed requests before they reach the
// ledger, so no write is ever attempted for a caller error.
type validationMiddleware struct {
	next Service
}

var (
	_ Service = (*validationMiddleware)(nil)
)

func NewValidationMiddleware() Middleware {
	return func(svc Service) Service {
		return &validationMiddleware{
			next: svc,
		}
	}
}

func (v *validationMiddleware) CreateAccount(req CreateAccountReq) (*Account, error) {
	if req.Name == "" {
		return nil, ErrBadRequest{Fields: map[string]string{"name": "must not be empty"}}
	}
	return v.next.CreateAccount(req)
}

func (v *validationMiddleware) Account(id snowflake.ID) (*Account, error) {
	return v.next.Account(id)
}

func (v *validationMiddleware) ListAccounts() ([]Account, error) {
	return v.next.ListAccounts()
}

func (v *validationMiddleware) Deposit(req ChargeReq) (*Transaction, error) {
	if err := ValidAmount(req.Amount); err != nil {
		return nil, ErrBadRequest{Fields: map[string]string{"amount": err.Error()}}
	}
	return v.next.Deposit(req)
}

func (v *validationMiddleware) Withdraw(req ChargeReq) (*Transaction, error) {
	if err := ValidAmount(req.Amount); err != nil {
		return nil, ErrBadRequest{Fields: map[string]string{"amount": err.Error()}}
	}
	return v.next.Withdraw(req)
}

func (v *validationMiddleware) UpdateInterestRate(req RateReq) error {
	if err := ValidRate(req.Rate); err != nil {
		return ErrBadRequest{Fields: map[string]string{"rate": err.Error()}}
	}
	return v.next.UpdateInterestRate(req)
}

func (v *validationMiddleware) Transactions(id snowflake.ID) ([]Transaction, error) {
	return v.next.Transactions(id)
}

func (v *validationMiddleware) Statement(w io.Writer, req StatementReq) error {
	return v.next.Statement(w, req)
}

//
// Rate limiting middlewares
//

// limitMiddleware caps in-flight requests per operation group with
// weighted semaphores. A request that cannot acquire a token within
// acquireTimeout is shed with ErrOverloaded instead of queueing without
// bound.
type limitMiddleware struct {
	next   Service
	limits *ServiceLimits
}

var (
	_ Service = (*limitMiddleware)(nil)
)

const acquireTimeout = 3 * time.Second

type ServiceLimits struct {
	CreateAccount *semaphore.Weighted
	Charge        *semaphore.Weighted
	Read          *semaphore.Weighted
	Statement     *semaphore.Weighted
}

func NewServiceLimits(createAccount, charge, read, statement int64) *ServiceLimits {
	return &ServiceLimits{
		CreateAccount: semaphore.NewWeighted(createAccount),
		Charge:        semaphore.NewWeighted(charge),
		Read:          semaphore.NewWeighted(read),
		Statement:     semaphore.NewWeighted(statement),
	}
}

func NewLimitMiddleware(limits *ServiceLimits) Middleware {
	return func(next Service) Service {
		return &limitMiddleware{
			next:   next,
			limits: limits,
		}
	}
}

func acquire(sem *semaphore.Weighted) error {
	ctx, cancel := context.WithTimeout(context.Background(), acquireTimeout)
	defer cancel()
	if err := sem.Acquire(ctx, 1); err != nil {
		return ErrOverloaded
	}
	return nil
}

func (l *limitMiddleware) CreateAccount(req CreateAccountReq) (*Account, error) {
	if err := acquire(l.limits.CreateAccount); err != nil {
		return nil, err
	}
	defer l.limits.CreateAccount.Release(1)
	return l.next.CreateAccount(req)
}

func (l *limitMiddleware) Account(id snowflake.ID) (*Account, error) {
	if err := acquire(l.limits.Read); err != nil {
		return nil, err
	}
	defer l.limits.Read.Release(1)
	return l.next.Account(id)
}

func (l *limitMiddleware) ListAccounts() ([]Account, error) {
	if err := acquire(l.limits.Read); err != nil {
		return nil, err
	}
	defer l.limits.Read.Release(1)
	return l.next.ListAccounts()
}

func (l *limitMiddleware) Deposit(req ChargeReq) (*Transaction, error) {
	if err := acquire(l.limits.Charge); err != nil {
		return nil, err
	}
	defer l.limits.Charge.Release(1)
	return l.next.Deposit(req)
}

func (l *limitMiddleware) Withdraw(req ChargeReq) (*Transaction, error) {
	if err := acquire(l.limits.Charge); err != nil {
		return nil, err
	}
	defer l.limits.Charge.Release(1)
	return l.next.Withdraw(req)
}

func (l *limitMiddleware) UpdateInterestRate(req RateReq) error {
	if err := acquire(l.limits.Charge); err != nil {
		return err
	}
	defer l.limits.Charge.Release(1)
	return l.next.UpdateInterestRate(req)
}

func (l *limitMiddleware) Transactions(id snowflake.ID) ([]Transaction, error) {
	if err := acquire(l.limits.Read); err != nil {
		return nil, err
	}
	defer l.limits.Read.Release(1)
	return l.next.Transactions(id)
}

func (l *limitMiddleware) Statement(w io.Writer, req StatementReq) error {
	if err := acquire(l.limits.Statement); err != nil {
		return err
	}
	defer l.limits.Statement.Release(1)
	return l.next.Statement(w, req)
}

type ServiceBreaker struct {
	CreateAccount *gobreaker.TwoStepCircuitBreaker[*Account]
	Charge        *gobreaker.TwoStepCircuitBreaker[*Transaction]
	Read          *gobreaker.TwoStepCircuitBreaker[interface{}]
	Statement     *gobreaker.TwoStepCircuitBreaker[interface{}]
}

func NewServiceBreaker() *ServiceBreaker {
	return &ServiceBreaker{
		CreateAccount: gobreaker.NewTwoStepCircuitBreaker[*Account](gobreaker.Settings{Name: "create_account"}),
		Charge:        gobreaker.NewTwoStepCircuitBreaker[*Transaction](gobreaker.Settings{Name: "charge"}),
		Read:          gobreaker.NewTwoStepCircuitBreaker[interface{}](gobreaker.Settings{Name: "read"}),
		Statement:     gobreaker.NewTwoStepCircuitBreaker[interface{}](gobreaker.Settings{Name: "statement"}),
	}
}

// circuitBreakMiddleware is a middleware that implements the circuit breaker pattern.
// It works in conjunction with limitMiddleware to shed load when the service is
// struggling to release tokens from the limit semaphores within the acquisition
// deadline. Caller errors do not count against the breaker.
type circuitBreakMiddleware struct {
	next  Service
	brkrs *ServiceBreaker
}

var (
	_ Service = (*circuitBreakMiddleware)(nil)
)

func NewCircuitBreakMiddleware(brkrs *ServiceBreaker) Middleware {
	return func(next Service) Service {
		return &circuitBreakMiddleware{
			next:  next,
			brkrs: brkrs,
		}
	}
}

func (c *circuitBreakMiddleware) CreateAccount(req CreateAccountReq) (*Account, error) {
	done, err := c.brkrs.CreateAccount.Allow()
	if err != nil {
		return nil, ErrOverloaded
	}
	acct, err := c.next.CreateAccount(req)
	done(err == nil || isCallerError(err))
	return acct, err
}

func (c *circuitBreakMiddleware) Account(id snowflake.ID) (*Account, error) {
	done, err := c.brkrs.Read.Allow()
	if err != nil {
		return nil, ErrOverloaded
	}
	acct, err := c.next.Account(id)
	done(err == nil || isCallerError(err))
	return acct, err
}

func (c *circuitBreakMiddleware) ListAccounts() ([]Account, error) {
	done, err := c.brkrs.Read.Allow()
	if err != nil {
		return nil, ErrOverloaded
	}
	accts, err := c.next.ListAccounts()
	done(err == nil || isCallerError(err))
	return accts, err
}

func (c *circuitBreakMiddleware) Deposit(req ChargeReq) (*Transaction, error) {
	done, err := c.brkrs.Charge.Allow()
	if err != nil {
		return nil, ErrOverloaded
	}
	txn, err := c.next.Deposit(req)
	done(err == nil || isCallerError(err))
	return txn, err
}

func (c *circuitBreakMiddleware) Withdraw(req ChargeReq) (*Transaction, error) {
	done, err := c.brkrs.Charge.Allow()
	if err != nil {
		return nil, ErrOverloaded
	}
	txn, err := c.next.Withdraw(req)
	done(err == nil || isCallerError(err))
	return txn, err
}

func (c *circuitBreakMiddleware) UpdateInterestRate(req RateReq) error {
	done, err := c.brkrs.Charge.Allow()
	if err != nil {
		return ErrOverloaded
	}
	err = c.next.UpdateInterestRate(req)
	done(err == nil || isCallerError(err))
	return err
}

func (c *circuitBreakMiddleware) Transactions(id snowflake.ID) ([]Transaction, error) {
	done, err := c.brkrs.Read.Allow()
	if err != nil {
		return nil, ErrOverloaded
	}
	txns, err := c.next.Transactions(id)
	done(err == nil || isCallerError(err))
	return txns, err
}

func (c *circuitBreakMiddleware) Statement(w io.Writer, req StatementReq) error {
	done, err := c.brkrs.Statement.Allow()
	if err != nil {
		return ErrOverloaded
	}
	err = c.next.Statement(w, req)
	done(err == nil || isCallerError(err))
	return err
}

// Chain applies middlewares outermost-first.
func Chain(svc Service, mws ...Middleware) Service {
	for i := len(mws) - 1; i >= 0; i-- {
		svc = mws[i](svc)
	}
	return svc
}
