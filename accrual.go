package sproutbank

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Clock supplies "now" so period enumeration is deterministic in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Interest becomes due weekly at the anchor instant: Monday 10:00 UTC.
const (
	accrualWeekday = time.Monday
	accrualHour    = 10
)

// weekAnchor returns the anchor instant of now's calendar week, which
// may still lie in the future early on the anchor day.
func weekAnchor(now time.Time) time.Time {
	now = now.UTC()
	daysBack := (int(now.Weekday()) - int(accrualWeekday) + 7) % 7
	return time.Date(now.Year(), now.Month(), now.Day(), accrualHour, 0, 0, 0, time.UTC).
		AddDate(0, 0, -daysBack)
}

// currentAnchor returns the most recent anchor instant at or before now.
func currentAnchor(now time.Time) time.Time {
	anchor := weekAnchor(now)
	if anchor.After(now.UTC()) {
		anchor = anchor.AddDate(0, 0, -7)
	}
	return anchor
}

// duePeriods enumerates the anchor instants owed interest, oldest first.
// An account that has never accrued owes this week's anchor alone, and
// nothing while the cycle has not started: early on the anchor day no
// interest is due yet. One that has accrued before owes every anchor
// strictly after its last recorded accrual, up to and including the
// current anchor, one full period at a time. Enumeration is independent
// of whether any period actually produces a transaction.
func duePeriods(last *time.Time, now time.Time) []time.Time {
	if last == nil {
		anchor := weekAnchor(now)
		if anchor.After(now.UTC()) {
			return nil
		}
		return []time.Time{anchor}
	}
	cur := currentAnchor(now)
	var due []time.Time
	for p := nextAnchorAfter(*last); !p.After(cur); p = p.AddDate(0, 0, 7) {
		due = append(due, p)
	}
	return due
}

func nextAnchorAfter(t time.Time) time.Time {
	return currentAnchor(t).AddDate(0, 0, 7)
}

// InterestApplier is the ledger primitive the engine drives. Returns nil
// without error when the period's interest computes to zero cents.
type InterestApplier interface {
	ApplyInterest(acctID snowflake.ID, period time.Time) (*Transaction, error)
}

// AccrualReport summarizes one batch run.
type AccrualReport struct {
	Started  time.Time       `json:"started"`
	Accounts int             `json:"accounts"`
	Applied  int             `json:"applied"`
	Skipped  int             `json:"skipped"`
	Failures int             `json:"failures"`
	Total    decimal.Decimal `json:"total_distributed"`
}

// Engine decides which periods each account is owed and applies them in
// chronological order, so a long-offline process catches up retroactively.
// Idempotence comes entirely from LastInterestAt on each account; running
// the engine arbitrarily often never double-applies a period.
type Engine struct {
	repo  Repository
	svc   InterestApplier
	clock Clock
	log   *zerolog.Logger
}

func NewEngine(repo Repository, svc InterestApplier, clock Clock, log *zerolog.Logger) *Engine {
	if clock == nil {
		clock = realClock{}
	}
	return &Engine{
		repo:  repo,
		svc:   svc,
		clock: clock,
		log:   log,
	}
}

// RunOnce evaluates every account. Accounts and their periods are
// processed independently: a failed period is logged and counted, never
// aborting the rest of the batch.
func (e *Engine) RunOnce(ctx context.Context) (*AccrualReport, error) {
	now := e.clock.Now().UTC()
	rep := &AccrualReport{Started: now, Total: decimal.Zero}

	accts, err := e.repo.ListAccounts()
	if err != nil {
		return rep, storageErr(err)
	}

	for _, acct := range accts {
		select {
		case <-ctx.Done():
			return rep, ctx.Err()
		default:
		}

		if acct.InterestRate.IsZero() || acct.Balance.IsZero() {
			continue
		}

		due := duePeriods(acct.LastInterestAt, now)
		if len(due) == 0 {
			continue
		}
		rep.Accounts++

		for _, period := range due {
			txn, err := e.svc.ApplyInterest(acct.ID, period)
			if err != nil {
				rep.Failures++
				e.log.Err(err).
					Str("account", acct.ID.String()).
					Time("period", period).
					Msg("interest application failed")
				continue
			}
			if txn == nil {
				rep.Skipped++
				continue
			}
			rep.Applied++
			rep.Total = rep.Total.Add(txn.Amount)
			e.log.Info().
				Str("account", acct.ID.String()).
				Time("period", period).
				Str("amount", txn.Amount.StringFixed(2)).
				Msg("interest applied")
		}
	}

	return rep, nil
}
