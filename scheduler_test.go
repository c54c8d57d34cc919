package sproutbank_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbrodan/sproutbank"
)

func TestSchedulerRunsImmediatelyAtStart(t *testing.T) {
	as := assert.New(t)
	reqrd := require.New(t)

	last := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	_, eng, svc, acct := newAccrualFixture(t, "100", "0.05", &last, now)

	log := zerolog.Nop()
	// long interval: only the startup run can fire within the test window
	sched := sproutbank.NewScheduler(eng, time.Hour, &log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)

	reqrd.Eventually(func() bool {
		txns, err := svc.Transactions(acct.ID)
		if err != nil {
			return false
		}
		for _, txn := range txns {
			if txn.Kind == sproutbank.TxnInterest {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	got, err := svc.Account(acct.ID)
	reqrd.Nil(err)
	as.Equal("105.00", got.Balance.StringFixed(2))
}

func TestSchedulerTicksAreIdempotent(t *testing.T) {
	as := assert.New(t)
	reqrd := require.New(t)

	last := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	_, eng, svc, acct := newAccrualFixture(t, "100", "0.05", &last, now)

	log := zerolog.Nop()
	sched := sproutbank.NewScheduler(eng, 5*time.Millisecond, &log)
	ctx, cancel := context.WithCancel(context.Background())
	sched.Start(ctx)

	// let several ticks elapse, then stop
	time.Sleep(80 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	txns, err := svc.Transactions(acct.ID)
	reqrd.Nil(err)
	count := 0
	for _, txn := range txns {
		if txn.Kind == sproutbank.TxnInterest {
			count++
		}
	}
	as.Equal(1, count, "interest must be applied exactly once per due period")
}

