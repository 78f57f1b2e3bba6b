package redemption

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/ledger"
)

// assertBalanceMatchesLedger checks the materialized balance against the fold
// of the mason's ledger entries.
func assertBalanceMatchesLedger(t *testing.T, store *memStore, masonID uuid.UUID) int64 {
	t.Helper()
	balance, err := store.GetBalance(context.Background(), masonID)
	require.NoError(t, err)
	var sum int64
	for _, e := range store.ledgerFor(masonID) {
		sum += e.Points
	}
	assert.Equal(t, sum, balance)
	return balance
}

func TestConcurrentRequestsNeverOverdraw(t *testing.T) {
	svc, store, _ := newTestService()
	masonID := store.addMason(1000)
	rewardID := store.addReward(150, 100, true)

	var ok, short int64
	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := svc.CreateRequest(context.Background(), CreateParams{
				MasonID: masonID, RewardID: rewardID, Quantity: 1,
			})
			var be *ledger.InsufficientBalanceError
			switch {
			case err == nil:
				atomic.AddInt64(&ok, 1)
			case errors.As(err, &be):
				atomic.AddInt64(&short, 1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(6), ok, "1000 points cover six 150-point requests")
	assert.Equal(t, int64(14), short)

	balance := assertBalanceMatchesLedger(t, store, masonID)
	assert.Equal(t, int64(100), balance)
	assert.GreaterOrEqual(t, balance, int64(0))
}

func TestConcurrentApprovalsNeverOversellStock(t *testing.T) {
	svc, store, _ := newTestService()
	rewardID := store.addReward(10, 4, true)

	ids := make([]uuid.UUID, 0, 10)
	for i := 0; i < 10; i++ {
		masonID := store.addMason(100)
		ids = append(ids, create(t, svc, masonID, rewardID, 1).ID)
	}

	var approved int64
	var g errgroup.Group
	for _, id := range ids {
		id := id
		g.Go(func() error {
			_, err := transition(svc, id, StatusApproved)
			switch {
			case err == nil:
				atomic.AddInt64(&approved, 1)
			case errors.Is(err, ErrInsufficientStock):
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(4), approved)
	assert.Equal(t, 0, store.reward(rewardID).Stock)

	approvedStatus := StatusApproved
	_, total, err := svc.ListRequests(context.Background(), ListFilter{Status: &approvedStatus})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
}

func TestConcurrentRejectionsRefundOnce(t *testing.T) {
	svc, store, _ := newTestService()
	masonID := store.addMason(500)
	rewardID := store.addReward(100, 5, true)
	req := create(t, svc, masonID, rewardID, 2)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := transition(svc, req.ID, StatusRejected)
			return err
		})
	}
	require.NoError(t, g.Wait())

	balance := assertBalanceMatchesLedger(t, store, masonID)
	assert.Equal(t, int64(500), balance)
	assert.Len(t, store.ledgerFor(masonID), 3, "seed credit, debit, one refund")

	history, _ := svc.History(context.Background(), req.ID)
	assert.Len(t, history, 2)
}

func TestTerminalStatesAreFinal(t *testing.T) {
	svc, store, _ := newTestService()
	masonID := store.addMason(1000)
	rewardID := store.addReward(100, 5, true)

	delivered := create(t, svc, masonID, rewardID, 1)
	for _, st := range []Status{StatusApproved, StatusShipped, StatusDelivered} {
		_, err := transition(svc, delivered.ID, st)
		require.NoError(t, err)
	}
	rejected := create(t, svc, masonID, rewardID, 1)
	_, err := transition(svc, rejected.ID, StatusRejected)
	require.NoError(t, err)

	balanceBefore := assertBalanceMatchesLedger(t, store, masonID)
	stockBefore := store.reward(rewardID).Stock

	for _, id := range []uuid.UUID{delivered.ID, rejected.ID} {
		current, _ := svc.GetRequest(context.Background(), id)
		for _, to := range Statuses {
			got, err := transition(svc, id, to)
			if to == current.Status {
				require.NoError(t, err)
				assert.Equal(t, current.Status, got.Status)
				continue
			}
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", current.Status, to)
		}
	}

	assert.Equal(t, balanceBefore, assertBalanceMatchesLedger(t, store, masonID))
	assert.Equal(t, stockBefore, store.reward(rewardID).Stock)
}

func TestRedemptionPointsNetToZeroOrCost(t *testing.T) {
	svc, store, _ := newTestService()
	masonID := store.addMason(2000)
	rewardID := store.addReward(100, 10, true)

	paths := map[string][]Status{
		"delivered":         {StatusApproved, StatusShipped, StatusDelivered},
		"rejected pending":  {StatusRejected},
		"rejected approved": {StatusApproved, StatusRejected},
		"shipped":           {StatusApproved, StatusShipped},
	}
	for name, path := range paths {
		req := create(t, svc, masonID, rewardID, 2)
		for _, st := range path {
			_, err := transition(svc, req.ID, st)
			require.NoError(t, err, name)
		}

		var net int64
		for _, e := range store.ledgerFor(masonID) {
			if e.SourceID != nil && *e.SourceID == req.ID {
				net += e.Points
			}
		}
		if path[len(path)-1] == StatusRejected {
			assert.Zero(t, net, name)
		} else {
			assert.Equal(t, -req.PointsDebited, net, name)
		}
	}
	assertBalanceMatchesLedger(t, store, masonID)
}

func TestRedemptionLifecycleScenario(t *testing.T) {
	svc, store, pub := newTestService()
	masonID := store.addMason(500)
	rewardID := store.addReward(200, 3, true)

	first := create(t, svc, masonID, rewardID, 2)
	assert.Equal(t, int64(100), assertBalanceMatchesLedger(t, store, masonID))

	_, err := svc.CreateRequest(context.Background(), CreateParams{MasonID: masonID, RewardID: rewardID, Quantity: 1})
	var be *ledger.InsufficientBalanceError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, int64(100), be.Balance)
	assert.Equal(t, int64(200), be.Required)

	_, err = transition(svc, first.ID, StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, 1, store.reward(rewardID).Stock)

	_, err = transition(svc, first.ID, StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, 3, store.reward(rewardID).Stock)
	assert.Equal(t, int64(500), assertBalanceMatchesLedger(t, store, masonID))

	second := create(t, svc, masonID, rewardID, 1)
	for _, st := range []Status{StatusApproved, StatusShipped, StatusDelivered} {
		_, err := transition(svc, second.ID, st)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(300), assertBalanceMatchesLedger(t, store, masonID))
	assert.Equal(t, 2, store.reward(rewardID).Stock)

	assert.Equal(t, []string{
		EventCreated, EventStatusChanged, EventStatusChanged,
		EventCreated, EventStatusChanged, EventStatusChanged, EventStatusChanged,
	}, pub.types())
}
