package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/ledger"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/redemption"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/eventbus"
)

type fakeReconciler struct {
	mu      sync.Mutex
	calls   int
	since   []time.Time
	drifted []ledger.Reconciliation
	err     error
}

func (f *fakeReconciler) ReconcileActive(ctx context.Context, since time.Time, limit int) ([]ledger.Reconciliation, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.since = append(f.since, since)
	return f.drifted, 3, f.err
}

func (f *fakeReconciler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestPassCountsDrift(t *testing.T) {
	f := &fakeReconciler{drifted: []ledger.Reconciliation{{MasonID: uuid.New(), Materialized: 10, LedgerSum: 7, Drift: 3}}}

	before := time.Now()
	assert.Equal(t, 1, pass(context.Background(), f, time.Hour))
	require.Len(t, f.since, 1)
	assert.WithinDuration(t, before.Add(-time.Hour), f.since[0], time.Second)

	f.err = errors.New("db down")
	assert.Equal(t, 0, pass(context.Background(), f, time.Hour))
}

func TestRunWakesOnRedemptionEvents(t *testing.T) {
	f := &fakeReconciler{}
	bus := eventbus.New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := bus.Subscribe(ctx, redemption.EventsChannel)
	require.NoError(t, err)

	wake := make(chan struct{}, 1)
	go func() {
		for range events {
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		run(ctx, f, time.Hour, time.Hour, wake)
		close(done)
	}()

	require.Eventually(t, func() bool { return f.count() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, bus.Publish(context.Background(), redemption.EventsChannel, redemption.Event{Type: redemption.EventCreated}))
	require.Eventually(t, func() bool { return f.count() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not stop after cancel")
	}
}
