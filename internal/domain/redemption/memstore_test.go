package redemption

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/catalog"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/ledger"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/mason"
)

var errInjected = errors.New("injected failure")

// memStore is an in-memory Repository. Transactions are serialized by one
// mutex and rolled back from a snapshot, so concurrent callers see the same
// isolation a row lock gives them in Postgres.
type memStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]Request
	history  []StatusChange
	entries  []ledger.Entry
	balances map[uuid.UUID]int64
	rewards  map[uuid.UUID]catalog.Item
	masons   map[uuid.UUID]mason.Mason

	// failAt names a TxRepository step that returns errInjected.
	failAt string
	clock  time.Time
}

type memSnapshot struct {
	requests map[uuid.UUID]Request
	history  []StatusChange
	entries  []ledger.Entry
	balances map[uuid.UUID]int64
	rewards  map[uuid.UUID]catalog.Item
}

func newMemStore() *memStore {
	return &memStore{
		requests: make(map[uuid.UUID]Request),
		balances: make(map[uuid.UUID]int64),
		rewards:  make(map[uuid.UUID]catalog.Item),
		masons:   make(map[uuid.UUID]mason.Mason),
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) now() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *memStore) addMason(balance int64) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	addr := "12 Kiln Road"
	s.masons[id] = mason.Mason{ID: id, Name: "Ramesh", Phone: "9800000000", Address: &addr}
	if balance != 0 {
		s.entries = append(s.entries, ledger.Entry{
			ID: uuid.New(), MasonID: id, SourceType: ledger.SourceBagLift, Points: balance, CreatedAt: s.now(),
		})
		s.balances[id] = balance
	}
	return id
}

func (s *memStore) addReward(cost int64, stock int, active bool) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.rewards[id] = catalog.Item{
		ID: id, Name: "Steel Trowel", PointCost: cost, Stock: stock,
		TotalAvailableQuantity: stock, IsActive: active,
	}
	return id
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		requests: make(map[uuid.UUID]Request, len(s.requests)),
		history:  append([]StatusChange(nil), s.history...),
		entries:  append([]ledger.Entry(nil), s.entries...),
		balances: make(map[uuid.UUID]int64, len(s.balances)),
		rewards:  make(map[uuid.UUID]catalog.Item, len(s.rewards)),
	}
	for k, v := range s.requests {
		snap.requests[k] = v
	}
	for k, v := range s.balances {
		snap.balances[k] = v
	}
	for k, v := range s.rewards {
		snap.rewards[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.requests = snap.requests
	s.history = snap.history
	s.entries = snap.entries
	s.balances = snap.balances
	s.rewards = snap.rewards
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx, &memTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	return &req, nil
}

func (s *memStore) List(ctx context.Context, f ListFilter) ([]Request, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, 0)
	for _, r := range s.requests {
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		if f.MasonID != nil && r.MasonID != *f.MasonID {
			continue
		}
		if f.RewardID != nil && r.RewardID != *f.RewardID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := len(out)
	if f.Offset >= len(out) {
		return []Request{}, total, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (s *memStore) History(ctx context.Context, requestID uuid.UUID) ([]StatusChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StatusChange, 0)
	for _, ch := range s.history {
		if ch.RequestID == requestID {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (s *memStore) Totals(ctx context.Context, masonID uuid.UUID) ([]StatusTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byStatus := make(map[Status]*StatusTotal)
	for _, r := range s.requests {
		if r.MasonID != masonID {
			continue
		}
		t, ok := byStatus[r.Status]
		if !ok {
			t = &StatusTotal{Status: r.Status}
			byStatus[r.Status] = t
		}
		t.Count++
		t.Points += r.PointsDebited
	}
	out := make([]StatusTotal, 0, len(byStatus))
	for _, t := range byStatus {
		out = append(out, *t)
	}
	return out, nil
}

// GetItem implements RewardReader
func (s *memStore) GetItem(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.rewards[id]
	if !ok {
		return nil, catalog.ErrRewardNotFound
	}
	return &item, nil
}

// GetBalance implements BalanceReader
func (s *memStore) GetBalance(ctx context.Context, masonID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[masonID], nil
}

func (s *memStore) reward(id uuid.UUID) catalog.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewards[id]
}

func (s *memStore) ledgerFor(masonID uuid.UUID) []ledger.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.Entry, 0)
	for _, e := range s.entries {
		if e.MasonID == masonID {
			out = append(out, e)
		}
	}
	return out
}

// memMasons implements mason.Repository over the store
type memMasons struct{ s *memStore }

func (m memMasons) GetByID(ctx context.Context, id uuid.UUID) (*mason.Mason, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	ms, ok := m.s.masons[id]
	if !ok {
		return nil, mason.ErrMasonNotFound
	}
	return &ms, nil
}

// memTx runs with memStore.mu held
type memTx struct{ s *memStore }

func (t *memTx) fail(step string) error {
	if t.s.failAt == step {
		return errInjected
	}
	return nil
}

func (t *memTx) LockBalance(ctx context.Context, masonID uuid.UUID) (int64, error) {
	if err := t.fail("LockBalance"); err != nil {
		return 0, err
	}
	if _, ok := t.s.masons[masonID]; !ok {
		return 0, ledger.ErrMasonNotFound
	}
	return t.s.balances[masonID], nil
}

func (t *memTx) AppendLedger(ctx context.Context, e *ledger.Entry) error {
	if err := t.fail("AppendLedger"); err != nil {
		return err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = t.s.now()
	t.s.entries = append(t.s.entries, *e)
	t.s.balances[e.MasonID] += e.Points
	return nil
}

func (t *memTx) DecrementStock(ctx context.Context, rewardID uuid.UUID, qty int) (int, error) {
	if err := t.fail("DecrementStock"); err != nil {
		return 0, err
	}
	item, ok := t.s.rewards[rewardID]
	switch {
	case !ok:
		return 0, catalog.ErrRewardNotFound
	case !item.IsActive:
		return 0, catalog.ErrInactiveReward
	case item.Stock < qty:
		return 0, catalog.ErrInsufficientStock
	}
	item.Stock -= qty
	t.s.rewards[rewardID] = item
	return item.Stock, nil
}

func (t *memTx) IncrementStock(ctx context.Context, rewardID uuid.UUID, qty int) (int, error) {
	if err := t.fail("IncrementStock"); err != nil {
		return 0, err
	}
	item, ok := t.s.rewards[rewardID]
	if !ok {
		return 0, catalog.ErrRewardNotFound
	}
	item.Stock += qty
	t.s.rewards[rewardID] = item
	return item.Stock, nil
}

func (t *memTx) Insert(ctx context.Context, req *Request) error {
	if err := t.fail("Insert"); err != nil {
		return err
	}
	if _, ok := t.s.rewards[req.RewardID]; !ok {
		return ErrRewardNotFound
	}
	req.CreatedAt = t.s.now()
	req.UpdatedAt = req.CreatedAt
	t.s.requests[req.ID] = *req
	return nil
}

func (t *memTx) GetForUpdate(ctx context.Context, id uuid.UUID) (*Request, error) {
	req, ok := t.s.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	return &req, nil
}

func (t *memTx) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, notes *string) (*Request, error) {
	if err := t.fail("UpdateStatus"); err != nil {
		return nil, err
	}
	req, ok := t.s.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	req.Status = status
	if notes != nil {
		req.FulfillmentNotes = notes
	}
	req.UpdatedAt = t.s.now()
	t.s.requests[id] = req
	return &req, nil
}

func (t *memTx) InsertStatusChange(ctx context.Context, ch *StatusChange) error {
	if err := t.fail("InsertStatusChange"); err != nil {
		return err
	}
	if ch.ID == uuid.Nil {
		ch.ID = uuid.New()
	}
	ch.CreatedAt = t.s.now()
	t.s.history = append(t.s.history, *ch)
	return nil
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, v interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if e, ok := v.(Event); ok && channel == EventsChannel {
		p.events = append(p.events, e)
	}
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestService() (*Service, *memStore, *recordingPublisher) {
	store := newMemStore()
	pub := &recordingPublisher{}
	return NewService(store, store, memMasons{s: store}, store, pub), store, pub
}
