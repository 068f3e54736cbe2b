package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	m        sync.RWMutex
	data     map[string][]byte
	loadErr  error
	saveErr  error
	saveHits int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}}
}

func (s *memoryStore) Load(_ context.Context, userID string) ([]byte, bool, error) {
	s.m.RLock()
	defer s.m.RUnlock()
	if s.loadErr != nil {
		return nil, false, s.loadErr
	}
	data, ok := s.data[userID]
	return data, ok, nil
}

func (s *memoryStore) Save(_ context.Context, userID string, data []byte) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saveHits++
	s.data[userID] = data
	return nil
}

type mockPlacer struct {
	err     error
	orderID string
	lines   []Line
}

func (p *mockPlacer) CreateOrder(_ context.Context, orderID, _, _ string, lines []Line) error {
	if p.err != nil {
		return p.err
	}
	p.orderID = orderID
	p.lines = lines
	return nil
}

func testLines() []Line {
	return []Line{
		{ID: "a", Name: "Voucher 1 Day", Price: 100000, Discount: 0, Quantity: 2, Duration: "1 Day"},
		{ID: "b", Name: "Voucher 30 Days", Price: 200000, Discount: 15, Quantity: 1, Duration: "30 Days"},
	}
}

func hydratedEngine(t *testing.T, store SnapshotStore, lines []Line) *Engine {
	t.Helper()
	e := NewEngine("user-1", store)
	e.Hydrate(context.Background())
	for _, l := range lines {
		require.NoError(t, e.AddLine(context.Background(), l))
	}
	return e
}

func TestEffectiveUnitPrice(t *testing.T) {
	tests := []struct {
		name string
		line Line
		want int64
	}{
		{"no discount", Line{Price: 100000, Discount: 0}, 100000},
		{"fifteen percent", Line{Price: 200000, Discount: 15}, 170000},
		{"rounds to nearest", Line{Price: 99999, Discount: 50}, 50000},
		{"full discount", Line{Price: 150000, Discount: 100}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveUnitPrice(tt.line))
		})
	}
}

func TestTotalScenario(t *testing.T) {
	// 100000*2 + round(200000*0.85)*1 = 370000
	assert.Equal(t, int64(370000), Total(testLines()))
}

func TestTotalEmptyCart(t *testing.T) {
	e := NewEngine("user-1", newMemoryStore())
	e.Hydrate(context.Background())
	assert.Equal(t, int64(0), e.Total())
}

func TestSetQuantityBelowOneIsNoOp(t *testing.T) {
	store := newMemoryStore()
	e := hydratedEngine(t, store, testLines())
	saves := store.saveHits

	require.NoError(t, e.SetQuantity(context.Background(), "a", 0))
	require.NoError(t, e.SetQuantity(context.Background(), "a", -3))

	assert.Equal(t, testLines(), e.Lines())
	assert.Equal(t, saves, store.saveHits, "no-op must not persist")
}

func TestSetQuantityReplacesMatchingLineOnly(t *testing.T) {
	store := newMemoryStore()
	e := hydratedEngine(t, store, testLines())

	require.NoError(t, e.SetQuantity(context.Background(), "b", 5))

	lines := e.Lines()
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 5, lines[1].Quantity)
}

func TestRemoveLineUnknownIdIsNoOp(t *testing.T) {
	store := newMemoryStore()
	e := hydratedEngine(t, store, testLines())
	saves := store.saveHits

	require.NoError(t, e.RemoveLine(context.Background(), "nope"))

	assert.Equal(t, testLines(), e.Lines())
	assert.Equal(t, saves, store.saveHits)
}

func TestRemoveLine(t *testing.T) {
	store := newMemoryStore()
	e := hydratedEngine(t, store, testLines())

	require.NoError(t, e.RemoveLine(context.Background(), "a"))

	lines := e.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "b", lines[0].ID)
}

func TestAddLineMergesQuantityById(t *testing.T) {
	store := newMemoryStore()
	e := hydratedEngine(t, store, testLines())

	require.NoError(t, e.AddLine(context.Background(), Line{ID: "a", Price: 100000, Quantity: 3}))

	lines := e.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestHydrateRoundTrip(t *testing.T) {
	store := newMemoryStore()
	hydratedEngine(t, store, testLines())

	fresh := NewEngine("user-1", store)
	fresh.Hydrate(context.Background())

	assert.Equal(t, testLines(), fresh.Lines(), "order and values must survive the round trip")
}

func TestHydrateCorruptedSnapshotYieldsEmptyCart(t *testing.T) {
	store := newMemoryStore()
	store.data["user-1"] = []byte(`{this is not json`)

	e := NewEngine("user-1", store)
	e.Hydrate(context.Background())

	assert.Empty(t, e.Lines())
}

func TestHydrateStoreErrorYieldsEmptyCart(t *testing.T) {
	store := newMemoryStore()
	store.loadErr = errors.New("connection refused")

	e := NewEngine("user-1", store)
	e.Hydrate(context.Background())

	assert.Empty(t, e.Lines())
}

func TestMutationSurfacesStoreError(t *testing.T) {
	store := newMemoryStore()
	e := hydratedEngine(t, store, testLines())
	store.saveErr = errors.New("write failed")

	err := e.SetQuantity(context.Background(), "a", 7)
	assert.Error(t, err)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	e := NewEngine("user-1", newMemoryStore())
	e.Hydrate(context.Background())

	_, err := e.PlaceOrder(context.Background(), &mockPlacer{}, "pay-1")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrderFailureLeavesCartUntouched(t *testing.T) {
	store := newMemoryStore()
	e := hydratedEngine(t, store, testLines())
	placer := &mockPlacer{err: errors.New("insert failed")}

	_, err := e.PlaceOrder(context.Background(), placer, "pay-1")

	require.Error(t, err)
	assert.Equal(t, testLines(), e.Lines())

	fresh := NewEngine("user-1", store)
	fresh.Hydrate(context.Background())
	assert.Equal(t, testLines(), fresh.Lines(), "snapshot must be untouched too")
}

func TestPlaceOrderSuccessClearsCart(t *testing.T) {
	store := newMemoryStore()
	e := hydratedEngine(t, store, testLines())
	placer := &mockPlacer{}

	orderID, err := e.PlaceOrder(context.Background(), placer, "pay-1")

	require.NoError(t, err)
	assert.NotEmpty(t, orderID)
	assert.Equal(t, orderID, placer.orderID)
	assert.Equal(t, testLines(), placer.lines)
	assert.Empty(t, e.Lines())

	fresh := NewEngine("user-1", store)
	fresh.Hydrate(context.Background())
	assert.Empty(t, fresh.Lines())
}
