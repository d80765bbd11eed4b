package matrix

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Spok95/apu-builder/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePricer struct {
	mu    sync.Mutex
	calls int
	last  PriceRequest
	fn    func(call int, req PriceRequest) (Summary, error)
}

func (p *fakePricer) ComputeUnitPrice(_ context.Context, req PriceRequest) (Summary, error) {
	p.mu.Lock()
	p.calls++
	call := p.calls
	p.last = req
	fn := p.fn
	p.mu.Unlock()
	if fn != nil {
		return fn(call, req)
	}
	return Summary{DirectCost: 100, UnitPrice: 141}, nil
}

func (p *fakePricer) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *fakePricer) Last() PriceRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// fakeRemote - матрицы на "сервере" по концептам
type fakeRemote struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Row
	ops    []string
}

func newFakeRemote(existing ...Row) *fakeRemote {
	r := &fakeRemote{nextID: 100, rows: map[int64]Row{}}
	for _, row := range existing {
		r.rows[row.ID] = row
	}
	return r
}

func (f *fakeRemote) ListRows(_ context.Context, conceptID int64) ([]Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Row
	for _, r := range f.rows {
		if r.ConceptID == conceptID {
			out = append(out, r.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRemote) CreateRow(_ context.Context, p RowPayload) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.rows[f.nextID] = payloadRow(f.nextID, p)
	f.ops = append(f.ops, "create")
	return f.nextID, nil
}

func (f *fakeRemote) UpdateRow(_ context.Context, id int64, p RowPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return errors.New("not found")
	}
	f.rows[id] = payloadRow(id, p)
	f.ops = append(f.ops, "update")
	return nil
}

func (f *fakeRemote) DeleteRow(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	f.ops = append(f.ops, "delete")
	return nil
}

func (f *fakeRemote) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

func payloadRow(id int64, p RowPayload) Row {
	return Row{
		ID:                   id,
		ConceptID:            p.ConceptID,
		Kind:                 p.Kind,
		ResourceID:           Ptr(p.ResourceID),
		Quantity:             p.Quantity,
		WasteFraction:        copyPtr(p.WasteFraction),
		UnitFreightPrice:     copyPtr(p.UnitFreightPrice),
		ProductivityPerShift: copyPtr(p.ProductivityPerShift),
	}
}

func TestEngine_DebounceCoalescesEdits(t *testing.T) {
	pricer := &fakePricer{}
	var summaries atomic.Int32
	e := NewEngine(Options{
		Local:     true,
		Rows:      []Row{linked(catalog.KindMaterial, 1, 1)},
		Pricer:    pricer,
		Debounce:  50 * time.Millisecond,
		OnSummary: func(Summary) { summaries.Add(1) },
	})
	defer e.Close()

	for i := 1; i <= 5; i++ {
		require.NoError(t, e.Edit(0, Patch{Quantity: Ptr(float64(i))}))
	}

	require.Eventually(t, func() bool { return pricer.Calls() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(120 * time.Millisecond)

	assert.Equal(t, 1, pricer.Calls())
	assert.Equal(t, 5.0, pricer.Last().Rows[0].Quantity)
	assert.Equal(t, Summary{DirectCost: 100, UnitPrice: 141}, e.Summary())
	assert.Equal(t, int32(1), summaries.Load())
}

func TestEngine_RecomputeEmptyPayloadSkipsNetwork(t *testing.T) {
	pricer := &fakePricer{}
	e := NewEngine(Options{
		Local:  true,
		Rows:   []Row{{Kind: catalog.KindMaterial, SuggestedName: "Varilla", Quantity: 2}},
		Pricer: pricer,
	})
	defer e.Close()

	require.NoError(t, e.Recompute(context.Background()))
	assert.Zero(t, pricer.Calls())
	assert.Equal(t, Summary{}, e.Summary())
}

func TestEngine_StaleResponseDropped(t *testing.T) {
	release := make(chan struct{})
	pricer := &fakePricer{fn: func(call int, _ PriceRequest) (Summary, error) {
		if call == 1 {
			<-release
			return Summary{DirectCost: 1, UnitPrice: 1}, nil
		}
		return Summary{DirectCost: 2, UnitPrice: 2}, nil
	}}
	e := NewEngine(Options{Local: true, Rows: []Row{linked(catalog.KindMaterial, 1, 1)}, Pricer: pricer})
	defer e.Close()

	done := make(chan error, 1)
	go func() { done <- e.Recompute(context.Background()) }()
	require.Eventually(t, func() bool { return pricer.Calls() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, e.Recompute(context.Background()))
	assert.Equal(t, Summary{DirectCost: 2, UnitPrice: 2}, e.Summary())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, Summary{DirectCost: 2, UnitPrice: 2}, e.Summary())
}

func TestEngine_PricerErrorKeepsSummary(t *testing.T) {
	pricer := &fakePricer{fn: func(int, PriceRequest) (Summary, error) { return Summary{}, errors.New("boom") }}
	e := NewEngine(Options{Local: true, Rows: []Row{linked(catalog.KindMaterial, 1, 1)}, Pricer: pricer})
	defer e.Close()

	assert.Error(t, e.Recompute(context.Background()))
	assert.Equal(t, 1, pricer.Calls())
}

func TestEngine_NotifiesOnlyUserChanges(t *testing.T) {
	var notified [][]Row
	e := NewEngine(Options{
		Local:        true,
		Catalog:      testCache,
		Debounce:     time.Hour,
		OnRowsChange: func(rows []Row) { notified = append(notified, rows) },
	})
	defer e.Close()

	// предложение без совпадений в каталоге - родителя не трогаем
	require.NoError(t, e.ApplySuggestions([]Row{{Kind: catalog.KindMaterial, SuggestedName: "Tabique rojo", Quantity: 1}}))
	assert.Empty(t, notified)

	require.NoError(t, e.Edit(0, Patch{Quantity: Ptr(4.0)}))
	require.Len(t, notified, 1)
	assert.Equal(t, 4.0, notified[0][0].Quantity)

	// зеркалирование от родителя тех же строк - без эха
	require.NoError(t, e.MirrorExternal(notified[0]))
	assert.Len(t, notified, 1)
}

func TestEngine_AutoMatchAfterSuggestions(t *testing.T) {
	var notified [][]Row
	e := NewEngine(Options{
		Local:        true,
		Catalog:      testCache,
		Debounce:     time.Hour,
		OnRowsChange: func(rows []Row) { notified = append(notified, rows) },
	})
	defer e.Close()

	require.NoError(t, e.ApplySuggestions([]Row{
		{Kind: catalog.KindMaterial, SuggestedName: "Block hueco", Quantity: 12},
		{Kind: catalog.KindLabor, SuggestedName: "Albañil oficial", Quantity: 0.5},
	}))

	rows := e.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), *rows[0].ResourceID)
	assert.Equal(t, int64(1), *rows[1].ResourceID)
	assert.True(t, rows[1].Linked())
	// автопривязка - изменение, о котором родитель должен узнать
	assert.Len(t, notified, 1)
}

func TestEngine_CatalogChangedRelinks(t *testing.T) {
	var cache atomic.Pointer[catalog.Cache]
	cache.Store(catalog.NewCache(nil, nil, nil, nil))
	e := NewEngine(Options{Local: true, Catalog: cache.Load, Debounce: time.Hour})
	defer e.Close()

	require.NoError(t, e.ApplySuggestions([]Row{{Kind: catalog.KindEquipment, SuggestedName: "Revolvedora", Quantity: 1}}))
	assert.Nil(t, e.Rows()[0].ResourceID)

	cache.Store(testCache())
	e.CatalogChanged()
	require.NotNil(t, e.Rows()[0].ResourceID)
	assert.Equal(t, int64(1), *e.Rows()[0].ResourceID)
}

func TestEngine_RemoteSaveRoundTrip(t *testing.T) {
	remote := newFakeRemote(
		Row{ID: 1, ConceptID: 7, Kind: catalog.KindMaterial, ResourceID: Ptr(int64(1)), Quantity: 3},
		Row{ID: 2, ConceptID: 7, Kind: catalog.KindEquipment, ResourceID: Ptr(int64(1)), Quantity: 1},
		Row{ID: 3, ConceptID: 8, Kind: catalog.KindMaterial, ResourceID: Ptr(int64(2)), Quantity: 9},
	)
	e := NewEngine(Options{ConceptID: 7, Remote: remote, Debounce: time.Hour})
	defer e.Close()

	ctx := context.Background()
	require.NoError(t, e.Load(ctx))
	require.Len(t, e.Rows(), 2)

	require.NoError(t, e.DeleteRow(ctx, 1))
	require.NoError(t, e.Edit(0, Patch{Quantity: Ptr(5.0)}))
	require.NoError(t, e.Dispatch(RowAdded{Row: linked(catalog.KindLabor, 2, 0.25)}))
	require.NoError(t, e.Save(ctx))

	rows := e.Rows()
	require.Len(t, rows, 2)
	type pair struct {
		id  int64
		qty float64
	}
	var got []pair
	for _, r := range rows {
		assert.NotZero(t, r.ID)
		got = append(got, pair{*r.ResourceID, r.Quantity})
	}
	assert.ElementsMatch(t, []pair{{1, 5}, {2, 0.25}}, got)

	// чужой концепт не тронут
	other, err := remote.ListRows(ctx, 8)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestEngine_SaveValidationMakesNoCalls(t *testing.T) {
	remote := newFakeRemote()
	e := NewEngine(Options{
		ConceptID: 7,
		Remote:    remote,
		Rows:      []Row{{Kind: catalog.KindMaterial, SuggestedName: "Varilla", Quantity: 1}},
		Debounce:  time.Hour,
	})
	defer e.Close()

	err := e.Save(context.Background())
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, remote.Ops())
}

func TestEngine_LocalSaveAndPromote(t *testing.T) {
	var saved []Row
	remote := newFakeRemote()
	e := NewEngine(Options{
		Local:     true,
		Remote:    remote,
		Debounce:  time.Hour,
		SaveLocal: func(_ context.Context, rows []Row) error { saved = rows; return nil },
	})
	defer e.Close()

	ctx := context.Background()
	require.NoError(t, e.AddRow(ctx, linked(catalog.KindMaterial, 1, 2)))
	assert.ErrorIs(t, e.AddRow(ctx, Row{Kind: catalog.KindMaterial, Quantity: 1}), ErrValidation)

	require.NoError(t, e.Save(ctx))
	assert.Len(t, saved, 1)
	assert.Empty(t, remote.Ops())

	require.NoError(t, e.Promote(ctx, 42))
	assert.False(t, e.Local())
	assert.Equal(t, int64(42), e.ConceptID())

	rows := e.Rows()
	require.Len(t, rows, 1)
	assert.NotZero(t, rows[0].ID)
	assert.Equal(t, []string{"create"}, remote.Ops())
}

func TestEngine_RemoteAddRowGoesToServer(t *testing.T) {
	remote := newFakeRemote()
	e := NewEngine(Options{ConceptID: 3, Remote: remote, Debounce: time.Hour})
	defer e.Close()

	require.NoError(t, e.AddRow(context.Background(), linked(catalog.KindEquipment, 1, 2)))
	rows := e.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, int64(101), rows[0].ID)
	assert.Equal(t, int64(3), rows[0].ConceptID)
}
