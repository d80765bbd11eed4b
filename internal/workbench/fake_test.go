package workbench

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Spok95/apu-builder/internal/domain/catalog"
	"github.com/Spok95/apu-builder/internal/domain/matrix"
	"github.com/Spok95/apu-builder/internal/infra/backend"
)

// fakeBackend - бэкенд в памяти: каталоги, концепты, матрицы
type fakeBackend struct {
	mu        sync.Mutex
	nextID    int64
	materials []catalog.Material
	labor     []catalog.Labor
	equipment []catalog.Equipment
	machinery []catalog.Machinery
	concepts  map[int64]backend.Concept
	rows      map[int64]matrix.Row

	market     backend.MarketPrice
	suggestion backend.APUSuggestion
	questions  []backend.Question
	failCreate error

	// gate, если задан, держит CreateMaterial и SuggestMarketPrice до закрытия;
	// entered сигналит, что вызов начался
	gate    chan struct{}
	entered chan struct{}

	createdMaterials []backend.NewMaterial
	createdLabor     []backend.NewLabor
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextID:   100,
		concepts: map[int64]backend.Concept{},
		rows:     map[int64]matrix.Row{},
	}
}

func (f *fakeBackend) wait() {
	if f.gate == nil {
		return
	}
	f.entered <- struct{}{}
	<-f.gate
}

func (f *fakeBackend) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeBackend) ListMaterials(context.Context) ([]catalog.Material, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]catalog.Material(nil), f.materials...), nil
}

func (f *fakeBackend) ListLabor(context.Context) ([]catalog.Labor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]catalog.Labor(nil), f.labor...), nil
}

func (f *fakeBackend) ListEquipment(context.Context) ([]catalog.Equipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]catalog.Equipment(nil), f.equipment...), nil
}

func (f *fakeBackend) ListMachinery(context.Context) ([]catalog.Machinery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]catalog.Machinery(nil), f.machinery...), nil
}

func (f *fakeBackend) ListRows(_ context.Context, conceptID int64) ([]matrix.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []matrix.Row
	for _, r := range f.rows {
		if r.ConceptID == conceptID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeBackend) CreateRow(_ context.Context, p matrix.RowPayload) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	f.rows[id] = matrix.Row{ID: id, ConceptID: p.ConceptID, Kind: p.Kind, ResourceID: matrix.Ptr(p.ResourceID), Quantity: p.Quantity, InCatalog: true}
	return id, nil
}

func (f *fakeBackend) UpdateRow(_ context.Context, id int64, p matrix.RowPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[id] = matrix.Row{ID: id, ConceptID: p.ConceptID, Kind: p.Kind, ResourceID: matrix.Ptr(p.ResourceID), Quantity: p.Quantity, InCatalog: true}
	return nil
}

func (f *fakeBackend) DeleteRow(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeBackend) ComputeUnitPrice(context.Context, matrix.PriceRequest) (matrix.Summary, error) {
	return matrix.Summary{DirectCost: 10, UnitPrice: 14}, nil
}

func (f *fakeBackend) GetConcept(_ context.Context, id int64) (backend.Concept, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.concepts[id]
	if !ok {
		return backend.Concept{}, &backend.APIError{Method: "GET", Path: "/conceptos", Status: 404}
	}
	return c, nil
}

func (f *fakeBackend) CreateConcept(_ context.Context, c backend.Concept) (backend.Concept, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.id()
	f.concepts[c.ID] = c
	return c, nil
}

func (f *fakeBackend) UpdateConcept(_ context.Context, c backend.Concept) (backend.Concept, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.concepts[c.ID]; !ok {
		return backend.Concept{}, errors.New("not found")
	}
	f.concepts[c.ID] = c
	return c, nil
}

func (f *fakeBackend) CreateMaterial(_ context.Context, m backend.NewMaterial) (int64, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return 0, f.failCreate
	}
	id := f.id()
	f.createdMaterials = append(f.createdMaterials, m)
	f.materials = append(f.materials, catalog.Material{
		ID: id, Name: m.Name, Unit: m.Unit, UnitPrice: m.UnitPrice,
		WasteFraction: m.WasteFraction, UnitFreightPrice: m.UnitFreightPrice,
	})
	return id, nil
}

func (f *fakeBackend) CreateLabor(_ context.Context, l backend.NewLabor) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return 0, f.failCreate
	}
	id := f.id()
	f.createdLabor = append(f.createdLabor, l)
	f.labor = append(f.labor, catalog.Labor{
		ID: id, Position: l.Position, BaseSalary: l.BaseSalary, WageFactor: 1, ProductivityPerShift: l.ProductivityPerShift,
	})
	return id, nil
}

func (f *fakeBackend) CreateEquipment(_ context.Context, e backend.NewEquipment) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	f.equipment = append(f.equipment, catalog.Equipment{ID: id, Name: e.Name, Unit: e.Unit, HourlyCost: e.HourlyCost})
	return id, nil
}

func (f *fakeBackend) CreateMachinery(_ context.Context, m backend.NewMachinery) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	f.machinery = append(f.machinery, catalog.Machinery{ID: id, Name: m.Name, HourlyYield: m.HourlyYield})
	return id, nil
}

func (f *fakeBackend) SuggestMarketPrice(context.Context, string, string) (backend.MarketPrice, error) {
	f.wait()
	return f.market, nil
}

func (f *fakeBackend) SuggestAPU(context.Context, backend.APURequest) (backend.APUSuggestion, error) {
	return f.suggestion, nil
}

func (f *fakeBackend) ClarifyingQuestions(context.Context, string) ([]backend.Question, error) {
	return f.questions, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *fakeNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, text)
	return nil
}

func (n *fakeNotifier) Sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}
