package workbench

import (
	"context"
	"fmt"
	"strings"

	"github.com/Spok95/apu-builder/internal/domain/catalog"
	"github.com/Spok95/apu-builder/internal/domain/matrix"
	"github.com/Spok95/apu-builder/internal/infra/backend"
)

// Значения по умолчанию для быстрого добавления в каталог
const (
	quickMaterialUnit   = "unidad"
	quickMaterialWaste  = 0.03
	quickLaborYield     = 8.0
	quickEquipmentUnit  = "hora"
	defaultInterestRate = 0.10
)

// CatalogForm - полная форма новой записи каталога для строки-предложения
type CatalogForm struct {
	Name                 string  `json:"nombre"`
	Unit                 string  `json:"unidad"`
	Price                float64 `json:"precio"`
	WasteFraction        float64 `json:"porcentaje_merma"`
	UnitFreightPrice     float64 `json:"precio_flete_unitario"`
	ProductivityPerShift float64 `json:"rendimiento_jornada"`
	AcquisitionCost      float64 `json:"costo_adquisicion"`
	UsefulLifeHours      float64 `json:"vida_util_horas"`
	AnnualInterestRate   float64 `json:"tasa_interes_anual"`
	HourlyYield          float64 `json:"rendimiento_horario"`
	Discipline           string  `json:"disciplina,omitempty"`
	Quality              string  `json:"calidad,omitempty"`
}

// QuickSave создаёт запись каталога из строки-предложения с ручной ценой и
// привязывает к ней строку. Машинам нужна полная форма (AddToCatalog).
func (s *Session) QuickSave(ctx context.Context, index int) (int64, error) {
	r, err := s.engine.Row(index)
	if err != nil {
		return 0, err
	}
	if r.Linked() {
		return 0, ErrNotPending
	}
	if r.Kind == catalog.KindMachinery {
		return 0, fmt.Errorf("%w: machinery requires acquisition cost and useful life", ErrNeedsDetails)
	}
	if r.TempUnitPrice == nil || *r.TempUnitPrice <= 0 {
		return 0, fmt.Errorf("%w: unit price is required", ErrNeedsDetails)
	}
	name := strings.TrimSpace(r.SuggestedName)
	if name == "" {
		return 0, fmt.Errorf("%w: name is required", ErrNeedsDetails)
	}

	form := CatalogForm{Name: name, Unit: strings.TrimSpace(r.UnitOverride), Price: *r.TempUnitPrice}
	switch r.Kind {
	case catalog.KindMaterial:
		if form.Unit == "" {
			form.Unit = quickMaterialUnit
		}
		form.WasteFraction = quickMaterialWaste
	case catalog.KindLabor:
		form.ProductivityPerShift = quickLaborYield
	case catalog.KindEquipment:
		if form.Unit == "" {
			form.Unit = quickEquipmentUnit
		}
	}
	return s.addToCatalog(ctx, index, r, form)
}

// AddToCatalog - то же, но с явно заполненной формой
func (s *Session) AddToCatalog(ctx context.Context, index int, form CatalogForm) (int64, error) {
	r, err := s.engine.Row(index)
	if err != nil {
		return 0, err
	}
	if r.Linked() {
		return 0, ErrNotPending
	}
	form.Name = strings.TrimSpace(form.Name)
	if form.Name == "" {
		form.Name = strings.TrimSpace(r.SuggestedName)
	}
	if err := checkCatalogForm(r.Kind, form); err != nil {
		return 0, err
	}
	return s.addToCatalog(ctx, index, r, form)
}

func checkCatalogForm(kind catalog.Kind, f CatalogForm) error {
	if f.Name == "" {
		return fmt.Errorf("%w: name is required", ErrNeedsDetails)
	}
	switch kind {
	case catalog.KindMaterial:
		if strings.TrimSpace(f.Unit) == "" || f.Price <= 0 {
			return fmt.Errorf("%w: unit and price are required", ErrNeedsDetails)
		}
	case catalog.KindLabor, catalog.KindEquipment:
		if f.Price <= 0 {
			return fmt.Errorf("%w: price is required", ErrNeedsDetails)
		}
	case catalog.KindMachinery:
		if f.AcquisitionCost <= 0 || f.UsefulLifeHours <= 0 {
			return fmt.Errorf("%w: acquisition cost and useful life are required", ErrNeedsDetails)
		}
	}
	return nil
}

// addToCatalog создаёт запись каталога для строки r, прочитанной на месте index.
// Пока идёт запрос, строки могут измениться: привязка ищет ту же строку.
func (s *Session) addToCatalog(ctx context.Context, index int, r matrix.Row, f CatalogForm) (int64, error) {
	b := s.svc.backend
	kind := r.Kind
	var (
		id  int64
		err error
	)
	switch kind {
	case catalog.KindMaterial:
		id, err = b.CreateMaterial(ctx, backend.NewMaterial{
			Name: f.Name, Unit: f.Unit, UnitPrice: f.Price,
			WasteFraction: f.WasteFraction, UnitFreightPrice: f.UnitFreightPrice,
			Discipline: f.Discipline, Quality: f.Quality,
		})
	case catalog.KindLabor:
		yield := f.ProductivityPerShift
		if yield <= 0 {
			yield = 1
		}
		id, err = b.CreateLabor(ctx, backend.NewLabor{
			Position: f.Name, BaseSalary: f.Price, ProductivityPerShift: yield,
			Discipline: f.Discipline, Quality: f.Quality,
		})
	case catalog.KindEquipment:
		unit := f.Unit
		if unit == "" {
			unit = quickEquipmentUnit
		}
		id, err = b.CreateEquipment(ctx, backend.NewEquipment{
			Name: f.Name, Unit: unit, HourlyCost: f.Price,
			Discipline: f.Discipline, Quality: f.Quality,
		})
	case catalog.KindMachinery:
		rate, yield := f.AnnualInterestRate, f.HourlyYield
		if rate <= 0 {
			rate = defaultInterestRate
		}
		if yield <= 0 {
			yield = 1
		}
		id, err = b.CreateMachinery(ctx, backend.NewMachinery{
			Name: f.Name, AcquisitionCost: f.AcquisitionCost, UsefulLifeHours: f.UsefulLifeHours,
			AnnualInterestRate: rate, HourlyYield: yield,
			Discipline: f.Discipline, Quality: f.Quality,
		})
	default:
		return 0, fmt.Errorf("unknown kind %q", kind)
	}
	if err != nil {
		// строка остаётся неразрешённой
		s.log.Error("catalog create failed", "kind", string(kind), "name", f.Name, "err", err)
		return 0, fmt.Errorf("create %s: %w", kind, err)
	}
	catalogAdds.WithLabelValues(string(kind)).Inc()

	linkErr := s.engine.LinkToCatalog(index, matrix.RefOf(r), id)
	if err := s.svc.ReloadCatalogs(ctx); err != nil {
		s.log.Warn("catalog reload after create failed", "err", err)
	}
	if linkErr != nil {
		// запись в каталоге создана, но строки-предложения уже нет
		s.log.Warn("new catalog entry left unlinked", "kind", string(kind), "resource_id", id, "err", linkErr)
		return id, linkErr
	}
	s.persist(ctx)
	s.log.Info("row linked to new catalog entry", "kind", string(kind), "resource_id", id)
	s.svc.notifyAdmin(ctx, fmt.Sprintf("Nuevo insumo en catálogo (%s): %s", kind, f.Name))
	return id, nil
}

// SuggestMarketPrice подставляет рыночную цену для привязанной строки без цены.
// Материал - цена идёт в фрахт строки; труд - производительность = реальная зарплата / цена.
func (s *Session) SuggestMarketPrice(ctx context.Context, index int) (backend.MarketPrice, bool, error) {
	r, err := s.engine.Row(index)
	if err != nil {
		return backend.MarketPrice{}, false, err
	}
	cache := s.svc.catalogs.Current()
	if r.ResourceID == nil || !r.InCatalog || matrix.UnitCost(r, cache) != 0 {
		return backend.MarketPrice{}, false, ErrNotApplicable
	}

	mp, err := s.svc.backend.SuggestMarketPrice(ctx, matrix.DisplayName(r, cache), matrix.DisplayUnit(r, cache))
	if err != nil {
		s.log.Error("market price failed", "err", err)
		return backend.MarketPrice{}, false, fmt.Errorf("market price: %w", err)
	}
	if mp.Price <= 0 {
		return mp, false, nil
	}

	var p matrix.Patch
	switch r.Kind {
	case catalog.KindMaterial:
		p.UnitFreightPrice = matrix.Ptr(mp.Price)
	case catalog.KindLabor:
		l, ok := cache.LaborEntry(*r.ResourceID)
		if !ok {
			return mp, false, nil
		}
		p.ProductivityPerShift = matrix.Ptr(l.RealWage() / mp.Price)
	default:
		return mp, false, nil
	}
	if err := s.engine.EditMatching(index, matrix.RefOf(r), p); err != nil {
		return mp, false, err
	}
	s.persist(ctx)
	return mp, true, nil
}
