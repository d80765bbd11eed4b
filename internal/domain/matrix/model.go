package matrix

import (
	"github.com/Spok95/apu-builder/internal/domain/catalog"
)

// Row - строка разбивки (матрицы) концепта.
// nil в указателях - "пусто": используется значение из каталога.
type Row struct {
	ID                   int64        `json:"id,omitempty"`
	ConceptID            int64        `json:"concepto"`
	Kind                 catalog.Kind `json:"tipo_insumo" validate:"required,oneof=Material ManoObra Equipo Maquinaria"`
	ResourceID           *int64       `json:"id_insumo,omitempty"`
	Quantity             float64      `json:"cantidad" validate:"gte=0"`
	WasteFraction        *float64     `json:"porcentaje_merma,omitempty"`
	UnitFreightPrice     *float64     `json:"precio_flete_unitario,omitempty"`
	ProductivityPerShift *float64     `json:"rendimiento_jornada,omitempty"`
	InCatalog            bool         `json:"existe_en_catalogo"`
	SuggestedName        string       `json:"nombre_sugerido,omitempty"`
	Justification        string       `json:"justificacion_breve,omitempty"`
	TempUnitPrice        *float64     `json:"precio_unitario_temp,omitempty"`
	UnitOverride         string       `json:"unidad,omitempty"`
}

// Linked - строка привязана к каталогу
func (r Row) Linked() bool { return r.ResourceID != nil && r.InCatalog }

// Pending - неразрешённое предложение ИИ без записи в каталоге
func (r Row) Pending() bool { return !r.InCatalog && r.SuggestedName != "" }

func (r Row) resourceID() int64 {
	if r.ResourceID == nil {
		return 0
	}
	return *r.ResourceID
}

// clone копирует строку вместе с указателями, чтобы правки не протекали между копиями
func (r Row) clone() Row {
	r.ResourceID = copyPtr(r.ResourceID)
	r.WasteFraction = copyPtr(r.WasteFraction)
	r.UnitFreightPrice = copyPtr(r.UnitFreightPrice)
	r.ProductivityPerShift = copyPtr(r.ProductivityPerShift)
	r.TempUnitPrice = copyPtr(r.TempUnitPrice)
	return r
}

func cloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.clone()
	}
	return out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr - хелпер для заполнения необязательных полей
func Ptr[T any](v T) *T { return &v }

// Summary - итог, посчитанный бэкендом (источник истины)
type Summary struct {
	DirectCost float64 `json:"costo_directo"`
	UnitPrice  float64 `json:"precio_unitario"`
}

// Line - строка для отображения: локальная цена, имя и единица из каталога.
type Line struct {
	Index    int     `json:"index"`
	Row      Row     `json:"row"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Obsolete bool    `json:"obsolete"`
	UnitCost float64 `json:"unit_cost"`
	Total    float64 `json:"total"`
}

// Patch - правка полей одной строки пользователем.
// Clear* сбрасывают необязательные поля в "пусто".
type Patch struct {
	Kind                 *catalog.Kind `json:"tipo_insumo,omitempty"`
	ResourceID           *int64        `json:"id_insumo,omitempty"`
	Quantity             *float64      `json:"cantidad,omitempty"`
	WasteFraction        *float64      `json:"porcentaje_merma,omitempty"`
	UnitFreightPrice     *float64      `json:"precio_flete_unitario,omitempty"`
	ProductivityPerShift *float64      `json:"rendimiento_jornada,omitempty"`
	TempUnitPrice        *float64      `json:"precio_unitario_temp,omitempty"`
	UnitOverride         *string       `json:"unidad,omitempty"`

	ClearWaste        bool `json:"clear_merma,omitempty"`
	ClearFreight      bool `json:"clear_flete,omitempty"`
	ClearProductivity bool `json:"clear_rendimiento,omitempty"`
	ClearTempPrice    bool `json:"clear_precio_temp,omitempty"`
}

func (p Patch) apply(r Row) Row {
	r = r.clone()
	if p.Kind != nil && *p.Kind != r.Kind {
		r.Kind = *p.Kind
		// id и поправки другого вида не переносятся: каталоги видов не пересекаются
		if p.ResourceID == nil {
			r.ResourceID = nil
			r.InCatalog = false
		}
		if r.Kind != catalog.KindMaterial {
			r.WasteFraction = nil
			r.UnitFreightPrice = nil
		}
		if r.Kind != catalog.KindLabor {
			r.ProductivityPerShift = nil
		}
	}
	if p.ResourceID != nil {
		r.ResourceID = copyPtr(p.ResourceID)
		// выбор записи из каталога делает строку привязанной
		r.InCatalog = true
		r.SuggestedName = ""
	}
	if p.Quantity != nil {
		r.Quantity = *p.Quantity
	}
	if p.WasteFraction != nil {
		r.WasteFraction = copyPtr(p.WasteFraction)
	}
	if p.UnitFreightPrice != nil {
		r.UnitFreightPrice = copyPtr(p.UnitFreightPrice)
	}
	if p.ProductivityPerShift != nil {
		r.ProductivityPerShift = copyPtr(p.ProductivityPerShift)
	}
	if p.TempUnitPrice != nil {
		r.TempUnitPrice = copyPtr(p.TempUnitPrice)
	}
	if p.UnitOverride != nil {
		r.UnitOverride = *p.UnitOverride
	}
	if p.ClearWaste {
		r.WasteFraction = nil
	}
	if p.ClearFreight {
		r.UnitFreightPrice = nil
	}
	if p.ClearProductivity {
		r.ProductivityPerShift = nil
	}
	if p.ClearTempPrice {
		r.TempUnitPrice = nil
	}
	return r
}
