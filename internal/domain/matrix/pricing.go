package matrix

import (
	"fmt"
	"math"
	"strings"

	"github.com/Spok95/apu-builder/internal/domain/catalog"
)

// BasePrice - базовая цена строки до поправок по виду ресурса.
// Ручная цена (или неразрешённая строка) перекрывает каталог; нет записи в каталоге - 0.
func BasePrice(r Row, c *catalog.Cache) float64 {
	if r.TempUnitPrice != nil || !r.InCatalog {
		return valueOr(r.TempUnitPrice, 0)
	}
	if r.ResourceID == nil {
		return 0
	}
	id := *r.ResourceID
	switch r.Kind {
	case catalog.KindMaterial:
		if m, ok := c.Material(id); ok {
			return m.UnitPrice
		}
	case catalog.KindLabor:
		if l, ok := c.LaborEntry(id); ok {
			return l.RealWage()
		}
	case catalog.KindEquipment:
		if e, ok := c.EquipmentEntry(id); ok {
			return e.HourlyCost
		}
	case catalog.KindMachinery:
		if q, ok := c.MachineryEntry(id); ok {
			return q.HourlyPossessionCost
		}
	}
	return 0
}

// UnitCost - эффективная цена единицы для отображения в редакторе.
// Итог считает бэкенд, здесь только приближение; результат всегда >= 0.
func UnitCost(r Row, c *catalog.Cache) float64 {
	base := BasePrice(r, c)
	var cost float64

	switch r.Kind {
	case catalog.KindMaterial:
		var defWaste, defFreight float64
		if m, ok := linkedMaterial(r, c); ok {
			defWaste, defFreight = m.WasteFraction, m.UnitFreightPrice
		}
		waste := valueOr(r.WasteFraction, defWaste)
		freight := valueOr(r.UnitFreightPrice, defFreight)
		cost = base*(1+waste) + freight

	case catalog.KindLabor:
		def := 1.0
		if l, ok := linkedLabor(r, c); ok && l.ProductivityPerShift != 0 {
			def = l.ProductivityPerShift
		}
		productivity := valueOr(r.ProductivityPerShift, def)
		if productivity > 0 {
			cost = base / productivity
		} else {
			cost = base
		}

	case catalog.KindEquipment:
		cost = base

	case catalog.KindMachinery:
		yield := 1.0
		if q, ok := linkedMachinery(r, c); ok && q.HourlyYield != 0 {
			yield = q.HourlyYield
		}
		if yield > 0 {
			cost = base / yield
		} else {
			cost = base
		}
	}

	if math.IsNaN(cost) || math.IsInf(cost, 0) || cost < 0 {
		return 0
	}
	return cost
}

// LineTotal - importe строки: цена единицы × количество
func LineTotal(r Row, c *catalog.Cache) float64 {
	return UnitCost(r, c) * r.Quantity
}

// FormatMoney - "$1234.50"; нечисловые значения печатаются как "$0.00"
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "$0.00"
	}
	return fmt.Sprintf("$%.2f", v)
}

// DisplayName - имя ресурса строки для таблицы
func DisplayName(r Row, c *catalog.Cache) string {
	if !r.InCatalog {
		if r.SuggestedName == "" {
			return "-"
		}
		return r.SuggestedName
	}
	if e, ok := entryOf(r, c); ok {
		return e.DisplayName()
	}
	return "-"
}

// DisplayUnit - единица строки; ручная единица важнее каталога
func DisplayUnit(r Row, c *catalog.Cache) string {
	if strings.TrimSpace(r.UnitOverride) != "" {
		return r.UnitOverride
	}
	if !r.InCatalog || r.ResourceID == nil {
		return "-"
	}
	switch r.Kind {
	case catalog.KindLabor:
		return "jornada"
	case catalog.KindMachinery:
		return "hora"
	case catalog.KindEquipment:
		if e, ok := c.EquipmentEntry(*r.ResourceID); ok {
			return e.UnitName()
		}
		return "hora"
	case catalog.KindMaterial:
		if m, ok := c.Material(*r.ResourceID); ok && m.Unit != "" {
			return m.Unit
		}
	}
	return "-"
}

// Obsolete - помечена ли запись каталога как устаревшая. Неразрешённые строки - нет.
func Obsolete(r Row, c *catalog.Cache) bool {
	if !r.InCatalog {
		return false
	}
	e, ok := entryOf(r, c)
	return ok && e.IsObsolete()
}

// BuildLines собирает строки для отображения
func BuildLines(rows []Row, c *catalog.Cache) []Line {
	out := make([]Line, 0, len(rows))
	for i, r := range rows {
		unit := UnitCost(r, c)
		out = append(out, Line{
			Index:    i,
			Row:      r.clone(),
			Name:     DisplayName(r, c),
			Unit:     DisplayUnit(r, c),
			Obsolete: Obsolete(r, c),
			UnitCost: unit,
			Total:    unit * r.Quantity,
		})
	}
	return out
}

func entryOf(r Row, c *catalog.Cache) (catalog.Entry, bool) {
	if r.ResourceID == nil {
		return nil, false
	}
	return c.Get(r.Kind, *r.ResourceID)
}

func linkedMaterial(r Row, c *catalog.Cache) (catalog.Material, bool) {
	if !r.InCatalog || r.ResourceID == nil {
		return catalog.Material{}, false
	}
	return c.Material(*r.ResourceID)
}

func linkedLabor(r Row, c *catalog.Cache) (catalog.Labor, bool) {
	if !r.InCatalog || r.ResourceID == nil {
		return catalog.Labor{}, false
	}
	return c.LaborEntry(*r.ResourceID)
}

func linkedMachinery(r Row, c *catalog.Cache) (catalog.Machinery, bool) {
	if !r.InCatalog || r.ResourceID == nil {
		return catalog.Machinery{}, false
	}
	return c.MachineryEntry(*r.ResourceID)
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
