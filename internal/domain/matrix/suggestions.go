package matrix

import (
	"math"

	"github.com/Spok95/apu-builder/internal/domain/catalog"
)

// Suggestion - позиция, которую вернул ассистент (/ia/chat_apu).
// Ассистент не стабилен в именах полей, поэтому часть полей имеет синонимы.
type Suggestion struct {
	Kind          string   `json:"tipo_insumo"`
	ResourceID    *int64   `json:"id_insumo"`
	ResourceIDAlt *int64   `json:"insumo_id"`
	Quantity      *float64 `json:"cantidad"`
	Waste         *float64 `json:"porcentaje_merma"`
	WasteAlt      *float64 `json:"merma"`
	Freight       *float64 `json:"precio_flete_unitario"`
	FreightAlt    *float64 `json:"flete_unitario"`
	Productivity  *float64 `json:"rendimiento_jornada"`
	ProductivityD *float64 `json:"rendimiento_diario"`
	InCatalog     *bool    `json:"existe_en_catalogo"`
	Name          *string  `json:"nombre"`
	Justification *string  `json:"justificacion_breve"`
	Unit          *string  `json:"unidad"`
}

// MapSuggestions превращает предложения ассистента в строки матрицы.
func MapSuggestions(items []Suggestion, conceptID int64) []Row {
	out := make([]Row, 0, len(items))
	for _, it := range items {
		kind := catalog.ParseKind(it.Kind)
		id := firstPtr(it.ResourceID, it.ResourceIDAlt)
		if id != nil && *id == 0 {
			id = nil
		}

		r := Row{
			ConceptID:  conceptID,
			Kind:       kind,
			ResourceID: copyPtr(id),
			Quantity:   finiteOr(it.Quantity, 0),
			InCatalog:  id != nil,
		}
		if it.InCatalog != nil {
			r.InCatalog = *it.InCatalog
		}
		switch kind {
		case catalog.KindMaterial:
			r.WasteFraction = finitePtr(firstPtr(it.WasteAlt, it.Waste))
			r.UnitFreightPrice = finitePtr(firstPtr(it.FreightAlt, it.Freight))
		case catalog.KindLabor:
			r.ProductivityPerShift = finitePtr(firstPtr(it.ProductivityD, it.Productivity))
		}
		if it.Name != nil {
			r.SuggestedName = *it.Name
		}
		if it.Justification != nil {
			r.Justification = *it.Justification
		}
		if it.Unit != nil {
			r.UnitOverride = *it.Unit
		}
		out = append(out, r)
	}
	return out
}

func firstPtr[T any](ps ...*T) *T {
	for _, p := range ps {
		if p != nil {
			return p
		}
	}
	return nil
}

func finitePtr(p *float64) *float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	return copyPtr(p)
}

func finiteOr(p *float64, def float64) float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return def
	}
	return *p
}
