package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/Spok95/apu-builder/internal/domain/matrix"
)

type MarketPrice struct {
	Price  float64
	Source string
}

// SuggestMarketPrice - POST /catalogos/sugerir_precio_mercado
func (c *Client) SuggestMarketPrice(ctx context.Context, name, unit string) (MarketPrice, error) {
	in := struct {
		Name string `json:"nombre"`
		Unit string `json:"unidad"`
	}{name, unit}
	var out struct {
		Price  Number `json:"precio_sugerido"`
		Source Str    `json:"fuente"`
	}
	if err := c.do(ctx, http.MethodPost, "/catalogos/sugerir_precio_mercado", in, &out); err != nil {
		return MarketPrice{}, err
	}
	return MarketPrice{Price: out.Price.Float(), Source: string(out.Source)}, nil
}

type APURequest struct {
	Description string `json:"descripcion"`
	Unit        string `json:"unidad"`
	ConceptID   *int64 `json:"concepto_id,omitempty"`
}

type APUSuggestion struct {
	Explanation string
	Items       []matrix.Suggestion
}

// SuggestAPU - POST /ia/chat_apu: предложенные ресурсы и пояснение
func (c *Client) SuggestAPU(ctx context.Context, req APURequest) (APUSuggestion, error) {
	var out struct {
		Explanation Str             `json:"explicacion"`
		Items       []suggestionDTO `json:"insumos"`
	}
	if err := c.do(ctx, http.MethodPost, "/ia/chat_apu", req, &out); err != nil {
		return APUSuggestion{}, err
	}
	res := APUSuggestion{Explanation: string(out.Explanation)}
	for _, it := range out.Items {
		res.Items = append(res.Items, it.model())
	}
	return res, nil
}

// suggestionDTO - числа от ассистента приходят и строками
type suggestionDTO struct {
	Kind          Str     `json:"tipo_insumo"`
	ResourceID    *Number `json:"id_insumo"`
	ResourceIDAlt *Number `json:"insumo_id"`
	Quantity      *Number `json:"cantidad"`
	Waste         *Number `json:"porcentaje_merma"`
	WasteAlt      *Number `json:"merma"`
	Freight       *Number `json:"precio_flete_unitario"`
	FreightAlt    *Number `json:"flete_unitario"`
	Productivity  *Number `json:"rendimiento_jornada"`
	ProductivityD *Number `json:"rendimiento_diario"`
	InCatalog     *bool   `json:"existe_en_catalogo"`
	Name          *string `json:"nombre"`
	Justification *string `json:"justificacion_breve"`
	Unit          *string `json:"unidad"`
}

func (d suggestionDTO) model() matrix.Suggestion {
	return matrix.Suggestion{
		Kind:          string(d.Kind),
		ResourceID:    idPtr(d.ResourceID),
		ResourceIDAlt: idPtr(d.ResourceIDAlt),
		Quantity:      d.Quantity.ptr(),
		Waste:         d.Waste.ptr(),
		WasteAlt:      d.WasteAlt.ptr(),
		Freight:       d.Freight.ptr(),
		FreightAlt:    d.FreightAlt.ptr(),
		Productivity:  d.Productivity.ptr(),
		ProductivityD: d.ProductivityD.ptr(),
		InCatalog:     d.InCatalog,
		Name:          d.Name,
		Justification: d.Justification,
		Unit:          d.Unit,
	}
}

func idPtr(n *Number) *int64 {
	if n == nil {
		return nil
	}
	v := int64(*n)
	return &v
}

type Question struct {
	Question string   `json:"pregunta"`
	Options  []string `json:"opciones,omitempty"`
	Context  string   `json:"contexto,omitempty"`
}

// ClarifyingQuestions - POST /ia/preguntas_clarificadoras.
// Бэкенд отвечает либо массивом, либо {"preguntas": [...]}.
func (c *Client) ClarifyingQuestions(ctx context.Context, description string) ([]Question, error) {
	in := struct {
		Description string `json:"descripcion"`
	}{description}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/ia/preguntas_clarificadoras", in, &raw); err != nil {
		return nil, err
	}

	var qs []Question
	if t := bytes.TrimSpace(raw); len(t) > 0 && t[0] == '[' {
		_ = json.Unmarshal(t, &qs)
	} else {
		var wrapped struct {
			Questions []Question `json:"preguntas"`
		}
		_ = json.Unmarshal(t, &wrapped)
		qs = wrapped.Questions
	}

	out := qs[:0]
	for _, q := range qs {
		if q.Question != "" {
			out = append(out, q)
		}
	}
	return out, nil
}
