package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Spok95/apu-builder/internal/domain/catalog"
	"github.com/Spok95/apu-builder/internal/domain/matrix"
)

type rowDTO struct {
	ID                   Number  `json:"id"`
	ConceptID            Number  `json:"concepto"`
	Kind                 Str     `json:"tipo_insumo"`
	ResourceID           *Number `json:"id_insumo"`
	Quantity             Number  `json:"cantidad"`
	WasteFraction        *Number `json:"porcentaje_merma"`
	UnitFreightPrice     *Number `json:"precio_flete_unitario"`
	ProductivityPerShift *Number `json:"rendimiento_jornada"`
}

func (d rowDTO) model() matrix.Row {
	r := matrix.Row{
		ID:                   int64(d.ID),
		ConceptID:            int64(d.ConceptID),
		Kind:                 catalog.ParseKind(string(d.Kind)),
		Quantity:             d.Quantity.Float(),
		WasteFraction:        d.WasteFraction.ptr(),
		UnitFreightPrice:     d.UnitFreightPrice.ptr(),
		ProductivityPerShift: d.ProductivityPerShift.ptr(),
		InCatalog:            true,
	}
	if d.ResourceID != nil && *d.ResourceID != 0 {
		r.ResourceID = matrix.Ptr(int64(*d.ResourceID))
	}
	return r
}

// ListRows - GET /conceptos/{id}/matriz
func (c *Client) ListRows(ctx context.Context, conceptID int64) ([]matrix.Row, error) {
	return list(ctx, c, fmt.Sprintf("/conceptos/%d/matriz", conceptID), rowDTO.model)
}

func (c *Client) CreateRow(ctx context.Context, p matrix.RowPayload) (int64, error) {
	return c.create(ctx, "/matriz", p)
}

func (c *Client) UpdateRow(ctx context.Context, id int64, p matrix.RowPayload) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/matriz/%d", id), p, nil)
}

func (c *Client) DeleteRow(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/matriz/%d", id), nil, nil)
}

type summaryDTO struct {
	DirectCost Number `json:"costo_directo"`
	UnitPrice  Number `json:"precio_unitario"`
}

// ComputeUnitPrice - POST /conceptos/calcular_pu
func (c *Client) ComputeUnitPrice(ctx context.Context, req matrix.PriceRequest) (matrix.Summary, error) {
	var d summaryDTO
	if err := c.do(ctx, http.MethodPost, "/conceptos/calcular_pu", req, &d); err != nil {
		return matrix.Summary{}, err
	}
	return matrix.Summary{DirectCost: d.DirectCost.Float(), UnitPrice: d.UnitPrice.Float()}, nil
}
