package matrix

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Spok95/apu-builder/internal/domain/catalog"
	"github.com/go-playground/validator/v10"
)

var ErrValidation = errors.New("validation failed")

var validate = validator.New()

// Remote - CRUD матрицы на бэкенде
type Remote interface {
	ListRows(ctx context.Context, conceptID int64) ([]Row, error)
	CreateRow(ctx context.Context, p RowPayload) (int64, error)
	UpdateRow(ctx context.Context, id int64, p RowPayload) error
	DeleteRow(ctx context.Context, id int64) error
}

// Pricer - авторитетный расчёт цены (POST /conceptos/calcular_pu)
type Pricer interface {
	ComputeUnitPrice(ctx context.Context, req PriceRequest) (Summary, error)
}

// RowPayload - тело POST/PUT /matriz
type RowPayload struct {
	ConceptID            int64        `json:"concepto" validate:"gt=0"`
	Kind                 catalog.Kind `json:"tipo_insumo" validate:"required,oneof=Material ManoObra Equipo Maquinaria"`
	ResourceID           int64        `json:"id_insumo" validate:"gt=0"`
	Quantity             float64      `json:"cantidad" validate:"gte=0"`
	WasteFraction        *float64     `json:"porcentaje_merma"`
	UnitFreightPrice     *float64     `json:"precio_flete_unitario"`
	ProductivityPerShift *float64     `json:"rendimiento_jornada"`
}

// NewRowPayload - поля, не относящиеся к виду ресурса, отправляются как null
func NewRowPayload(r Row, conceptID int64) RowPayload {
	p := RowPayload{
		ConceptID:  conceptID,
		Kind:       r.Kind,
		ResourceID: r.resourceID(),
		Quantity:   r.Quantity,
	}
	switch r.Kind {
	case catalog.KindMaterial:
		p.WasteFraction = copyPtr(r.WasteFraction)
		p.UnitFreightPrice = copyPtr(r.UnitFreightPrice)
	case catalog.KindLabor:
		p.ProductivityPerShift = copyPtr(r.ProductivityPerShift)
	}
	return p
}

func (p RowPayload) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// PriceRow - строка запроса calcular_pu
type PriceRow struct {
	Kind                 catalog.Kind `json:"tipo_insumo"`
	ResourceID           *int64       `json:"id_insumo,omitempty"`
	Quantity             float64      `json:"cantidad"`
	WasteFraction        *float64     `json:"porcentaje_merma,omitempty"`
	UnitFreightPrice     *float64     `json:"precio_flete_unitario,omitempty"`
	ProductivityPerShift *float64     `json:"rendimiento_jornada,omitempty"`
	CustomPrice          *float64     `json:"precio_custom,omitempty"`
}

type PriceRequest struct {
	Rows      []PriceRow      `json:"matriz"`
	ConceptID *int64          `json:"concepto_id,omitempty"`
	Factors   *FactorsPayload `json:"factores,omitempty"`
}

// BuildPriceRequest собирает запрос на пересчёт. ok=false - считать нечего,
// сводка обнуляется без похода в сеть.
func BuildPriceRequest(s State) (PriceRequest, bool) {
	var req PriceRequest
	for _, r := range s.Rows {
		if !priceable(r) {
			continue
		}
		pr := PriceRow{
			Kind:        r.Kind,
			ResourceID:  copyPtr(r.ResourceID),
			Quantity:    r.Quantity,
			CustomPrice: copyPtr(r.TempUnitPrice),
		}
		switch r.Kind {
		case catalog.KindMaterial:
			pr.WasteFraction = copyPtr(r.WasteFraction)
			pr.UnitFreightPrice = copyPtr(r.UnitFreightPrice)
		case catalog.KindLabor:
			pr.ProductivityPerShift = copyPtr(r.ProductivityPerShift)
		}
		req.Rows = append(req.Rows, pr)
	}
	if len(req.Rows) == 0 {
		return PriceRequest{}, false
	}
	if s.ConceptID > 0 {
		id := s.ConceptID
		req.ConceptID = &id
	}
	req.Factors = s.Factors.Payload()
	return req, true
}

func priceable(r Row) bool {
	if math.IsNaN(r.Quantity) || math.IsInf(r.Quantity, 0) || r.Quantity < 0 {
		return false
	}
	if r.ResourceID != nil {
		return true
	}
	return r.TempUnitPrice != nil && *r.TempUnitPrice >= 0
}

// validateForSave - перед сохранением на сервер у каждой строки должен быть ресурс каталога
func validateForSave(rows []Row, conceptID int64) ([]RowPayload, error) {
	out := make([]RowPayload, 0, len(rows))
	for i, r := range rows {
		p := NewRowPayload(r, conceptID)
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// validateNewRow - новая строка должна ссылаться на каталог и иметь количество > 0
func validateNewRow(r Row) error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if r.ResourceID == nil || *r.ResourceID <= 0 {
		return fmt.Errorf("%w: resource is required", ErrValidation)
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	return nil
}
