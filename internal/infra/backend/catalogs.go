package backend

import (
	"context"
	"net/http"

	"github.com/Spok95/apu-builder/internal/domain/catalog"
)

type materialDTO struct {
	ID               Number `json:"id"`
	Name             Str    `json:"nombre"`
	Unit             Str    `json:"unidad"`
	UnitPrice        Number `json:"precio_unitario"`
	WasteFraction    Number `json:"porcentaje_merma"`
	UnitFreightPrice Number `json:"precio_flete_unitario"`
	Discipline       Str    `json:"disciplina"`
	Quality          Str    `json:"calidad"`
	UpdatedAt        Str    `json:"fecha_actualizacion"`
	Obsolete         bool   `json:"obsoleto"`
}

type laborDTO struct {
	ID                   Number `json:"id"`
	Position             Str    `json:"puesto"`
	WageFactor           Number `json:"fasar"`
	BaseSalary           Number `json:"salario_base"`
	ProductivityPerShift Number `json:"rendimiento_jornada"`
	Discipline           Str    `json:"disciplina"`
	Quality              Str    `json:"calidad"`
	UpdatedAt            Str    `json:"fecha_actualizacion"`
	Obsolete             bool   `json:"obsoleto"`
}

type equipmentDTO struct {
	ID         Number `json:"id"`
	Name       Str    `json:"nombre"`
	Unit       Str    `json:"unidad"`
	HourlyCost Number `json:"costo_hora_maq"`
	Discipline Str    `json:"disciplina"`
	Quality    Str    `json:"calidad"`
	UpdatedAt  Str    `json:"fecha_actualizacion"`
	Obsolete   bool   `json:"obsoleto"`
}

type machineryDTO struct {
	ID                   Number `json:"id"`
	Name                 Str    `json:"nombre"`
	HourlyPossessionCost Number `json:"costo_posesion_hora"`
	HourlyYield          Number `json:"rendimiento_horario"`
	AcquisitionCost      Number `json:"costo_adquisicion"`
	UsefulLifeHours      Number `json:"vida_util_horas"`
	AnnualInterestRate   Number `json:"tasa_interes_anual"`
	Discipline           Str    `json:"disciplina"`
	Quality              Str    `json:"calidad"`
	UpdatedAt            Str    `json:"fecha_actualizacion"`
	Obsolete             bool   `json:"obsoleto"`
}

func (d materialDTO) model() catalog.Material {
	return catalog.Material{
		ID:               int64(d.ID),
		Name:             string(d.Name),
		Unit:             string(d.Unit),
		UnitPrice:        d.UnitPrice.Float(),
		WasteFraction:    d.WasteFraction.Float(),
		UnitFreightPrice: d.UnitFreightPrice.Float(),
		Discipline:       string(d.Discipline),
		Quality:          string(d.Quality),
		UpdatedAt:        string(d.UpdatedAt),
		Obsolete:         d.Obsolete,
	}
}

func (d laborDTO) model() catalog.Labor {
	return catalog.Labor{
		ID:                   int64(d.ID),
		Position:             string(d.Position),
		WageFactor:           d.WageFactor.Float(),
		BaseSalary:           d.BaseSalary.Float(),
		ProductivityPerShift: d.ProductivityPerShift.Float(),
		Discipline:           string(d.Discipline),
		Quality:              string(d.Quality),
		UpdatedAt:            string(d.UpdatedAt),
		Obsolete:             d.Obsolete,
	}
}

func (d equipmentDTO) model() catalog.Equipment {
	return catalog.Equipment{
		ID:         int64(d.ID),
		Name:       string(d.Name),
		Unit:       string(d.Unit),
		HourlyCost: d.HourlyCost.Float(),
		Discipline: string(d.Discipline),
		Quality:    string(d.Quality),
		UpdatedAt:  string(d.UpdatedAt),
		Obsolete:   d.Obsolete,
	}
}

func (d machineryDTO) model() catalog.Machinery {
	return catalog.Machinery{
		ID:                   int64(d.ID),
		Name:                 string(d.Name),
		HourlyPossessionCost: d.HourlyPossessionCost.Float(),
		HourlyYield:          d.HourlyYield.Float(),
		AcquisitionCost:      d.AcquisitionCost.Float(),
		UsefulLifeHours:      d.UsefulLifeHours.Float(),
		AnnualInterestRate:   d.AnnualInterestRate.Float(),
		Discipline:           string(d.Discipline),
		Quality:              string(d.Quality),
		UpdatedAt:            string(d.UpdatedAt),
		Obsolete:             d.Obsolete,
	}
}

func list[D any, M any](ctx context.Context, c *Client, path string, conv func(D) M) ([]M, error) {
	var items []D
	if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	out := make([]M, 0, len(items))
	for _, it := range items {
		out = append(out, conv(it))
	}
	return out, nil
}

func (c *Client) ListMaterials(ctx context.Context) ([]catalog.Material, error) {
	return list(ctx, c, "/materiales", materialDTO.model)
}

func (c *Client) ListLabor(ctx context.Context) ([]catalog.Labor, error) {
	return list(ctx, c, "/manoobra", laborDTO.model)
}

func (c *Client) ListEquipment(ctx context.Context) ([]catalog.Equipment, error) {
	return list(ctx, c, "/equipo", equipmentDTO.model)
}

func (c *Client) ListMachinery(ctx context.Context) ([]catalog.Machinery, error) {
	return list(ctx, c, "/maquinaria", machineryDTO.model)
}

// NewMaterial - тело POST /materiales
type NewMaterial struct {
	Name             string  `json:"nombre"`
	Unit             string  `json:"unidad"`
	UnitPrice        float64 `json:"precio_unitario"`
	WasteFraction    float64 `json:"porcentaje_merma"`
	UnitFreightPrice float64 `json:"precio_flete_unitario"`
	Discipline       string  `json:"disciplina,omitempty"`
	Quality          string  `json:"calidad,omitempty"`
}

type NewLabor struct {
	Position             string  `json:"puesto"`
	BaseSalary           float64 `json:"salario_base"`
	ProductivityPerShift float64 `json:"rendimiento_jornada"`
	Discipline           string  `json:"disciplina,omitempty"`
	Quality              string  `json:"calidad,omitempty"`
}

type NewEquipment struct {
	Name       string  `json:"nombre"`
	Unit       string  `json:"unidad"`
	HourlyCost float64 `json:"costo_hora_maq"`
	Discipline string  `json:"disciplina,omitempty"`
	Quality    string  `json:"calidad,omitempty"`
}

type NewMachinery struct {
	Name               string  `json:"nombre"`
	AcquisitionCost    float64 `json:"costo_adquisicion"`
	UsefulLifeHours    float64 `json:"vida_util_horas"`
	AnnualInterestRate float64 `json:"tasa_interes_anual"`
	HourlyYield        float64 `json:"rendimiento_horario"`
	Discipline         string  `json:"disciplina,omitempty"`
	Quality            string  `json:"calidad,omitempty"`
}

type created struct {
	ID Number `json:"id"`
}

func (c *Client) create(ctx context.Context, path string, in any) (int64, error) {
	var out created
	if err := c.do(ctx, http.MethodPost, path, in, &out); err != nil {
		return 0, err
	}
	return int64(out.ID), nil
}

func (c *Client) CreateMaterial(ctx context.Context, m NewMaterial) (int64, error) {
	return c.create(ctx, "/materiales", m)
}

func (c *Client) CreateLabor(ctx context.Context, l NewLabor) (int64, error) {
	return c.create(ctx, "/manoobra", l)
}

func (c *Client) CreateEquipment(ctx context.Context, e NewEquipment) (int64, error) {
	return c.create(ctx, "/equipo", e)
}

func (c *Client) CreateMachinery(ctx context.Context, m NewMachinery) (int64, error) {
	return c.create(ctx, "/maquinaria", m)
}
