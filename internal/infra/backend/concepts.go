package backend

import (
	"context"
	"fmt"
	"net/http"
)

// Concept - концепт (позиция сметы)
type Concept struct {
	ID          int64  `json:"id,omitempty"`
	Key         string `json:"clave"`
	Description string `json:"descripcion"`
	Unit        string `json:"unidad_concepto"`
}

type conceptDTO struct {
	ID          Number `json:"id"`
	Key         Str    `json:"clave"`
	Description Str    `json:"descripcion"`
	Unit        Str    `json:"unidad_concepto"`
}

func (d conceptDTO) model() Concept {
	return Concept{ID: int64(d.ID), Key: string(d.Key), Description: string(d.Description), Unit: string(d.Unit)}
}

func (c *Client) ListConcepts(ctx context.Context) ([]Concept, error) {
	return list(ctx, c, "/conceptos", conceptDTO.model)
}

func (c *Client) GetConcept(ctx context.Context, id int64) (Concept, error) {
	var d conceptDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/conceptos/%d", id), nil, &d); err != nil {
		return Concept{}, err
	}
	return d.model(), nil
}

func (c *Client) CreateConcept(ctx context.Context, in Concept) (Concept, error) {
	in.ID = 0
	var d conceptDTO
	if err := c.do(ctx, http.MethodPost, "/conceptos", in, &d); err != nil {
		return Concept{}, err
	}
	return d.model(), nil
}

func (c *Client) UpdateConcept(ctx context.Context, in Concept) (Concept, error) {
	var d conceptDTO
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/conceptos/%d", in.ID), in, &d); err != nil {
		return Concept{}, err
	}
	return d.model(), nil
}
