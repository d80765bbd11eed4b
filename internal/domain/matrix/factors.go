package matrix

import "math"

// Factor - надбавка в процентах (0–100, как в форме)
type Factor struct {
	Active     bool    `json:"activo"`
	Percentage float64 `json:"porcentaje"`
}

// Factors - четыре надбавки: косвенные, финансирование, прибыль, НДС (IVA)
type Factors struct {
	Overhead  Factor `json:"indirectos"`
	Financing Factor `json:"financiamiento"`
	Profit    Factor `json:"utilidad"`
	VAT       Factor `json:"iva"`
}

func DefaultFactors() Factors {
	return Factors{
		Overhead:  Factor{Active: true, Percentage: 15},
		Financing: Factor{Active: false, Percentage: 5},
		Profit:    Factor{Active: true, Percentage: 10},
		VAT:       Factor{Active: true, Percentage: 16},
	}
}

// FactorValue - надбавка в долях, как её ждёт бэкенд
type FactorValue struct {
	Active   bool    `json:"activo"`
	Fraction float64 `json:"porcentaje"`
}

// FactorsPayload - блок "factores" запроса calcular_pu.
// mano_obra клиент никогда не включает - фиксированная выключенная заглушка.
type FactorsPayload struct {
	Labor     FactorValue `json:"mano_obra"`
	Overhead  FactorValue `json:"indirectos"`
	Financing FactorValue `json:"financiamiento"`
	Profit    FactorValue `json:"utilidad"`
	VAT       FactorValue `json:"iva"`
}

// Payload переводит проценты в доли. nil - ни одна надбавка не активна
// (тогда бэкенд применяет свои значения по умолчанию).
func (f Factors) Payload() *FactorsPayload {
	p := &FactorsPayload{
		Overhead:  f.Overhead.value(),
		Financing: f.Financing.value(),
		Profit:    f.Profit.value(),
		VAT:       f.VAT.value(),
	}
	if !p.Overhead.Active && !p.Financing.Active && !p.Profit.Active && !p.VAT.Active {
		return nil
	}
	return p
}

func (f Factor) value() FactorValue {
	frac := f.Percentage / 100
	if math.IsNaN(frac) || math.IsInf(frac, 0) {
		frac = 0
	}
	if !f.Active || frac <= 0 {
		return FactorValue{}
	}
	return FactorValue{Active: true, Fraction: frac}
}
