package export

import (
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/Spok95/apu-builder/internal/domain/matrix"
	"github.com/xuri/excelize/v2"
)

const SheetName = "Desglose APU"

// Breakdown - данные для выгрузки разбивки концепта
type Breakdown struct {
	Key         string
	Description string
	Unit        string
	Lines       []matrix.Line
	Summary     matrix.Summary
	Factors     matrix.Factors
}

var header = []interface{}{"Tipo", "Insumo", "Unidad", "Cantidad", "Costo unitario", "Importe", "Obsoleto"}

// Write пишет xlsx с разбивкой: шапка концепта, строки, итоги.
func Write(w io.Writer, b Breakdown) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(sheet, SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sheet = SheetName

	row := 1
	put := func(values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		row++
		return nil
	}

	head := [][]interface{}{
		{"Clave", b.Key},
		{"Descripción", b.Description},
		{"Unidad", b.Unit},
		{},
		header,
	}
	for _, v := range head {
		if err := put(v); err != nil {
			return err
		}
	}

	var direct float64
	for _, l := range b.Lines {
		obsolete := ""
		if l.Obsolete {
			obsolete = "sí"
		}
		if err := put([]interface{}{
			string(l.Row.Kind), l.Name, l.Unit, l.Row.Quantity, l.UnitCost, l.Total, obsolete,
		}); err != nil {
			return err
		}
		direct += l.Total
	}

	row++
	tail := [][]interface{}{
		{"", "", "", "", "Suma de importes", direct},
		{"", "", "", "", "Costo directo", b.Summary.DirectCost},
	}
	for _, fc := range []struct {
		name string
		f    matrix.Factor
	}{
		{"Indirectos", b.Factors.Overhead},
		{"Financiamiento", b.Factors.Financing},
		{"Utilidad", b.Factors.Profit},
		{"IVA", b.Factors.VAT},
	} {
		if fc.f.Active && fc.f.Percentage > 0 {
			tail = append(tail, []interface{}{"", "", "", "", fmt.Sprintf("%s %.2f%%", fc.name, fc.f.Percentage), ""})
		}
	}
	tail = append(tail, []interface{}{"", "", "", "", "Precio unitario", b.Summary.UnitPrice})
	for _, v := range tail {
		if err := put(v); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(sheet, "B", "B", 40)
	_ = f.SetColWidth(sheet, "E", "F", 16)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FileName - "apu_<clave>_20060102_150405.xlsx"
func FileName(key string, now time.Time) string {
	k := unsafeName.ReplaceAllString(key, "_")
	if k == "" || k == "_" {
		k = "borrador"
	}
	return fmt.Sprintf("apu_%s_%s.xlsx", k, now.Format("20060102_150405"))
}
