package matrix

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/Spok95/apu-builder/internal/domain/catalog"
)

var (
	ErrRowIndex   = errors.New("row index out of range")
	ErrRowChanged = errors.New("row changed while the request was in flight")
)

// Source - откуда пришло изменение списка строк
type Source int

const (
	SourceRemote Source = iota + 1
	SourceAI
	SourceExternal
	SourceUser
)

func (s Source) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	case SourceAI:
		return "ai"
	case SourceExternal:
		return "external"
	case SourceUser:
		return "user"
	}
	return "unknown"
}

// State - состояние редактора матрицы
type State struct {
	Rows      []Row
	ConceptID int64
	Local     bool
	Factors   Factors
}

// Event - вход редактора. Все источники проходят через один Reduce,
// поэтому правила приоритета видны в одном месте.
type Event interface {
	Source() Source
}

// RemoteLoaded - матрица, загруженная с сервера, заменяет строки целиком.
type RemoteLoaded struct {
	ConceptID int64
	Rows      []Row
}

// AISuggested - предложение ассистента. Не затирает локальный черновик с данными.
type AISuggested struct{ Rows []Row }

// ExternalMirrored - строки, переданные родителем в локальном режиме.
type ExternalMirrored struct{ Rows []Row }

// RowEdited - правка строки. Expect, если задан, должен совпасть со строкой
// на месте Index, иначе правка отклоняется.
type RowEdited struct {
	Index  int
	Patch  Patch
	Expect *RowRef
}

type RowAdded struct{ Row Row }

type RowRemoved struct{ Index int }

// CatalogLinked - строка-предложение сохранена в каталог и получила id.
// Expect - строка, прочитанная до запроса в бэкенд: если на месте Index
// уже другая строка, она ищется по виду и имени.
type CatalogLinked struct {
	Index      int
	Expect     RowRef
	ResourceID int64
}

// RowRef - идентичность строки между чтением и отложенной правкой
type RowRef struct {
	Kind       catalog.Kind
	ResourceID int64
	Name       string
}

func RefOf(r Row) RowRef {
	return RowRef{Kind: r.Kind, ResourceID: r.resourceID(), Name: r.SuggestedName}
}

func (ref RowRef) matches(r Row) bool {
	return r.Kind == ref.Kind && r.resourceID() == ref.ResourceID && r.SuggestedName == ref.Name
}

// linkTarget - индекс неразрешённой строки для CatalogLinked, -1 если её уже нет
func linkTarget(rows []Row, e CatalogLinked) int {
	if e.Index >= 0 && e.Index < len(rows) && !rows[e.Index].Linked() && e.Expect.matches(rows[e.Index]) {
		return e.Index
	}
	if e.Expect.Name == "" {
		return -1
	}
	for i, r := range rows {
		if !r.Linked() && e.Expect.matches(r) {
			return i
		}
	}
	return -1
}

func linkedTo(rows []Row, kind catalog.Kind, id int64) bool {
	for _, r := range rows {
		if r.Linked() && r.Kind == kind && r.resourceID() == id {
			return true
		}
	}
	return false
}

// ConceptChanged - смена концепта или режима. Без KeepRows переход в
// удалённый режим очищает строки до загрузки с сервера.
type ConceptChanged struct {
	ConceptID int64
	Local     bool
	KeepRows  bool
}

type FactorsChanged struct{ Factors Factors }

// Reset - полный сброс формы
type Reset struct{}

func (RemoteLoaded) Source() Source     { return SourceRemote }
func (AISuggested) Source() Source      { return SourceAI }
func (ExternalMirrored) Source() Source { return SourceExternal }
func (RowEdited) Source() Source        { return SourceUser }
func (RowAdded) Source() Source         { return SourceUser }
func (RowRemoved) Source() Source       { return SourceUser }
func (CatalogLinked) Source() Source    { return SourceUser }
func (ConceptChanged) Source() Source   { return SourceExternal }
func (FactorsChanged) Source() Source   { return SourceUser }
func (Reset) Source() Source            { return SourceExternal }

// Outcome - что изменилось после события.
type Outcome struct {
	RowsChanged bool
	// Programmatic - замена строк не от пользователя: родителя не уведомляем,
	// иначе его же обновление вернётся к нему как пользовательское.
	Programmatic bool
	// Reprice - нужно перезапустить отложенный пересчёт на сервере
	Reprice bool
}

// Reduce применяет событие к состоянию. Исходное состояние не меняется.
func Reduce(s State, ev Event) (State, Outcome, error) {
	var out Outcome

	switch e := ev.(type) {
	case RemoteLoaded:
		if s.Local || e.ConceptID != s.ConceptID {
			// устаревший ответ или режим уже сменился
			return s, out, nil
		}
		s.Rows = normalizeRemote(e.Rows)
		out.RowsChanged, out.Programmatic = true, true

	case AISuggested:
		if len(e.Rows) == 0 {
			return s, out, nil
		}
		if s.Local && len(s.Rows) > 0 {
			return s, out, nil
		}
		s.Rows = cloneRows(e.Rows)
		out.RowsChanged, out.Programmatic = true, true

	case ExternalMirrored:
		if !s.Local || rowsEqual(s.Rows, e.Rows) {
			return s, out, nil
		}
		s.Rows = cloneRows(e.Rows)
		out.RowsChanged, out.Programmatic = true, true

	case RowEdited:
		if e.Index < 0 || e.Index >= len(s.Rows) {
			return s, out, fmt.Errorf("edit row %d: %w", e.Index, ErrRowIndex)
		}
		if e.Expect != nil && !e.Expect.matches(s.Rows[e.Index]) {
			return s, out, fmt.Errorf("edit row %d: %w", e.Index, ErrRowChanged)
		}
		rows := cloneRows(s.Rows)
		rows[e.Index] = e.Patch.apply(rows[e.Index])
		s.Rows = rows
		out.RowsChanged = true

	case RowAdded:
		r := e.Row.clone()
		r.ConceptID = s.ConceptID
		s.Rows = append(cloneRows(s.Rows), r)
		out.RowsChanged = true

	case RowRemoved:
		if e.Index < 0 || e.Index >= len(s.Rows) {
			return s, out, fmt.Errorf("remove row %d: %w", e.Index, ErrRowIndex)
		}
		rows := make([]Row, 0, len(s.Rows)-1)
		for i, r := range s.Rows {
			if i != e.Index {
				rows = append(rows, r.clone())
			}
		}
		s.Rows = rows
		out.RowsChanged = true

	case CatalogLinked:
		i := linkTarget(s.Rows, e)
		if i < 0 {
			// автопривязка после перезагрузки каталогов уже могла связать строку
			if linkedTo(s.Rows, e.Expect.Kind, e.ResourceID) {
				return s, out, nil
			}
			return s, out, fmt.Errorf("link row %d: %w", e.Index, ErrRowChanged)
		}
		rows := cloneRows(s.Rows)
		id := e.ResourceID
		rows[i].ResourceID = &id
		rows[i].InCatalog = true
		rows[i].SuggestedName = ""
		rows[i].TempUnitPrice = nil
		s.Rows = rows
		out.RowsChanged = true

	case ConceptChanged:
		if e.ConceptID == s.ConceptID && e.Local == s.Local {
			return s, out, nil
		}
		s.ConceptID, s.Local = e.ConceptID, e.Local
		out.Reprice = true
		if !e.Local && !e.KeepRows && len(s.Rows) > 0 {
			s.Rows = nil
			out.RowsChanged, out.Programmatic = true, true
		}
		if e.KeepRows {
			rows := cloneRows(s.Rows)
			for i := range rows {
				rows[i].ConceptID = e.ConceptID
			}
			s.Rows = rows
		}

	case FactorsChanged:
		if e.Factors == s.Factors {
			return s, out, nil
		}
		s.Factors = e.Factors
		out.Reprice = true

	case Reset:
		if len(s.Rows) == 0 {
			return s, out, nil
		}
		s.Rows = nil
		out.RowsChanged, out.Programmatic = true, true

	default:
		return s, out, fmt.Errorf("unknown event %T", ev)
	}

	if out.RowsChanged {
		out.Reprice = true
	}
	return s, out, nil
}

// normalizeRemote - строки с сервера по определению привязаны к каталогу
func normalizeRemote(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		r = r.clone()
		if math.IsNaN(r.Quantity) || math.IsInf(r.Quantity, 0) {
			r.Quantity = 0
		}
		r.InCatalog = true
		r.SuggestedName = ""
		out = append(out, r)
	}
	return out
}

func rowsEqual(a, b []Row) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
