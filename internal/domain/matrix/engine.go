package matrix

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Spok95/apu-builder/internal/domain/catalog"
)

// DefaultDebounce - пауза после последнего изменения перед пересчётом на сервере
const DefaultDebounce = 800 * time.Millisecond

type Options struct {
	ConceptID int64
	Local     bool
	Rows      []Row
	Factors   Factors

	// Catalog возвращает текущий снимок каталогов (может быть nil до загрузки)
	Catalog func() *catalog.Cache
	Remote  Remote
	Pricer  Pricer

	// SaveLocal - сохранение в локальном режиме (черновик без концепта)
	SaveLocal func(ctx context.Context, rows []Row) error
	// OnRowsChange - уведомление родителя о пользовательских изменениях
	OnRowsChange func(rows []Row)
	OnSummary    func(s Summary)

	Debounce       time.Duration
	MatchThreshold float64
	Log            *slog.Logger
}

// Engine - редактор матрицы: одна точка входа для всех источников строк,
// локальный расчёт для отображения и отложенный авторитетный пересчёт.
type Engine struct {
	catalog   func() *catalog.Cache
	remote    Remote
	pricer    Pricer
	saveLocal func(ctx context.Context, rows []Row) error
	onRows    func(rows []Row)
	onSummary func(s Summary)
	threshold float64
	log       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	deb    *Debouncer

	mu      sync.Mutex
	state   State
	summary Summary
	seq     uint64 // номер последнего запроса на пересчёт
	applied uint64 // номер последнего применённого ответа
}

func NewEngine(opts Options) *Engine {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MatchThreshold <= 0 {
		opts.MatchThreshold = DefaultMatchThreshold
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Catalog == nil {
		opts.Catalog = func() *catalog.Cache { return nil }
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		catalog:   opts.Catalog,
		remote:    opts.Remote,
		pricer:    opts.Pricer,
		saveLocal: opts.SaveLocal,
		onRows:    opts.OnRowsChange,
		onSummary: opts.OnSummary,
		threshold: opts.MatchThreshold,
		log:       opts.Log,
		ctx:       ctx,
		cancel:    cancel,
		state: State{
			Rows:      cloneRows(opts.Rows),
			ConceptID: opts.ConceptID,
			Local:     opts.Local,
			Factors:   opts.Factors,
		},
	}
	e.deb = NewDebouncer(opts.Debounce, func() {
		if err := e.Recompute(e.ctx); err != nil {
			e.log.Warn("unit price recompute failed", "concept_id", e.ConceptID(), "err", err)
		}
	})
	return e
}

// Close останавливает отложенный пересчёт и отменяет запросы в полёте.
func (e *Engine) Close() {
	e.deb.Stop()
	e.cancel()
}

// Dispatch применяет событие, затем автопривязку к каталогу.
func (e *Engine) Dispatch(ev Event) error {
	e.mu.Lock()
	next, out, err := Reduce(e.state, ev)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	matchedRows, n := AutoMatch(next.Rows, e.catalog(), e.threshold)
	if n > 0 {
		next.Rows = matchedRows
		out.RowsChanged, out.Reprice = true, true
	}
	e.state = next

	notify := out.RowsChanged && (!out.Programmatic || n > 0)
	var rows []Row
	if notify {
		rows = cloneRows(next.Rows)
	}
	if out.Reprice {
		e.deb.Trigger()
	}
	e.mu.Unlock()

	if n > 0 {
		autoMatched.Add(float64(n))
		e.log.Debug("suggested rows linked to catalog", "count", n, "source", ev.Source().String())
	}
	if notify && e.onRows != nil {
		e.onRows(rows)
	}
	return nil
}

// CatalogChanged - каталоги перезагружены: пробуем привязать предложения заново.
func (e *Engine) CatalogChanged() {
	e.mu.Lock()
	rows, n := AutoMatch(e.state.Rows, e.catalog(), e.threshold)
	if n == 0 {
		e.mu.Unlock()
		return
	}
	e.state.Rows = rows
	snapshot := cloneRows(rows)
	e.deb.Trigger()
	e.mu.Unlock()

	autoMatched.Add(float64(n))
	if e.onRows != nil {
		e.onRows(snapshot)
	}
}

func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state
	s.Rows = cloneRows(s.Rows)
	return s
}

func (e *Engine) Rows() []Row { return e.Snapshot().Rows }

func (e *Engine) ConceptID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.ConceptID
}

func (e *Engine) Local() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Local
}

func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summary
}

// Lines - строки с локально посчитанными ценами (только для отображения)
func (e *Engine) Lines() []Line {
	return BuildLines(e.Rows(), e.catalog())
}

func (e *Engine) Row(index int) (Row, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.state.Rows) {
		return Row{}, fmt.Errorf("row %d: %w", index, ErrRowIndex)
	}
	return e.state.Rows[index].clone(), nil
}

func (e *Engine) ApplySuggestions(rows []Row) error { return e.Dispatch(AISuggested{Rows: rows}) }

func (e *Engine) MirrorExternal(rows []Row) error { return e.Dispatch(ExternalMirrored{Rows: rows}) }

func (e *Engine) Edit(index int, p Patch) error {
	return e.Dispatch(RowEdited{Index: index, Patch: p})
}

// EditMatching - правка, которая применяется, только если строка на месте
// index всё ещё та же (после долгого запроса в бэкенд).
func (e *Engine) EditMatching(index int, expect RowRef, p Patch) error {
	return e.Dispatch(RowEdited{Index: index, Patch: p, Expect: &expect})
}

// LinkToCatalog привязывает прочитанную ранее строку-предложение к новой записи каталога.
func (e *Engine) LinkToCatalog(index int, expect RowRef, resourceID int64) error {
	return e.Dispatch(CatalogLinked{Index: index, Expect: expect, ResourceID: resourceID})
}

func (e *Engine) SetFactors(f Factors) error { return e.Dispatch(FactorsChanged{Factors: f}) }

func (e *Engine) Reset() error { return e.Dispatch(Reset{}) }

// SetConcept переключает концепт/режим; в удалённом режиме матрица перечитывается.
func (e *Engine) SetConcept(ctx context.Context, conceptID int64, local bool) error {
	if err := e.Dispatch(ConceptChanged{ConceptID: conceptID, Local: local}); err != nil {
		return err
	}
	if local {
		return nil
	}
	return e.Load(ctx)
}

// Load перечитывает матрицу концепта с сервера (только удалённый режим).
func (e *Engine) Load(ctx context.Context) error {
	st := e.Snapshot()
	if st.Local {
		return nil
	}
	if st.ConceptID == 0 || e.remote == nil {
		return e.Dispatch(RemoteLoaded{})
	}
	rows, err := e.remote.ListRows(ctx, st.ConceptID)
	if err != nil {
		return fmt.Errorf("load matrix of concept %d: %w", st.ConceptID, err)
	}
	return e.Dispatch(RemoteLoaded{ConceptID: st.ConceptID, Rows: rows})
}

// AddRow добавляет строку пользователя. В удалённом режиме строка сразу
// сохраняется на сервере и матрица перечитывается.
func (e *Engine) AddRow(ctx context.Context, r Row) error {
	if err := validateNewRow(r); err != nil {
		return err
	}
	st := e.Snapshot()
	if st.Local || st.ConceptID == 0 || e.remote == nil {
		return e.Dispatch(RowAdded{Row: r})
	}
	r.InCatalog = true
	p := NewRowPayload(r, st.ConceptID)
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := e.remote.CreateRow(ctx, p); err != nil {
		return fmt.Errorf("create matrix row: %w", err)
	}
	return e.Load(ctx)
}

// DeleteRow удаляет строку; сохранённая на сервере строка удаляется там же.
func (e *Engine) DeleteRow(ctx context.Context, index int) error {
	r, err := e.Row(index)
	if err != nil {
		return err
	}
	st := e.Snapshot()
	if st.Local || r.ID == 0 || e.remote == nil {
		return e.Dispatch(RowRemoved{Index: index})
	}
	if err := e.remote.DeleteRow(ctx, r.ID); err != nil {
		return fmt.Errorf("delete matrix row %d: %w", r.ID, err)
	}
	return e.Load(ctx)
}

// Save сохраняет матрицу. Локальный режим - через SaveLocal, без сети.
// Удалённый: удалить отсутствующие строки, обновить/создать остальные, перечитать.
func (e *Engine) Save(ctx context.Context) error {
	st := e.Snapshot()
	if st.Local {
		if e.saveLocal == nil {
			return nil
		}
		if err := e.saveLocal(ctx, st.Rows); err != nil {
			saves.WithLabelValues("local", "error").Inc()
			return err
		}
		saves.WithLabelValues("local", "ok").Inc()
		return nil
	}
	if st.ConceptID == 0 || e.remote == nil {
		return nil
	}
	if err := e.sync(ctx, st); err != nil {
		saves.WithLabelValues("remote", "error").Inc()
		return err
	}
	saves.WithLabelValues("remote", "ok").Inc()
	return nil
}

// Promote переводит локальный черновик на сохранённый концепт и пишет его строки на сервер.
func (e *Engine) Promote(ctx context.Context, conceptID int64) error {
	if err := e.Dispatch(ConceptChanged{ConceptID: conceptID, Local: false, KeepRows: true}); err != nil {
		return err
	}
	return e.Save(ctx)
}

func (e *Engine) sync(ctx context.Context, st State) error {
	payloads, err := validateForSave(st.Rows, st.ConceptID)
	if err != nil {
		return err
	}

	existing, err := e.remote.ListRows(ctx, st.ConceptID)
	if err != nil {
		return fmt.Errorf("list matrix of concept %d: %w", st.ConceptID, err)
	}
	keep := make(map[int64]struct{}, len(st.Rows))
	for _, r := range st.Rows {
		if r.ID > 0 {
			keep[r.ID] = struct{}{}
		}
	}
	for _, r := range existing {
		if r.ID == 0 {
			continue
		}
		if _, ok := keep[r.ID]; ok {
			continue
		}
		if err := e.remote.DeleteRow(ctx, r.ID); err != nil {
			return fmt.Errorf("delete matrix row %d: %w", r.ID, err)
		}
	}

	for i := range st.Rows {
		if st.Rows[i].ID > 0 {
			if err := e.remote.UpdateRow(ctx, st.Rows[i].ID, payloads[i]); err != nil {
				return fmt.Errorf("update matrix row %d: %w", st.Rows[i].ID, err)
			}
			continue
		}
		id, err := e.remote.CreateRow(ctx, payloads[i])
		if err != nil {
			return fmt.Errorf("create matrix row: %w", err)
		}
		st.Rows[i].ID = id
	}

	if err := e.Load(ctx); err != nil {
		// сервер уже сохранил строки - оставляем у себя полученные id
		e.log.Warn("reload after save failed", "concept_id", st.ConceptID, "err", err)
		_ = e.Dispatch(RemoteLoaded{ConceptID: st.ConceptID, Rows: st.Rows})
		return err
	}
	return nil
}

// Recompute - немедленный пересчёт на сервере по текущему состоянию.
// Ответ на более старый запрос, пришедший после нового, отбрасывается.
func (e *Engine) Recompute(ctx context.Context) error {
	e.mu.Lock()
	req, ok := BuildPriceRequest(e.state)
	e.seq++
	seq := e.seq
	if !ok || e.pricer == nil {
		e.applied = seq
		changed := e.summary != (Summary{})
		e.summary = Summary{}
		e.mu.Unlock()
		if changed && e.onSummary != nil {
			e.onSummary(Summary{})
		}
		return nil
	}
	e.mu.Unlock()

	start := time.Now()
	sum, err := e.pricer.ComputeUnitPrice(ctx, req)
	pricingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		pricingRequests.WithLabelValues("error").Inc()
		return fmt.Errorf("compute unit price: %w", err)
	}

	e.mu.Lock()
	if seq < e.applied {
		e.mu.Unlock()
		pricingRequests.WithLabelValues("stale").Inc()
		return nil
	}
	e.applied = seq
	e.summary = sum
	e.mu.Unlock()

	pricingRequests.WithLabelValues("ok").Inc()
	if e.onSummary != nil {
		e.onSummary(sum)
	}
	return nil
}
