package workbench

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/Spok95/apu-builder/internal/domain/matrix"
	"github.com/Spok95/apu-builder/internal/draft"
	"github.com/Spok95/apu-builder/internal/export"
	"github.com/Spok95/apu-builder/internal/infra/backend"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// ConceptForm - шапка концепта в редакторе
type ConceptForm struct {
	ID          int64  `json:"id,omitempty"`
	Key         string `json:"clave" validate:"required"`
	Description string `json:"descripcion" validate:"required"`
	Unit        string `json:"unidad_concepto" validate:"required"`
}

func (f ConceptForm) normalized() ConceptForm {
	f.Key = strings.TrimSpace(f.Key)
	f.Description = strings.TrimSpace(f.Description)
	f.Unit = strings.TrimSpace(f.Unit)
	return f
}

func (f ConceptForm) Validate() error {
	if err := validate.Struct(f.normalized()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConcept, err)
	}
	return nil
}

func formFromConcept(c backend.Concept) ConceptForm {
	return ConceptForm{ID: c.ID, Key: c.Key, Description: c.Description, Unit: c.Unit}
}

// Session - один открытый редактор APU.
type Session struct {
	ID     uuid.UUID
	svc    *Service
	engine *matrix.Engine
	log    *slog.Logger

	mu          sync.Mutex
	form        ConceptForm
	explanation string
}

// View - снимок сессии для клиента
type View struct {
	ID          uuid.UUID      `json:"id"`
	Form        ConceptForm    `json:"form"`
	Local       bool           `json:"local"`
	Rows        []matrix.Row   `json:"rows"`
	Lines       []matrix.Line  `json:"lines"`
	Summary     matrix.Summary `json:"summary"`
	Factors     matrix.Factors `json:"factors"`
	Explanation string         `json:"explanation,omitempty"`
}

func (s *Session) View() View {
	st := s.engine.Snapshot()
	s.mu.Lock()
	form, expl := s.form, s.explanation
	s.mu.Unlock()
	return View{
		ID:          s.ID,
		Form:        form,
		Local:       st.Local,
		Rows:        st.Rows,
		Lines:       s.engine.Lines(),
		Summary:     s.engine.Summary(),
		Factors:     st.Factors,
		Explanation: expl,
	}
}

func (s *Session) Form() ConceptForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// UpdateForm меняет шапку без сохранения на сервере; id концепта не трогается.
func (s *Session) UpdateForm(ctx context.Context, f ConceptForm) {
	s.mu.Lock()
	f.ID = s.form.ID
	s.form = f
	s.mu.Unlock()
	s.persist(ctx)
}

func (s *Session) MirrorRows(ctx context.Context, rows []matrix.Row) error {
	if err := s.engine.MirrorExternal(rows); err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

func (s *Session) AddRow(ctx context.Context, r matrix.Row) error {
	if err := s.engine.AddRow(ctx, r); err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

func (s *Session) EditRow(ctx context.Context, index int, p matrix.Patch) error {
	if err := s.engine.Edit(index, p); err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

func (s *Session) DeleteRow(ctx context.Context, index int) error {
	if err := s.engine.DeleteRow(ctx, index); err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

func (s *Session) SetFactors(ctx context.Context, f matrix.Factors) error {
	if err := s.engine.SetFactors(f); err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

// Suggest просит ассистента разложить концепт на ресурсы.
func (s *Session) Suggest(ctx context.Context) error {
	form := s.Form().normalized()
	if form.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidConcept)
	}
	req := backend.APURequest{Description: form.Description, Unit: form.Unit}
	if form.ID > 0 {
		req.ConceptID = &form.ID
	}
	res, err := s.svc.backend.SuggestAPU(ctx, req)
	if err != nil {
		s.log.Error("apu suggestion failed", "err", err)
		return fmt.Errorf("suggest apu: %w", err)
	}

	rows := matrix.MapSuggestions(res.Items, form.ID)
	if err := s.engine.ApplySuggestions(rows); err != nil {
		return err
	}
	s.mu.Lock()
	s.explanation = res.Explanation
	s.mu.Unlock()
	s.persist(ctx)
	s.log.Info("apu suggestion applied", "items", len(rows))
	return nil
}

// Clarify - уточняющие вопросы по описанию концепта
func (s *Session) Clarify(ctx context.Context) ([]backend.Question, error) {
	form := s.Form().normalized()
	if form.Description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidConcept)
	}
	qs, err := s.svc.backend.ClarifyingQuestions(ctx, form.Description)
	if err != nil {
		s.log.Error("clarifying questions failed", "err", err)
		return nil, fmt.Errorf("clarifying questions: %w", err)
	}
	return qs, nil
}

// SaveMatrix - сохранить строки (локально в черновик или на сервер)
func (s *Session) SaveMatrix(ctx context.Context) error {
	if err := s.engine.Save(ctx); err != nil {
		s.log.Error("matrix save failed", "err", err)
		return err
	}
	s.persist(ctx)
	return nil
}

// SaveConcept сохраняет шапку. Существующий концепт обновляется и
// синхронизирует матрицу; новый создаётся и забирает строки черновика.
func (s *Session) SaveConcept(ctx context.Context, f ConceptForm) (ConceptForm, error) {
	f = f.normalized()
	if err := f.Validate(); err != nil {
		return ConceptForm{}, err
	}
	cur := s.Form()
	f.ID = cur.ID

	c := backend.Concept{ID: f.ID, Key: f.Key, Description: f.Description, Unit: f.Unit}
	if f.ID > 0 {
		saved, err := s.svc.backend.UpdateConcept(ctx, c)
		if err != nil {
			return ConceptForm{}, fmt.Errorf("update concept %d: %w", f.ID, err)
		}
		s.setForm(formFromConcept(saved), f)
		if err := s.engine.Save(ctx); err != nil {
			return s.Form(), err
		}
	} else {
		saved, err := s.svc.backend.CreateConcept(ctx, c)
		if err != nil {
			return ConceptForm{}, fmt.Errorf("create concept: %w", err)
		}
		s.setForm(formFromConcept(saved), f)
		s.log.Info("concept created", "concept_id", saved.ID, "clave", saved.Key)
		s.svc.notifyAdmin(ctx, fmt.Sprintf("Nuevo concepto %s: %s", saved.Key, saved.Description))
		if err := s.engine.Promote(ctx, saved.ID); err != nil {
			s.persist(ctx)
			return s.Form(), err
		}
	}
	s.persist(ctx)
	return s.Form(), nil
}

// setForm - ответ сервера; пустые поля ответа заменяются отправленными
func (s *Session) setForm(saved, sent ConceptForm) {
	if saved.ID == 0 {
		saved.ID = sent.ID
	}
	if saved.Key == "" {
		saved.Key = sent.Key
	}
	if saved.Description == "" {
		saved.Description = sent.Description
	}
	if saved.Unit == "" {
		saved.Unit = sent.Unit
	}
	s.mu.Lock()
	s.form = saved
	s.mu.Unlock()
}

// Export пишет xlsx с разбивкой концепта
func (s *Session) Export(w io.Writer) error {
	v := s.View()
	return export.Write(w, export.Breakdown{
		Key:         v.Form.Key,
		Description: v.Form.Description,
		Unit:        v.Form.Unit,
		Lines:       v.Lines,
		Summary:     v.Summary,
		Factors:     v.Factors,
	})
}

// Reset - полный сброс формы и черновика. Сессия остаётся открытой как пустой локальный черновик.
func (s *Session) Reset(ctx context.Context) error {
	if err := s.engine.SetConcept(ctx, 0, true); err != nil {
		return err
	}
	if err := s.engine.Reset(); err != nil {
		return err
	}
	if err := s.engine.SetFactors(matrix.DefaultFactors()); err != nil {
		return err
	}
	s.mu.Lock()
	s.form = ConceptForm{}
	s.explanation = ""
	s.mu.Unlock()
	if err := s.svc.drafts.Clear(ctx, s.ID.String()); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}

func (s *Session) saveLocal(ctx context.Context, rows []matrix.Row) error {
	return s.svc.drafts.Set(ctx, s.ID.String(), draft.FieldRows, rows)
}

// rowsChanged - строки изменились не по запросу клиента (автопривязка) или по нему
func (s *Session) rowsChanged(rows []matrix.Row) {
	if err := s.svc.drafts.Set(context.Background(), s.ID.String(), draft.FieldRows, rows); err != nil {
		s.log.Warn("draft rows write failed", "err", err)
	}
}

func (s *Session) summaryChanged(sum matrix.Summary) {
	s.log.Debug("unit price updated", "direct_cost", sum.DirectCost, "unit_price", sum.UnitPrice)
}

// persist - запись черновика после каждого изменения
func (s *Session) persist(ctx context.Context) {
	st := s.engine.Snapshot()
	s.mu.Lock()
	form, expl := s.form, s.explanation
	s.mu.Unlock()

	key := s.ID.String()
	values := []struct {
		field draft.Field
		value any
	}{
		{draft.FieldForm, form},
		{draft.FieldRows, st.Rows},
		{draft.FieldFactors, st.Factors},
		{draft.FieldExplanation, expl},
	}
	for _, v := range values {
		if err := s.svc.drafts.Set(ctx, key, v.field, v.value); err != nil {
			s.log.Warn("draft write failed", "field", string(v.field), "err", err)
		}
	}
}
