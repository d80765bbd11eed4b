package workbench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Spok95/apu-builder/internal/domain/catalog"
	"github.com/Spok95/apu-builder/internal/domain/matrix"
	"github.com/Spok95/apu-builder/internal/draft"
	"github.com/Spok95/apu-builder/internal/infra/backend"
	"github.com/Spok95/apu-builder/internal/notify"
	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrNeedsDetails   = errors.New("catalog entry needs more details")
	ErrInvalidConcept = errors.New("concept key, description and unit are required")
	ErrNotPending     = errors.New("row is already linked to the catalog")
	ErrNotApplicable  = errors.New("market price applies only to linked rows without a price")
)

// Backend - то, что сервису нужно от REST-бэкенда
type Backend interface {
	matrix.Remote
	matrix.Pricer

	GetConcept(ctx context.Context, id int64) (backend.Concept, error)
	CreateConcept(ctx context.Context, c backend.Concept) (backend.Concept, error)
	UpdateConcept(ctx context.Context, c backend.Concept) (backend.Concept, error)

	CreateMaterial(ctx context.Context, m backend.NewMaterial) (int64, error)
	CreateLabor(ctx context.Context, l backend.NewLabor) (int64, error)
	CreateEquipment(ctx context.Context, e backend.NewEquipment) (int64, error)
	CreateMachinery(ctx context.Context, m backend.NewMachinery) (int64, error)

	SuggestMarketPrice(ctx context.Context, name, unit string) (backend.MarketPrice, error)
	SuggestAPU(ctx context.Context, req backend.APURequest) (backend.APUSuggestion, error)
	ClarifyingQuestions(ctx context.Context, description string) ([]backend.Question, error)
}

type Options struct {
	Backend        Backend
	Catalogs       *catalog.Store
	Drafts         draft.Store
	Notifier       notify.Notifier
	Debounce       time.Duration
	MatchThreshold float64
	Log            *slog.Logger
}

// Service - рабочие сессии редактора APU
type Service struct {
	backend   Backend
	catalogs  *catalog.Store
	drafts    draft.Store
	notifier  notify.Notifier
	debounce  time.Duration
	threshold float64
	log       *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func New(opts Options) *Service {
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Drafts == nil {
		opts.Drafts = draft.NewMemory()
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Service{
		backend:   opts.Backend,
		catalogs:  opts.Catalogs,
		drafts:    opts.Drafts,
		notifier:  opts.Notifier,
		debounce:  opts.Debounce,
		threshold: opts.MatchThreshold,
		log:       opts.Log,
		sessions:  make(map[uuid.UUID]*Session),
	}
}

// ReloadCatalogs перечитывает все четыре каталога и даёт сессиям
// привязать висящие предложения к новым записям.
func (s *Service) ReloadCatalogs(ctx context.Context) error {
	if _, err := s.catalogs.Reload(ctx); err != nil {
		catalogReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("reload catalogs: %w", err)
	}
	catalogReloads.WithLabelValues("ok").Inc()

	s.mu.Lock()
	open := make([]*Session, 0, len(s.sessions))
	for _, ss := range s.sessions {
		open = append(open, ss)
	}
	s.mu.Unlock()

	for _, ss := range open {
		ss.engine.CatalogChanged()
	}
	return nil
}

// Open - новая сессия. conceptID > 0 открывает сохранённый концепт,
// иначе это локальный черновик.
func (s *Service) Open(ctx context.Context, conceptID int64) (*Session, error) {
	id := uuid.New()
	var form ConceptForm
	if conceptID > 0 {
		c, err := s.backend.GetConcept(ctx, conceptID)
		if err != nil {
			return nil, fmt.Errorf("get concept %d: %w", conceptID, err)
		}
		form = formFromConcept(c)
	}

	ss := s.newSession(id, form, nil, matrix.DefaultFactors(), "")
	if conceptID > 0 {
		if err := ss.engine.Load(ctx); err != nil {
			ss.engine.Close()
			return nil, err
		}
	}
	s.register(ss)
	ss.persist(ctx)
	sessionsOpened.Inc()
	s.log.Info("session opened", "session", id.String(), "concept_id", conceptID)
	return ss, nil
}

// Get возвращает открытую сессию или восстанавливает её из черновика.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	ss, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return ss, nil
	}
	return s.restore(ctx, id)
}

func (s *Service) restore(ctx context.Context, id uuid.UUID) (*Session, error) {
	key := id.String()
	form, hasForm, err := draft.Load[ConceptForm](ctx, s.drafts, key, draft.FieldForm)
	if err != nil {
		return nil, err
	}
	rows, hasRows, err := draft.Load[[]matrix.Row](ctx, s.drafts, key, draft.FieldRows)
	if err != nil {
		return nil, err
	}
	if !hasForm && !hasRows {
		return nil, ErrNotFound
	}
	factors, ok, err := draft.Load[matrix.Factors](ctx, s.drafts, key, draft.FieldFactors)
	if err != nil {
		return nil, err
	}
	if !ok {
		factors = matrix.DefaultFactors()
	}
	explanation, _, err := draft.Load[string](ctx, s.drafts, key, draft.FieldExplanation)
	if err != nil {
		return nil, err
	}

	ss := s.newSession(id, form, rows, factors, explanation)
	if form.ID > 0 {
		// сохранённый концепт - источник истины сервер
		if err := ss.engine.Load(ctx); err != nil {
			s.log.Warn("restore: matrix load failed", "session", key, "err", err)
		}
	}

	s.mu.Lock()
	if cur, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		ss.engine.Close()
		return cur, nil
	}
	s.sessions[id] = ss
	s.mu.Unlock()
	s.log.Info("session restored from draft", "session", key, "concept_id", form.ID)
	return ss, nil
}

// Close закрывает сессию; черновик остаётся в хранилище.
func (s *Service) Close(id uuid.UUID) {
	s.mu.Lock()
	ss, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		ss.engine.Close()
	}
}

// Shutdown закрывает все сессии
func (s *Service) Shutdown() {
	s.mu.Lock()
	open := s.sessions
	s.sessions = make(map[uuid.UUID]*Session)
	s.mu.Unlock()
	for _, ss := range open {
		ss.engine.Close()
	}
}

func (s *Service) register(ss *Session) {
	s.mu.Lock()
	s.sessions[ss.ID] = ss
	s.mu.Unlock()
}

func (s *Service) newSession(id uuid.UUID, form ConceptForm, rows []matrix.Row, factors matrix.Factors, explanation string) *Session {
	ss := &Session{
		ID:          id,
		svc:         s,
		form:        form,
		explanation: explanation,
		log:         s.log.With("session", id.String()),
	}
	ss.engine = matrix.NewEngine(matrix.Options{
		ConceptID:      form.ID,
		Local:          form.ID == 0,
		Rows:           rows,
		Factors:        factors,
		Catalog:        s.catalogs.Current,
		Remote:         s.backend,
		Pricer:         s.backend,
		SaveLocal:      ss.saveLocal,
		OnRowsChange:   ss.rowsChanged,
		OnSummary:      ss.summaryChanged,
		Debounce:       s.debounce,
		MatchThreshold: s.threshold,
		Log:            ss.log,
	})
	return ss
}

func (s *Service) notifyAdmin(ctx context.Context, text string) {
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.log.Warn("admin notify failed", "err", err)
	}
}
