package catalog

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Source - откуда берутся каталоги (REST-бэкенд).
type Source interface {
	ListMaterials(ctx context.Context) ([]Material, error)
	ListLabor(ctx context.Context) ([]Labor, error)
	ListEquipment(ctx context.Context) ([]Equipment, error)
	ListMachinery(ctx context.Context) ([]Machinery, error)
}

// Load загружает все четыре каталога параллельно.
func Load(ctx context.Context, src Source) (*Cache, error) {
	var (
		ms []Material
		ls []Labor
		es []Equipment
		qs []Machinery
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ms, err = src.ListMaterials(gCtx)
		if err != nil {
			return fmt.Errorf("load materials: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		ls, err = src.ListLabor(gCtx)
		if err != nil {
			return fmt.Errorf("load labor: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		es, err = src.ListEquipment(gCtx)
		if err != nil {
			return fmt.Errorf("load equipment: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		qs, err = src.ListMachinery(gCtx)
		if err != nil {
			return fmt.Errorf("load machinery: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewCache(ms, ls, es, qs), nil
}

// Store держит текущий снимок каталогов. Любое изменение каталога:
// полная перезагрузка всех четырёх, без точечных правок.
type Store struct {
	src Source

	mu    sync.RWMutex
	cache *Cache
}

func NewStore(src Source) *Store { return &Store{src: src} }

// Reload перечитывает все каталоги. При ошибке остаётся прежний снимок.
func (s *Store) Reload(ctx context.Context) (*Cache, error) {
	c, err := Load(ctx, s.src)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cache = c
	s.mu.Unlock()
	return c, nil
}

// Current возвращает текущий снимок (nil, если ещё не загружали).
func (s *Store) Current() *Cache {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache
}
