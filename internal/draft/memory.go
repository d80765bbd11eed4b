package draft

import (
	"context"
	"encoding/json"
	"sync"
)

type record struct {
	version int
	value   json.RawMessage
}

// Memory - черновики в памяти процесса (без Postgres и в тестах)
type Memory struct {
	mu     sync.RWMutex
	drafts map[string]map[Field]record
}

func NewMemory() *Memory {
	return &Memory{drafts: make(map[string]map[Field]record)}
}

func (m *Memory) Get(_ context.Context, draftID string, field Field) (json.RawMessage, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.drafts[draftID][field]
	if !ok || rec.version != Version {
		return nil, false, nil
	}
	return append(json.RawMessage(nil), rec.value...), true, nil
}

func (m *Memory) Set(_ context.Context, draftID string, field Field, value any) error {
	raw, err := encode(field, value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[draftID]
	if !ok {
		d = make(map[Field]record)
		m.drafts[draftID] = d
	}
	d[field] = record{version: Version, value: raw}
	return nil
}

func (m *Memory) Clear(_ context.Context, draftID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, draftID)
	return nil
}
