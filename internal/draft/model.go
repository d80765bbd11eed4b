package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Version - версия схемы черновика; записи другой версии считаются отсутствующими
const Version = 1

// Field - именованная часть черновика
type Field string

const (
	FieldForm        Field = "form"
	FieldRows        Field = "rows"
	FieldFactors     Field = "factors"
	FieldExplanation Field = "explanation"
)

// Fields - все поля черновика
var Fields = []Field{FieldForm, FieldRows, FieldFactors, FieldExplanation}

var ErrUnknownField = errors.New("unknown draft field")

func (f Field) Valid() bool {
	switch f {
	case FieldForm, FieldRows, FieldFactors, FieldExplanation:
		return true
	}
	return false
}

// Store - хранилище черновиков: последнее известное состояние каждого поля.
type Store interface {
	Get(ctx context.Context, draftID string, field Field) (json.RawMessage, bool, error)
	Set(ctx context.Context, draftID string, field Field, value any) error
	Clear(ctx context.Context, draftID string) error
}

// Load читает поле и раскладывает его в T. ok=false - поля нет (или оно битое).
func Load[T any](ctx context.Context, s Store, draftID string, field Field) (T, bool, error) {
	var v T
	raw, ok, err := s.Get(ctx, draftID, field)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		// битый черновик не должен ломать открытие сессии
		var zero T
		return zero, false, nil
	}
	return v, true, nil
}

func encode(field Field, value any) (json.RawMessage, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode draft %s: %w", field, err)
	}
	return raw, nil
}
