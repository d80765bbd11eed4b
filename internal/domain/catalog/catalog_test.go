package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	materials []Material
	labor     []Labor
	equipment []Equipment
	machinery []Machinery
	failLabor error
	calls     atomic.Int32
}

func (f *fakeSource) ListMaterials(context.Context) ([]Material, error) {
	f.calls.Add(1)
	return f.materials, nil
}

func (f *fakeSource) ListLabor(context.Context) ([]Labor, error) {
	f.calls.Add(1)
	if f.failLabor != nil {
		return nil, f.failLabor
	}
	return f.labor, nil
}

func (f *fakeSource) ListEquipment(context.Context) ([]Equipment, error) {
	f.calls.Add(1)
	return f.equipment, nil
}

func (f *fakeSource) ListMachinery(context.Context) ([]Machinery, error) {
	f.calls.Add(1)
	return f.machinery, nil
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercase and short words", "Block Hueco de 15", []string{"block", "hueco"}},
		{"diacritics", "Albañil Oficial de Construcción", []string{"albanil", "oficial", "construccion"}},
		{"punctuation", "Cemento gris (50 kg), saco.", []string{"cemento", "gris", "saco"}},
		{"duplicates", "varilla varilla corrugada", []string{"varilla", "corrugada"}},
		{"only short words", "de la 12", nil},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Keywords(tt.in))
		})
	}
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindLabor, ParseKind("Mano de Obra"))
	assert.Equal(t, KindLabor, ParseKind("ManoObra"))
	assert.Equal(t, KindEquipment, ParseKind("equipo"))
	assert.Equal(t, KindMachinery, ParseKind(" Maquinaria "))
	assert.Equal(t, KindMaterial, ParseKind("Material"))
	assert.Equal(t, KindMaterial, ParseKind("algo raro"))
}

func TestCache_GetKeepsKindsApart(t *testing.T) {
	c := NewCache(
		[]Material{{ID: 1, Name: "Cemento"}},
		[]Labor{{ID: 1, Position: "Albañil"}},
		nil,
		[]Machinery{{ID: 2, Name: "Revolvedora"}},
	)

	e, ok := c.Get(KindMaterial, 1)
	require.True(t, ok)
	assert.Equal(t, "Cemento", e.DisplayName())

	e, ok = c.Get(KindLabor, 1)
	require.True(t, ok)
	assert.Equal(t, "Albañil", e.DisplayName())
	assert.Equal(t, "jornada", e.UnitName())

	_, ok = c.Get(KindEquipment, 1)
	assert.False(t, ok)
	_, ok = c.Get(KindMaterial, 2)
	assert.False(t, ok)

	var nilCache *Cache
	_, ok = nilCache.Get(KindMaterial, 1)
	assert.False(t, ok)
	assert.Equal(t, 0, nilCache.Len())
}

func TestCache_CandidatesSortedByID(t *testing.T) {
	c := NewCache([]Material{{ID: 9, Name: "c"}, {ID: 3, Name: "a"}, {ID: 5, Name: "b"}}, nil, nil, nil)

	got := c.Candidates(KindMaterial)
	require.Len(t, got, 3)
	assert.Equal(t, int64(3), got[0].EntryID())
	assert.Equal(t, int64(5), got[1].EntryID())
	assert.Equal(t, int64(9), got[2].EntryID())
	assert.Empty(t, c.Candidates(KindLabor))
}

func TestLoad_AllFour(t *testing.T) {
	src := &fakeSource{
		materials: []Material{{ID: 1}},
		labor:     []Labor{{ID: 1}, {ID: 2}},
		equipment: []Equipment{{ID: 7}},
		machinery: []Machinery{{ID: 8}},
	}
	c, err := Load(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, int32(4), src.calls.Load())
	assert.Equal(t, 5, c.Len())
}

func TestStore_ReloadKeepsSnapshotOnError(t *testing.T) {
	src := &fakeSource{materials: []Material{{ID: 1, Name: "Arena"}}}
	s := NewStore(src)
	assert.Nil(t, s.Current())

	_, err := s.Reload(context.Background())
	require.NoError(t, err)
	first := s.Current()
	require.NotNil(t, first)

	src.failLabor = errors.New("boom")
	_, err = s.Reload(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load labor")
	assert.Same(t, first, s.Current())
}
