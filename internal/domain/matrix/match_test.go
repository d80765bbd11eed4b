package matrix

import (
	"testing"

	"github.com/Spok95/apu-builder/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchScore(t *testing.T) {
	assert.InDelta(t, 2.0/3.0, MatchScore([]string{"block", "hueco"}, []string{"block", "hueco", "concreto"}), 1e-9)
	assert.Zero(t, MatchScore([]string{"tabique"}, []string{"block", "hueco"}))
	assert.Zero(t, MatchScore(nil, nil))
	assert.InDelta(t, 1, MatchScore([]string{"cemento"}, []string{"cemento"}), 1e-9)
}

func TestBestMatch(t *testing.T) {
	c := testCache()

	e, score, ok := BestMatch(catalog.KindMaterial, "Block hueco", c, DefaultMatchThreshold)
	require.True(t, ok)
	assert.Equal(t, int64(1), e.EntryID())
	assert.InDelta(t, 2.0/3.0, score, 1e-9)

	_, _, ok = BestMatch(catalog.KindMaterial, "Tabique rojo", c, DefaultMatchThreshold)
	assert.False(t, ok)

	// другой вид ресурса не рассматривается
	_, _, ok = BestMatch(catalog.KindLabor, "Block hueco", c, DefaultMatchThreshold)
	assert.False(t, ok)

	// ровно на пороге - не совпадение
	c2 := catalog.NewCache([]catalog.Material{{ID: 5, Name: "arena fina lavada cribada gruesa"}}, nil, nil, nil)
	_, score, ok = BestMatch(catalog.KindMaterial, "arena fina", c2, DefaultMatchThreshold)
	assert.InDelta(t, 0.4, score, 1e-9)
	assert.False(t, ok)
}

func TestBestMatch_TieGoesToLowestID(t *testing.T) {
	c := catalog.NewCache([]catalog.Material{
		{ID: 9, Name: "Cemento gris"},
		{ID: 3, Name: "Cemento blanco"},
		{ID: 1, Name: "de"}, // без ключевых слов, пропускается
	}, nil, nil, nil)

	e, _, ok := BestMatch(catalog.KindMaterial, "cemento", c, DefaultMatchThreshold)
	require.True(t, ok)
	assert.Equal(t, int64(3), e.EntryID())
}

func TestAutoMatch(t *testing.T) {
	c := testCache()
	rows := []Row{
		{Kind: catalog.KindMaterial, Quantity: 3, SuggestedName: "Block hueco", UnitFreightPrice: Ptr(7.0)},
		{Kind: catalog.KindMaterial, Quantity: 1, SuggestedName: "Tabique"},
		linked(catalog.KindLabor, 2, 1),
	}

	out, n := AutoMatch(rows, c, DefaultMatchThreshold)
	require.Equal(t, 1, n)

	assert.Equal(t, int64(1), *out[0].ResourceID)
	assert.True(t, out[0].InCatalog)
	assert.Empty(t, out[0].SuggestedName)
	assert.Equal(t, 0.0, *out[0].UnitFreightPrice)
	assert.Equal(t, 3.0, out[0].Quantity)
	assert.Equal(t, "Tabique", out[1].SuggestedName)

	// исходный срез не тронут
	assert.Nil(t, rows[0].ResourceID)
	assert.Equal(t, "Block hueco", rows[0].SuggestedName)
}

func TestAutoMatch_NeverRelinksCatalogRows(t *testing.T) {
	c := testCache()
	// строка в каталоге, но с именем, которое идеально совпало бы с другой записью
	rows := []Row{{
		Kind:          catalog.KindMaterial,
		ResourceID:    Ptr(int64(2)),
		InCatalog:     true,
		SuggestedName: "Block hueco concreto",
	}}

	out, n := AutoMatch(rows, c, DefaultMatchThreshold)
	assert.Zero(t, n)
	assert.Equal(t, int64(2), *out[0].ResourceID)
	assert.Same(t, &rows[0], &out[0])
}

func TestAutoMatch_NoCatalog(t *testing.T) {
	rows := []Row{{Kind: catalog.KindMaterial, SuggestedName: "Block hueco"}}
	out, n := AutoMatch(rows, nil, DefaultMatchThreshold)
	assert.Zero(t, n)
	assert.Equal(t, rows, out)
}
