package vectorstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 0.0001)
	assert.InDelta(t, 0.8, v[1], 0.0001)
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, v)
}

func TestCosineSimilarityIdentical(t *testing.T) {
	v := Normalize([]float32{1, 2, 3})
	assert.InDelta(t, 1.0, cosineSimilarity(v, v), 0.0001)
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	a := Normalize([]float32{1, 0})
	b := Normalize([]float32{0, 1})
	assert.InDelta(t, 0.0, cosineSimilarity(a, b), 0.0001)
}

func TestInsertAndLen(t *testing.T) {
	s := New(t.TempDir(), 3, nil)
	s.Insert("sym1", Normalize([]float32{1, 0, 0}))
	s.Insert("sym2", Normalize([]float32{0, 1, 0}))
	assert.Equal(t, 2, s.Len())
}

func TestPersistAndOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 3, nil)
	s.Insert("sym1", Normalize([]float32{1, 0, 0}))
	require.NoError(t, s.Persist())

	reopened, ok, err := Open(dir, 3, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, reopened.Len())
}

func TestOpenMissingGraph(t *testing.T) {
	dir := t.TempDir()
	s, ok, err := Open(filepath.Join(dir, "nonexistent"), 3, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, s)
}

func TestSortHitsDesc(t *testing.T) {
	hits := []Hit{{SymbolID: "a", Score: 0.2}, {SymbolID: "b", Score: 0.9}, {SymbolID: "c", Score: 0.5}}
	sortHitsDesc(hits)
	assert.Equal(t, []string{"b", "c", "a"}, []string{hits[0].SymbolID, hits[1].SymbolID, hits[2].SymbolID})
}
