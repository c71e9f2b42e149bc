package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(5)

	assert.True(t, uf.Union(0, 1))
	assert.True(t, uf.Union(1, 2))
	assert.False(t, uf.Union(0, 2))

	assert.Equal(t, uf.Find(0), uf.Find(2))
	assert.NotEqual(t, uf.Find(0), uf.Find(3))
	assert.Equal(t, 3, uf.Size(1))
	assert.Equal(t, 1, uf.Size(4))
}

func TestLargestComponent(t *testing.T) {
	// Two islands: {0,1,2} and {3,4}; vertex 5 isolated.
	g := New(6)
	mustAdd(t, g, 0, 1, 0)
	mustAdd(t, g, 1, 2, 0)
	mustAdd(t, g, 3, 4, 0)

	got := LargestComponent(g)
	require.Equal(t, []int{0, 1, 2}, got)
}

func TestLargestComponentDirectionIgnored(t *testing.T) {
	// Directed edges only one way still connect weakly.
	g := New(4)
	mustAdd(t, g, 1, 0, 0)
	mustAdd(t, g, 2, 1, 0)
	mustAdd(t, g, 3, 2, 0)

	got := LargestComponent(g)
	assert.Equal(t, []int{0, 1, 2, 3}, got)
}

func TestLargestComponentEmpty(t *testing.T) {
	assert.Nil(t, LargestComponent(New(0)))
}
