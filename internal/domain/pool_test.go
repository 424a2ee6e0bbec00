package domain

import (
	"math/rand"
	"testing"
)

func TestPoolInitialize(t *testing.T) {
	pool := NewPool(rand.New(rand.NewSource(3)))
	pool.Initialize()

	if pool.Len() != TotalCards {
		t.Fatalf("pool length = %d, want %d", pool.Len(), TotalCards)
	}
	for kind, n := range pool.Counts() {
		if n != CopiesPerCharacter {
			t.Fatalf("%s count = %d, want %d", kind, n, CopiesPerCharacter)
		}
	}

	// Re-initialize resets, never accumulates.
	pool.Initialize()
	if pool.Len() != TotalCards {
		t.Fatalf("pool length after re-init = %d, want %d", pool.Len(), TotalCards)
	}
}

func TestPoolDrawReturn(t *testing.T) {
	pool := NewPool(rand.New(rand.NewSource(3)))
	pool.Initialize()
	pool.Shuffle()

	c, ok := pool.Draw()
	if !ok {
		t.Fatalf("Draw from full pool failed")
	}
	if !IsCharacter(c) {
		t.Fatalf("Draw returned unknown card %q", c)
	}
	if pool.Len() != TotalCards-1 {
		t.Fatalf("pool length = %d after draw, want %d", pool.Len(), TotalCards-1)
	}

	pool.Return(c)
	if pool.Len() != TotalCards {
		t.Fatalf("pool length = %d after return, want %d", pool.Len(), TotalCards)
	}
}

func TestPoolDrawEmpty(t *testing.T) {
	pool := NewPool(rand.New(rand.NewSource(3)))
	if _, ok := pool.Draw(); ok {
		t.Fatalf("Draw from empty pool reported success")
	}
}

func TestShufflePreservesMultiset(t *testing.T) {
	pool := NewPool(rand.New(rand.NewSource(9)))
	pool.Initialize()
	before := pool.Counts()

	pool.Shuffle()

	after := pool.Counts()
	for kind, n := range before {
		if after[kind] != n {
			t.Fatalf("%s count changed across shuffle: %d -> %d", kind, n, after[kind])
		}
	}
}
