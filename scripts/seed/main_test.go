package main

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIsReproducible(t *testing.T) {
	first := generate(2, rand.New(rand.NewPCG(1, 2)))
	second := generate(2, rand.New(rand.NewPCG(1, 2)))
	require.Equal(t, first, second)

	items := 0
	for _, names := range catalogue {
		items += len(names)
	}
	assert.Len(t, first, items*2)
}

func TestGenerateValuesInRange(t *testing.T) {
	for _, p := range generate(3, rand.New(rand.NewPCG(42, 2024))) {
		assert.GreaterOrEqual(t, p.discount, 0.0)
		assert.LessOrEqual(t, p.discount, 50.0)
		assert.GreaterOrEqual(t, p.available, int32(0))
		assert.Equal(t, p.available == 0, p.outOfStock)
		assert.LessOrEqual(t, p.price, p.mrp)
	}
}
