package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGenerator_DerivedFromWallClock(t *testing.T) {
	g := NewIDGenerator(0)

	before := time.Now().UnixMilli()
	id := g.Next()
	after := time.Now().UnixMilli()

	// A fresh terminal issues clock-based ids, so two registers provisioned
	// independently do not both start counting from 1.
	assert.GreaterOrEqual(t, id, before)
	assert.LessOrEqual(t, id, after)
}

func TestIDGenerator_StrictlyIncreasing(t *testing.T) {
	g := NewIDGenerator(0)

	prev := g.Next()
	for i := 0; i < 1000; i++ {
		id := g.Next()
		require.Greater(t, id, prev)
		prev = id
	}
}

func TestIDGenerator_ObserveMovesFloorForward(t *testing.T) {
	g := NewIDGenerator(0)

	future := time.Now().Add(time.Hour).UnixMilli()
	g.Observe(future)

	assert.Greater(t, g.Next(), future)

	// Observing something older never regresses the generator.
	g.Observe(1)
	assert.Greater(t, g.Next(), future)
}
