package mock

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicVector(t *testing.T) {
	t.Run("same text yields same vector", func(t *testing.T) {
		assert.Equal(t, DeterministicVector("declarations page", 64),
			DeterministicVector("declarations page", 64))
	})

	t.Run("different text yields different vector", func(t *testing.T) {
		assert.NotEqual(t, DeterministicVector("general liability", 64),
			DeterministicVector("commercial property", 64))
	})

	t.Run("vector is unit length", func(t *testing.T) {
		vec := DeterministicVector("endorsement schedule", 384)
		require.Len(t, vec, 384)

		var sumSquares float64
		for _, v := range vec {
			sumSquares += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-3)
	})
}
