package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlap(t *testing.T) {
	t.Run("should overlap a point inside the region", func(t *testing.T) {
		r := New("1", 122, 124)

		assert.True(t, r.Overlap(123))
		assert.True(t, r.Overlap(122))
		assert.True(t, r.Overlap(124))
		assert.False(t, r.Overlap(125))
		assert.False(t, r.Overlap(121))
	})

	t.Run("should only touch an insertion at its anchor", func(t *testing.T) {
		ins := New("1", 100, 99)

		assert.False(t, ins.Overlap(99))
		assert.True(t, ins.Overlap(100))

		assert.False(t, ins.OverlapRegion(Point("1", 99), true))
		assert.True(t, ins.OverlapRegion(Point("1", 100), true))
	})

	t.Run("should cover both anchor bases without insertion awareness", func(t *testing.T) {
		ins := New("1", 100, 99)

		assert.True(t, ins.OverlapRegion(Point("1", 99), false))
		assert.True(t, ins.OverlapRegion(Point("1", 100), false))
		assert.False(t, ins.OverlapRegion(Point("1", 101), false))
	})

	t.Run("should always overlap identical regions", func(t *testing.T) {
		ins := New("1", 100, 99)

		assert.True(t, ins.OverlapRegion(New("1", 100, 99), true))
		assert.True(t, ins.OverlapRegion(New("1", 100, 99), false))
	})

	t.Run("should overlap intervals", func(t *testing.T) {
		a := New("1", 10, 20)

		assert.True(t, a.OverlapRegion(New("1", 20, 30), false))
		assert.False(t, a.OverlapRegion(New("1", 21, 30), false))
		assert.True(t, a.OverlapRegion(New("1", 1, 10), true))
	})
}

func TestCoveredBy(t *testing.T) {
	assert.True(t, New("1", 12, 14).CoveredBy(New("1", 10, 20)))
	assert.True(t, New("1", 10, 20).CoveredBy(New("1", 10, 20)))
	assert.False(t, New("1", 9, 14).CoveredBy(New("1", 10, 20)))
	assert.True(t, New("1", 15, 14).CoveredBy(New("1", 10, 20)))
}

func TestLength(t *testing.T) {
	assert.Equal(t, int64(3), New("1", 122, 124).Length())
	assert.Equal(t, int64(1), Point("1", 5).Length())
	assert.Equal(t, int64(0), New("1", 100, 99).Length())

	assert.Equal(t, int64(1), New("1", 100, 99).CoveredPositions())
	assert.Equal(t, int64(3), New("1", 122, 124).CoveredPositions())
	// reversed non-insertion bounds still count every position
	assert.Equal(t, int64(3), New("1", 124, 122).CoveredPositions())
	assert.True(t, New("1", 100, 99).IsInsertion())
}
